package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/allisson/vaultcli/internal/audit"
	"github.com/allisson/vaultcli/internal/errors"
)

func TestCredentialInput_Validate(t *testing.T) {
	tests := []struct {
		name    string
		in      CredentialInput
		wantErr bool
	}{
		{
			name: "valid minimal input",
			in:   CredentialInput{Title: "GitHub"},
		},
		{
			name:    "empty title",
			in:      CredentialInput{},
			wantErr: true,
		},
		{
			name:    "blank title",
			in:      CredentialInput{Title: "   "},
			wantErr: true,
		},
		{
			name: "valid url hint",
			in:   CredentialInput{Title: "GitHub", URLHint: "github.com", SearchByURL: true},
		},
		{
			name:    "url hint with scheme rejected",
			in:      CredentialInput{Title: "GitHub", URLHint: "https://github.com", SearchByURL: true},
			wantErr: true,
		},
		{
			name: "full url hint ignored when not opted in",
			in:   CredentialInput{Title: "GitHub", URLHint: "https://github.com"},
		},
		{
			name: "valid tags",
			in:   CredentialInput{Title: "GitHub", Tags: []string{"work", "dev"}},
		},
		{
			name:    "blank tag rejected",
			in:      CredentialInput{Title: "GitHub", Tags: []string{"work", " "}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, errors.ErrInvalidInput)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestHintFromURL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://github.com", "github.com"},
		{"https://github.com/settings", "github.com"},
		{"https://gitlab.example.org:8443/group/project", "gitlab.example.org"},
		{"", ""},
		{"not a url", ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, HintFromURL(tt.raw))
		})
	}
}

func TestCheckTruncation(t *testing.T) {
	t.Run("intact chain passes", func(t *testing.T) {
		report := checkTruncation(audit.Report{TotalEntries: 6, Verified: true}, 6)
		assert.True(t, report.Verified)
		assert.Nil(t, report.FirstBadSeq)
	})

	t.Run("truncated tail detected", func(t *testing.T) {
		report := checkTruncation(audit.Report{TotalEntries: 4, Verified: true}, 6)
		assert.False(t, report.Verified)
		assert.True(t, report.Tainted)
		if assert.NotNil(t, report.FirstBadSeq) {
			assert.Equal(t, int64(5), *report.FirstBadSeq)
		}
	})

	t.Run("already-failed report left alone", func(t *testing.T) {
		three := int64(3)
		report := checkTruncation(audit.Report{TotalEntries: 6, Verified: false, FirstBadSeq: &three, Tainted: true}, 6)
		assert.False(t, report.Verified)
		assert.Equal(t, int64(3), *report.FirstBadSeq)
	})
}
