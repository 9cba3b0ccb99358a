package audit

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/allisson/vaultcli/internal/errors"
)

// zeroHmac is the prev_hmac fed to the first entry in a chain (entry_hmac_1 =
// HMAC(seed, canonical(entry_1) ‖ 0^32)).
var zeroHmac = make([]byte, sha256.Size)

// Canonicalize serializes an entry into the fixed-order, length-prefixed
// form that is the HMAC input. The previous entry's HMAC is folded in by
// Seal, not here, so Canonicalize stays a pure function of one entry.
func Canonicalize(e Entry) []byte {
	buf := make([]byte, 0, 128)
	buf = appendInt64(buf, e.Seq)
	buf = appendLengthPrefixed(buf, []byte(e.Timestamp.UTC().Format(time.RFC3339Nano)))
	buf = appendLengthPrefixed(buf, []byte(e.Actor))
	buf = appendLengthPrefixed(buf, []byte(e.Action))
	buf = appendLengthPrefixed(buf, []byte(e.TargetKind))
	buf = appendLengthPrefixed(buf, []byte(e.TargetID))
	buf = appendLengthPrefixed(buf, []byte(e.Outcome))
	return buf
}

func appendLengthPrefixed(buf, data []byte) []byte {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	buf = append(buf, lenBuf[:]...)
	return append(buf, data...)
}

func appendInt64(buf []byte, v int64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	return append(buf, b[:]...)
}

// Seal computes entry_hmac for e given the seed and the previous entry's
// HMAC (pass nil or zeroHmac for the first entry in the chain) and returns e
// with PrevHmac and EntryHmac populated.
func Seal(seed []byte, prevHmac []byte, e Entry) Entry {
	if prevHmac == nil {
		prevHmac = zeroHmac
	}
	e.PrevHmac = prevHmac

	mac := hmac.New(sha256.New, seed)
	mac.Write(Canonicalize(e))
	mac.Write(prevHmac)
	e.EntryHmac = mac.Sum(nil)
	return e
}

// Verify recomputes e's entry_hmac from seed and e.PrevHmac and reports
// whether it matches the stored value, using constant-time comparison.
func Verify(seed []byte, e Entry) bool {
	mac := hmac.New(sha256.New, seed)
	mac.Write(Canonicalize(e))
	mac.Write(e.PrevHmac)
	expected := mac.Sum(nil)
	return hmac.Equal(expected, e.EntryHmac)
}

// Report is the result of verifying a chain from seq 1.
type Report struct {
	TotalEntries int64
	Verified     bool
	FirstBadSeq  *int64
	Tainted      bool
}

// VerifyChain walks entries in seq order, recomputing each HMAC against the
// previous entry's stored HMAC. It stops at the first divergence and reports
// that seq; it never attempts repair.
func VerifyChain(seed []byte, entries []Entry) Report {
	report := Report{TotalEntries: int64(len(entries)), Verified: true}

	var prevHmac []byte
	for i, e := range entries {
		if i == 0 {
			prevHmac = zeroHmac
		}
		check := e
		check.PrevHmac = prevHmac
		if !Verify(seed, check) {
			seq := e.Seq
			report.Verified = false
			report.FirstBadSeq = &seq
			report.Tainted = true
			return report
		}
		prevHmac = e.EntryHmac
	}
	return report
}

// ErrChainEmpty describes an audit log with no entries, which should never
// happen once init has run. VerifyChain does not return it: an empty entry
// list yields a Verified report.
var ErrChainEmpty = errors.Wrap(errors.ErrCorrupt, "audit chain has no entries")
