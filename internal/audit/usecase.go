package audit

import (
	"context"
	"time"
)

// UseCase appends and verifies audit entries. It holds no DEK and no
// knowledge of vault contents beyond the metadata an entry records; the HMAC
// seed is supplied by the caller (the session, which alone holds the
// unwrapped DEK needed to unwrap it) on every call.
type UseCase struct {
	repo Repository
}

// NewUseCase builds an audit UseCase over repo.
func NewUseCase(repo Repository) *UseCase {
	return &UseCase{repo: repo}
}

// Append seals a new entry onto the chain and persists it. Callers invoke
// this from within the enclosing transaction for the mutation it records, so
// either both commit or neither does.
func (uc *UseCase) Append(ctx context.Context, seed []byte, action Action, targetKind TargetKind, targetID string, outcome Outcome) (Entry, error) {
	prev, ok, err := uc.repo.Last(ctx)
	if err != nil {
		return Entry{}, err
	}

	var prevHmac []byte
	nextSeq := int64(1)
	if ok {
		prevHmac = prev.EntryHmac
		nextSeq = prev.Seq + 1
	}

	e := NewEntry(time.Now().UTC(), action, targetKind, targetID, outcome)
	e.Seq = nextSeq
	e = Seal(seed, prevHmac, e)

	seq, err := uc.repo.Append(ctx, e)
	if err != nil {
		return Entry{}, err
	}
	e.Seq = seq
	return e, nil
}

// List returns the full chain in seq order.
func (uc *UseCase) List(ctx context.Context) ([]Entry, error) {
	return uc.repo.All(ctx)
}

// VerifyChain recomputes every entry's HMAC from seq 1 using seed and
// reports the first divergent seq, if any.
func (uc *UseCase) VerifyChain(ctx context.Context, seed []byte) (Report, error) {
	entries, err := uc.repo.All(ctx)
	if err != nil {
		return Report{}, err
	}
	return VerifyChain(seed, entries), nil
}
