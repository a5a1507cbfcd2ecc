package admission

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by ValidityCheck. Callers classify with
// errors.Is; the short-circuit order in ValidityCheck is normative so
// that error reporting is reproducible across replicas.
var (
	// ErrTombstoneBlockExceeded is returned when the transaction has
	// expired: cur >= tombstone_block.
	ErrTombstoneBlockExceeded = errors.New("admission: tombstone block exceeded")

	// ErrContainsSpentKeyImage is returned when at least one key image is
	// already present in the ledger, or the ledger errored while checking
	// one (conservative-true policy: a flaky ledger must never cause a
	// double-spend admission).
	ErrContainsSpentKeyImage = errors.New("admission: contains spent key image")

	// ErrContainsExistingOutputPublicKey is the output-public-key
	// counterpart of ErrContainsSpentKeyImage.
	ErrContainsExistingOutputPublicKey = errors.New("admission: contains existing output public key")

	// errDuplicateKeyImage and errDuplicateOutputPublicKey guard the
	// well-formed context's within-tx invariants: a single transaction
	// must not repeat a key image or output public key.
	errDuplicateKeyImage        = errors.New("admission: duplicate key image within transaction")
	errDuplicateOutputPublicKey = errors.New("admission: duplicate output public key within transaction")
)

// LedgerError wraps a failure from the ledger.View storage layer. It is
// transient: the caller may retry at the next slot.
type LedgerError struct {
	msg string
	err error
}

func newLedgerError(op string, err error) *LedgerError {
	return &LedgerError{msg: fmt.Sprintf("admission: ledger error during %s", op), err: err}
}

func (e *LedgerError) Error() string { return fmt.Sprintf("%s: %v", e.msg, e.err) }

func (e *LedgerError) Unwrap() error { return e.err }
