package ledger

import "golang.org/x/xerrors"

// Error kinds surfaced to callers. Every operation is all-or-nothing: when
// one of these comes back, no state change was applied. Call sites wrap
// these with xerrors.Errorf("...: %w", ...) so callers can classify with
// xerrors.Is.
var (
	// ErrValidation covers malformed input: unknown bundle sizes, value
	// mismatches, out-of-range prize indices, zero hashes.
	ErrValidation = xerrors.New("validation error")
	// ErrState is an operation attempted outside its permitted round phase.
	ErrState = xerrors.New("operation not permitted in current round state")
	// ErrAuthorization covers denylisted callers and the pause switch.
	ErrAuthorization = xerrors.New("caller not authorized")
	// ErrCapacity is a per-wallet or per-round cap being exceeded.
	ErrCapacity = xerrors.New("capacity exceeded")
	// ErrRandomness covers stale, duplicate or mismatched fulfillments and
	// rate-limited requests.
	ErrRandomness = xerrors.New("randomness error")
	// ErrCommitment covers zero or duplicate roots and failed proofs.
	ErrCommitment = xerrors.New("commitment error")
	// ErrClaim covers already-claimed slots and exhausted claim limits.
	ErrClaim = xerrors.New("claim error")
	// ErrRefund is a withdrawal against a zero balance.
	ErrRefund = xerrors.New("refund error")
	// ErrTransfer is an outbound custodian transfer that failed; the
	// preceding ledger mutation has been rolled back.
	ErrTransfer = xerrors.New("external transfer failed")
)
