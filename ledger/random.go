package ledger

import (
	"bytes"
	"crypto/sha256"

	"github.com/ceyhunalp/tombola/utils"
	"go.dedis.ch/kyber/v3/pairing"
	"go.dedis.ch/kyber/v3/sign/bls"
	"golang.org/x/xerrors"
)

var blsSuite = pairing.NewSuiteBn256()

// RequestRandomness asks the external beacon for the round's seed. Valid in
// Snapshot once the participant root is committed, and again from
// RandomnessRequested when the previous request has gone stale; each retry
// supersedes the outstanding request id. Requests are rate-limited by the
// configured retry gap.
func (l *Ledger) RequestRandomness(id uint64) ([]byte, error) {
	r, err := l.round(id)
	if err != nil {
		return nil, err
	}
	if r.Status != Snapshot && r.Status != RandomnessRequested {
		return nil, xerrors.Errorf("round %d is %v: %w", id, r.Status,
			ErrState)
	}
	if len(r.ParticipantRoot) == 0 {
		return nil, xerrors.Errorf("participant root not committed: %w",
			ErrState)
	}
	if r.TotalTickets == 0 {
		return nil, xerrors.Errorf("round %d has no tickets: %w", id,
			ErrState)
	}
	if l.cfg.OraclePublic == nil {
		return nil, xerrors.Errorf("no oracle configured: %w", ErrRandomness)
	}
	if r.RandRequestedAt != 0 && now()-r.RandRequestedAt < l.cfg.RandRetryGap {
		return nil, xerrors.Errorf("retry gap of %ds not elapsed: %w",
			l.cfg.RandRetryGap, ErrRandomness)
	}
	r.RandAttempts++
	h := sha256.New()
	h.Write(utils.Uint64Bytes(r.ID))
	h.Write(r.ParticipantRoot)
	h.Write(utils.Uint32Bytes(r.RandAttempts))
	r.RandRequestID = h.Sum(nil)
	r.RandRequestedAt = now()
	r.Status = RandomnessRequested
	r.emit(Event{Type: EvRandRequested, Ref: r.RandRequestID})
	return r.RandRequestID, nil
}

// FulfillRandomness is the oracle callback and the only writer of the
// round's seed. The value must be the beacon's BLS signature over the
// outstanding request id; it is accepted once, after which the seed is
// immutable. The seed itself is the hash of the signature.
func (l *Ledger) FulfillRandomness(id uint64, requestID []byte, value []byte) error {
	r, err := l.roundIn(id, RandomnessRequested)
	if err != nil {
		return err
	}
	if !bytes.Equal(requestID, r.RandRequestID) {
		return xerrors.Errorf("fulfillment for unknown request: %w",
			ErrRandomness)
	}
	if len(value) == 0 {
		return xerrors.Errorf("empty randomness value: %w", ErrRandomness)
	}
	if err := bls.Verify(blsSuite, l.cfg.OraclePublic, requestID, value); err != nil {
		return xerrors.Errorf("beacon signature does not verify: %w",
			ErrRandomness)
	}
	h := sha256.New()
	h.Write(value)
	r.Seed = h.Sum(nil)
	r.Status = RandomnessFulfilled
	r.emit(Event{Type: EvRandFulfilled, Ref: r.Seed})
	return nil
}

// RandomnessStale reports whether the outstanding request has exceeded the
// advisory timeout window. Observers use this to decide when a retry is
// warranted; the ledger itself never times out.
func (l *Ledger) RandomnessStale(id uint64) (bool, error) {
	r, err := l.round(id)
	if err != nil {
		return false, err
	}
	if r.Status != RandomnessRequested {
		return false, nil
	}
	return now()-r.RandRequestedAt > l.cfg.RandTimeout, nil
}
