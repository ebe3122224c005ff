package ledger

import (
	"bytes"

	"golang.org/x/xerrors"
)

// SubmitProof consumes the wallet's single puzzle-proof attempt for the
// round. The caller must already hold at least one ticket. On a match the
// wallet's weight is recomputed as tickets x 1.4 (the bonus never stacks
// and is hard-capped at +40%); on a mismatch the attempt is still spent.
func (l *Ledger) SubmitProof(id uint64, wallet string, answerHash []byte) error {
	r, err := l.roundIn(id, Open)
	if err != nil {
		return err
	}
	if l.st.Paused {
		return xerrors.Errorf("ledger is paused: %w", ErrAuthorization)
	}
	if l.st.Denylist[wallet] {
		return xerrors.Errorf("wallet %s is denylisted: %w", wallet,
			ErrAuthorization)
	}
	if len(answerHash) == 0 {
		return xerrors.Errorf("empty answer hash: %w", ErrValidation)
	}
	p, ok := r.Participants[wallet]
	if !ok || p.Tickets == 0 {
		return xerrors.Errorf("wallet %s holds no tickets in round %d: %w",
			wallet, id, ErrValidation)
	}
	if p.ProofStatus != ProofNone {
		return xerrors.Errorf("wallet %s already attempted a proof: %w",
			wallet, ErrState)
	}
	if !bytes.Equal(answerHash, r.AnswerCommit) {
		p.ProofStatus = ProofFailed
		p.Proof = &ProofAttempt{AnswerHash: answerHash, Matched: false}
		r.emit(Event{Type: EvProofRejected, Wallet: wallet})
		return nil
	}
	boosted := p.Tickets * BonusWeightPerTick
	delta := boosted - p.Weight
	p.Weight = boosted
	p.ProofStatus = ProofSucceeded
	p.Proof = &ProofAttempt{AnswerHash: answerHash, Matched: true,
		WeightDelta: delta}
	r.TotalWeight += delta
	r.emit(Event{Type: EvProofAccepted, Wallet: wallet, Weight: p.Weight,
		Amount: delta})
	return nil
}
