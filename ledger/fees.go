package ledger

import (
	"golang.org/x/xerrors"
)

// settleFees splits the round's escrowed pool between the operator
// beneficiary (paid out through the custodian) and the next round's
// carried-forward pool (a ledger increment, no transfer). The FeesSettled
// flag makes the settlement idempotent.
func (l *Ledger) settleFees(r *Round) error {
	if r.FeesSettled {
		return xerrors.Errorf("round %d fees already settled: %w", r.ID,
			ErrState)
	}
	pool := r.TotalValue + r.CarryIn
	fee := pool * l.cfg.FeePct / 100
	carry := pool - fee
	r.FeesSettled = true
	l.st.PendingCarry += carry
	if fee > 0 {
		if err := l.cust.PayValue(l.cfg.Beneficiary, fee); err != nil {
			r.FeesSettled = false
			l.st.PendingCarry -= carry
			return xerrors.Errorf("beneficiary payout: %v: %w", err,
				ErrTransfer)
		}
	}
	r.emit(Event{Type: EvFeesSettled, Wallet: l.cfg.Beneficiary,
		Amount: fee, Weight: carry})
	return nil
}
