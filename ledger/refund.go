package ledger

import (
	"golang.org/x/xerrors"
)

// refundAll moves every participant's deposit into the pull-payment refund
// ledger and terminates the round as Refunded. Totals are zeroed and the
// carried-in pool rolls forward to the next round untouched.
func (l *Ledger) refundAll(r *Round) {
	var refunded uint64
	for key, p := range r.Participants {
		l.st.Refunds[key] += p.Deposit
		refunded += p.Deposit
	}
	l.st.PendingCarry += r.CarryIn
	r.CarryIn = 0
	r.TotalTickets = 0
	r.TotalWeight = 0
	r.TotalValue = 0
	r.Status = Refunded
	r.emit(Event{Type: EvRefundBatch, Amount: refunded,
		Tickets: uint64(len(r.Participants))})
}

// WithdrawRefund pays out the wallet's accrued refund balance. The balance
// is zeroed before the outbound transfer and restored when the transfer
// fails, so a withdrawal can never be applied twice.
func (l *Ledger) WithdrawRefund(wallet string) (uint64, error) {
	bal := l.st.Refunds[wallet]
	if bal == 0 {
		return 0, xerrors.Errorf("wallet %s has no refund balance: %w",
			wallet, ErrRefund)
	}
	delete(l.st.Refunds, wallet)
	if err := l.cust.PayValue(wallet, bal); err != nil {
		l.st.Refunds[wallet] = bal
		return 0, xerrors.Errorf("refund payout: %v: %w", err, ErrTransfer)
	}
	// The withdrawal event lands on the most recent round the wallet took
	// part in only when one exists; the balance itself is cross-round.
	for id := l.st.NextID - 1; id >= 1; id-- {
		r, ok := l.st.Rounds[id]
		if !ok {
			break
		}
		if _, in := r.Participants[wallet]; in {
			r.emit(Event{Type: EvRefundWithdrawn, Wallet: wallet, Amount: bal})
			break
		}
	}
	return bal, nil
}
