package ledger

import (
	"golang.org/x/xerrors"
)

// PlaceWager escrows value for one of the priced ticket bundles. Only while
// the round is Open and the ledger is not paused; denylisted wallets are
// rejected. The value must match the bundle price exactly. Per-wallet and
// per-round caps are enforced before any state changes.
func (l *Ledger) PlaceWager(id uint64, wallet string, tickets uint64, value uint64) error {
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
	if wallet == "" {
		return xerrors.Errorf("empty wallet: %w", ErrValidation)
	}
	price, ok := l.cfg.Bundles[tickets]
	if !ok {
		return xerrors.Errorf("no bundle with %d tickets: %w", tickets,
			ErrValidation)
	}
	if value != price {
		return xerrors.Errorf("bundle of %d tickets costs %d, got %d: %w",
			tickets, price, value, ErrValidation)
	}
	p := r.Participants[wallet]
	if p == nil {
		if uint32(len(r.Participants)) >= l.cfg.RoundParticipantCap {
			return xerrors.Errorf("round %d is full (%d participants): %w",
				id, len(r.Participants), ErrCapacity)
		}
	}
	var deposited uint64
	if p != nil {
		deposited = p.Deposit
	}
	if deposited+value > l.cfg.WalletDepositCap {
		return xerrors.Errorf("wallet deposit cap %d exceeded: %w",
			l.cfg.WalletDepositCap, ErrCapacity)
	}
	if r.TotalValue+value > l.cfg.RoundValueCap {
		return xerrors.Errorf("round value cap %d exceeded: %w",
			l.cfg.RoundValueCap, ErrCapacity)
	}
	if p == nil {
		p = &Participant{Key: wallet}
		r.Participants[wallet] = p
		r.ParticipantCount++
	}
	// A wallet that already solved the puzzle keeps its boosted rate for
	// tickets bought afterwards, so weight stays tickets x 1.4 throughout.
	perTicket := WeightScale
	if p.ProofStatus == ProofSucceeded {
		perTicket = BonusWeightPerTick
	}
	added := tickets * perTicket
	p.Deposit += value
	p.Tickets += tickets
	p.Weight += added
	r.TotalTickets += tickets
	r.TotalWeight += added
	r.TotalValue += value
	r.emit(Event{Type: EvWager, Wallet: wallet, Amount: value,
		Tickets: tickets, Weight: p.Weight})
	return nil
}
