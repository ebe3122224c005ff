package ledger

import (
	"github.com/ceyhunalp/tombola/merkle"
	"github.com/ceyhunalp/tombola/selection"
	"golang.org/x/xerrors"
)

// Claim delivers one prize slot to its winner. Valid once the winner root
// is committed. The Merkle proof must place (wallet, tier, index) in the
// winner set, the slot must be unclaimed and the wallet's claims this round
// must stay strictly below its ticket count. All ledger state is finalized
// before the custodian moves the prize asset; a failed transfer rolls the
// claim back.
func (l *Ledger) Claim(id uint64, wallet string, index uint32, tier uint32, proof *merkle.Proof) error {
	r, err := l.round(id)
	if err != nil {
		return err
	}
	if r.Status != WinnersCommitted && r.Status != Finalized {
		return xerrors.Errorf("round %d has no committed winners: %w", id,
			ErrState)
	}
	if l.st.Paused {
		return xerrors.Errorf("ledger is paused: %w", ErrAuthorization)
	}
	if l.st.Denylist[wallet] {
		return xerrors.Errorf("wallet %s is denylisted: %w", wallet,
			ErrAuthorization)
	}
	if index >= NumPrizeSlots {
		return xerrors.Errorf("prize index %d out of range: %w", index,
			ErrValidation)
	}
	if tier != selection.TierOf(int(index)) {
		return xerrors.Errorf("tier %d does not match slot %d: %w", tier,
			index, ErrValidation)
	}
	if r.Claims[index] != "" {
		return xerrors.Errorf("slot %d already claimed: %w", index, ErrClaim)
	}
	p, ok := r.Participants[wallet]
	if !ok {
		return xerrors.Errorf("wallet %s not in round %d: %w", wallet, id,
			ErrValidation)
	}
	if p.Claimed >= p.Tickets {
		return xerrors.Errorf("wallet %s exhausted its %d claims: %w",
			wallet, p.Tickets, ErrClaim)
	}
	if !merkle.Verify(r.WinnerRoot, WinnerLeaf(wallet, tier, index), proof) {
		return xerrors.Errorf("winner proof does not verify: %w",
			ErrCommitment)
	}
	r.Claims[index] = wallet
	p.Claimed++
	asset := r.PrizeSlots[index].AssetID
	if err := l.cust.TransferAsset(asset, wallet); err != nil {
		r.Claims[index] = ""
		p.Claimed--
		return xerrors.Errorf("prize transfer: %v: %w", err, ErrTransfer)
	}
	r.emit(Event{Type: EvPrizeClaimed, Wallet: wallet, Index: index,
		Tier: tier, AssetID: asset})
	return nil
}

// ClaimedBy returns the claimant of a prize slot, or the empty string.
func (l *Ledger) ClaimedBy(id uint64, index uint32) (string, error) {
	r, err := l.round(id)
	if err != nil {
		return "", err
	}
	if index >= NumPrizeSlots {
		return "", xerrors.Errorf("prize index %d out of range: %w", index,
			ErrValidation)
	}
	return r.Claims[index], nil
}
