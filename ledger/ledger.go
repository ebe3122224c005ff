// Package ledger implements the value-escrow lottery ledger engine: the
// round state machine, wager and weight accounting, puzzle-proof
// validation, the randomness gateway, Merkle commitments, pull-payment
// claims and refunds, and fee settlement. The engine is a single
// sequentially-consistent state machine; the caller (the lotto service)
// serializes access. Every operation validates first, mutates the ledger
// second and performs outbound custodian calls last, rolling the mutation
// back when the transfer fails.
package ledger

import (
	"time"

	"golang.org/x/xerrors"
)

type Ledger struct {
	cfg  Config
	cust Custodian
	st   *State
}

// NewLedger creates an engine with a fresh state.
func NewLedger(cfg Config, cust Custodian) *Ledger {
	return &Ledger{
		cfg:  cfg,
		cust: cust,
		st: &State{
			NextID:   1,
			Rounds:   make(map[uint64]*Round),
			Refunds:  make(map[string]uint64),
			Denylist: make(map[string]bool),
		},
	}
}

// RestoreLedger rebuilds an engine around previously persisted state.
func RestoreLedger(cfg Config, cust Custodian, st *State) *Ledger {
	return &Ledger{cfg: cfg, cust: cust, st: st}
}

// State exposes the persistable state for the service's save path.
func (l *Ledger) State() *State {
	return l.st
}

func now() int64 {
	return time.Now().Unix()
}

func (l *Ledger) round(id uint64) (*Round, error) {
	r, ok := l.st.Rounds[id]
	if !ok {
		return nil, xerrors.Errorf("round %d: %w", id, ErrValidation)
	}
	return r, nil
}

func (l *Ledger) roundIn(id uint64, want Status) (*Round, error) {
	r, err := l.round(id)
	if err != nil {
		return nil, err
	}
	if r.Status != want {
		return nil, xerrors.Errorf("round %d is %v, want %v: %w", id,
			r.Status, want, ErrState)
	}
	return r, nil
}

func (r *Round) emit(ev Event) {
	ev.Round = r.ID
	ev.When = now()
	r.Events = append(r.Events, ev)
}

// CreateRound opens the bookkeeping for a new round. The previous round
// must be terminal. Any pending carry-over from the last settlement is
// credited into the new round's pool.
func (l *Ledger) CreateRound(start int64, end int64) (uint64, error) {
	if end <= start {
		return 0, xerrors.Errorf("round end %d not after start %d: %w",
			end, start, ErrValidation)
	}
	if l.st.NextID > 1 {
		prev := l.st.Rounds[l.st.NextID-1]
		if prev != nil && !prev.Status.Terminal() {
			return 0, xerrors.Errorf("round %d is still %v: %w", prev.ID,
				prev.Status, ErrState)
		}
	}
	id := l.st.NextID
	l.st.NextID++
	r := &Round{
		ID:           id,
		Start:        start,
		End:          end,
		Status:       Created,
		CarryIn:      l.st.PendingCarry,
		Participants: make(map[string]*Participant),
		Claims:       make([]string, NumPrizeSlots),
	}
	l.st.PendingCarry = 0
	l.st.Rounds[id] = r
	r.emit(Event{Type: EvRoundCreated, Amount: r.CarryIn})
	return id, nil
}

// SetPuzzleAnswer records the owner's answer commitment. Write-once, only
// before the round opens.
func (l *Ledger) SetPuzzleAnswer(id uint64, hash []byte) error {
	r, err := l.roundIn(id, Created)
	if err != nil {
		return err
	}
	if len(hash) == 0 {
		return xerrors.Errorf("empty answer commitment: %w", ErrValidation)
	}
	if len(r.AnswerCommit) != 0 {
		return xerrors.Errorf("answer commitment already set: %w", ErrState)
	}
	r.AnswerCommit = hash
	return nil
}

// ConfigurePrizeSlots binds the ten prize assets. Write-once, only before
// the round opens.
func (l *Ledger) ConfigurePrizeSlots(id uint64, assetIDs []string) error {
	r, err := l.roundIn(id, Created)
	if err != nil {
		return err
	}
	if len(assetIDs) != NumPrizeSlots {
		return xerrors.Errorf("want %d prize assets, got %d: %w",
			NumPrizeSlots, len(assetIDs), ErrValidation)
	}
	if len(r.PrizeSlots) != 0 {
		return xerrors.Errorf("prize slots already configured: %w", ErrState)
	}
	slots := make([]PrizeSlot, NumPrizeSlots)
	for i, asset := range assetIDs {
		if asset == "" {
			return xerrors.Errorf("empty asset id at slot %d: %w", i,
				ErrValidation)
		}
		slots[i] = PrizeSlot{Index: uint32(i), AssetID: asset}
	}
	r.PrizeSlots = slots
	return nil
}

// OpenRound transitions Created -> Open. The answer commitment and the
// prize slots must be in place.
func (l *Ledger) OpenRound(id uint64) error {
	r, err := l.roundIn(id, Created)
	if err != nil {
		return err
	}
	if len(r.AnswerCommit) == 0 {
		return xerrors.Errorf("no answer commitment: %w", ErrState)
	}
	if len(r.PrizeSlots) != NumPrizeSlots {
		return xerrors.Errorf("prize slots not configured: %w", ErrState)
	}
	r.Status = Open
	r.emit(Event{Type: EvRoundOpened})
	return nil
}

// CloseRound transitions Open -> Closed, or directly to the terminal
// Refunded state when the round missed the minimum ticket threshold. In
// the refund case every participant's full deposit is accrued into the
// pull-payment refund ledger, the totals are zeroed and no fee is taken.
func (l *Ledger) CloseRound(id uint64) error {
	r, err := l.roundIn(id, Open)
	if err != nil {
		return err
	}
	if r.TotalTickets < MinTicketThreshold {
		l.refundAll(r)
		return nil
	}
	r.Status = Closed
	r.emit(Event{Type: EvRoundClosed, Tickets: r.TotalTickets,
		Weight: r.TotalWeight, Amount: r.TotalValue})
	return nil
}

// TakeSnapshot transitions Closed -> Snapshot and freezes the round
// totals; nothing recomputes them afterwards.
func (l *Ledger) TakeSnapshot(id uint64) error {
	r, err := l.roundIn(id, Closed)
	if err != nil {
		return err
	}
	r.Status = Snapshot
	r.emit(Event{Type: EvSnapshotTaken, Tickets: r.TotalTickets,
		Weight: r.TotalWeight})
	return nil
}

// FinalizeRound transitions WinnersCommitted -> Finalized. Claims remain
// open; the transition only unblocks creation of the next round.
func (l *Ledger) FinalizeRound(id uint64) error {
	r, err := l.roundIn(id, WinnersCommitted)
	if err != nil {
		return err
	}
	r.Status = Finalized
	r.emit(Event{Type: EvRoundFinalized})
	return nil
}

// SetDenylist flips a wallet's denylist entry.
func (l *Ledger) SetDenylist(wallet string, denied bool) {
	if denied {
		l.st.Denylist[wallet] = true
	} else {
		delete(l.st.Denylist, wallet)
	}
}

// Pause blocks all public writes until Unpause.
func (l *Ledger) Pause()   { l.st.Paused = true }
func (l *Ledger) Unpause() { l.st.Paused = false }
func (l *Ledger) Paused() bool {
	return l.st.Paused
}

// Read surface.

// GetRound returns the round record.
func (l *Ledger) GetRound(id uint64) (*Round, error) {
	return l.round(id)
}

// GetParticipant returns the per-round record of a wallet.
func (l *Ledger) GetParticipant(id uint64, wallet string) (*Participant, error) {
	r, err := l.round(id)
	if err != nil {
		return nil, err
	}
	p, ok := r.Participants[wallet]
	if !ok {
		return nil, xerrors.Errorf("wallet %s not in round %d: %w", wallet,
			id, ErrValidation)
	}
	return p, nil
}

// RefundBalance returns a wallet's accrued refundable amount.
func (l *Ledger) RefundBalance(wallet string) uint64 {
	return l.st.Refunds[wallet]
}

// Events returns the round's audit log.
func (l *Ledger) Events(id uint64) ([]Event, error) {
	r, err := l.round(id)
	if err != nil {
		return nil, err
	}
	return r.Events, nil
}

// PendingCarry returns the carried-forward pool awaiting the next round.
func (l *Ledger) PendingCarry() uint64 {
	return l.st.PendingCarry
}

// Denylisted reports whether a wallet is barred from participating.
func (l *Ledger) Denylisted(wallet string) bool {
	return l.st.Denylist[wallet]
}
