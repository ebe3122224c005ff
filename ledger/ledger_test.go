package ledger

import (
	"sort"
	"testing"

	"github.com/ceyhunalp/tombola/merkle"
	"github.com/ceyhunalp/tombola/oracle"
	"github.com/ceyhunalp/tombola/selection"
	"github.com/ceyhunalp/tombola/utils"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

// Bundle prices used throughout the tests: 0.005 coins for a single
// ticket, 0.0225 for the 5-bundle, 0.04 for the 10-bundle.
const (
	priceSingle = 5_000_000
	priceFive   = 22_500_000
	priceTen    = 40_000_000
)

var testAnswer = utils.HashString("what walks on four legs in the morning")

type recordingCustodian struct {
	assets   map[string]string
	payments map[string]uint64
	fail     bool
}

func newRecordingCustodian() *recordingCustodian {
	return &recordingCustodian{
		assets:   make(map[string]string),
		payments: make(map[string]uint64),
	}
}

func (c *recordingCustodian) TransferAsset(assetID string, wallet string) error {
	if c.fail {
		return xerrors.New("custody offline")
	}
	c.assets[assetID] = wallet
	return nil
}

func (c *recordingCustodian) PayValue(wallet string, amount uint64) error {
	if c.fail {
		return xerrors.New("custody offline")
	}
	c.payments[wallet] += amount
	return nil
}

func testConfig(b *oracle.Beacon) Config {
	cfg := Config{
		Beneficiary: "operator",
		Bundles: map[uint64]uint64{
			1:  priceSingle,
			5:  priceFive,
			10: priceTen,
		},
		WalletDepositCap:    100_000_000,
		RoundValueCap:       2_000_000_000,
		RoundParticipantCap: 64,
		FeePct:              80,
		RandRetryGap:        0,
		RandTimeout:         300,
	}
	if b != nil {
		cfg.OraclePublic = b.Public()
	}
	return cfg
}

func newTestLedger(t *testing.T, b *oracle.Beacon) (*Ledger, *recordingCustodian) {
	cust := newRecordingCustodian()
	return NewLedger(testConfig(b), cust), cust
}

func testAssets() []string {
	assets := make([]string, NumPrizeSlots)
	for i := range assets {
		assets[i] = "asset-" + string(rune('a'+i))
	}
	return assets
}

// openTestRound creates, configures and opens a fresh round.
func openTestRound(t *testing.T, l *Ledger) uint64 {
	id, err := l.CreateRound(1000, 2000)
	require.NoError(t, err)
	require.NoError(t, l.SetPuzzleAnswer(id, testAnswer))
	require.NoError(t, l.ConfigurePrizeSlots(id, testAssets()))
	require.NoError(t, l.OpenRound(id))
	return id
}

func mustWager(t *testing.T, l *Ledger, id uint64, wallet string, tickets uint64) {
	price := map[uint64]uint64{1: priceSingle, 5: priceFive, 10: priceTen}
	require.NoError(t, l.PlaceWager(id, wallet, tickets, price[tickets]))
}

// checkWeightInvariant asserts sum(participant.Weight) == round.TotalWeight.
func checkWeightInvariant(t *testing.T, l *Ledger, id uint64) {
	r, err := l.GetRound(id)
	require.NoError(t, err)
	var sum uint64
	for _, p := range r.Participants {
		sum += p.Weight
	}
	require.Equal(t, r.TotalWeight, sum)
}

// snapshotEntries converts the frozen participant set into the canonical
// draw input, sorted by wallet key like the published file.
func snapshotEntries(t *testing.T, l *Ledger, id uint64) []selection.Entry {
	r, err := l.GetRound(id)
	require.NoError(t, err)
	var entries []selection.Entry
	for _, p := range r.Participants {
		entries = append(entries, selection.Entry{
			Key: p.Key, Weight: p.Weight, Tickets: p.Tickets})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
	return entries
}

// fulfillRandomness drives a Snapshot round through the gateway using the
// given beacon.
func fulfillRandomness(t *testing.T, l *Ledger, b *oracle.Beacon, id uint64) {
	reqID, err := l.RequestRandomness(id)
	require.NoError(t, err)
	value, err := b.Fulfill(reqID)
	require.NoError(t, err)
	require.NoError(t, l.FulfillRandomness(id, reqID, value))
}

// commitWinners runs the draw off-ledger and commits the winner root,
// returning the winners and the leaves the claims will prove against.
func commitWinners(t *testing.T, l *Ledger, id uint64) ([]selection.Winner, [][]byte) {
	r, err := l.GetRound(id)
	require.NoError(t, err)
	winners, err := selection.Draw(snapshotEntries(t, l, id), r.Seed)
	require.NoError(t, err)
	leaves := make([][]byte, len(winners))
	for i, w := range winners {
		leaves[i] = WinnerLeaf(w.Key, w.Tier, w.Index)
	}
	root, err := merkle.Root(leaves)
	require.NoError(t, err)
	require.NoError(t, l.CommitWinnerRoot(id, root, "winners-1.bin"))
	return winners, leaves
}

func TestLifecycleHappyPath(t *testing.T) {
	beacon := oracle.NewBeacon()
	l, cust := newTestLedger(t, beacon)
	id := openTestRound(t, l)

	mustWager(t, l, id, "w1", 5)
	mustWager(t, l, id, "w2", 10)
	mustWager(t, l, id, "w3", 1)
	checkWeightInvariant(t, l, id)

	require.NoError(t, l.SubmitProof(id, "w1", testAnswer))
	checkWeightInvariant(t, l, id)

	require.NoError(t, l.CloseRound(id))
	r, err := l.GetRound(id)
	require.NoError(t, err)
	require.Equal(t, Closed, r.Status)

	require.NoError(t, l.TakeSnapshot(id))
	require.NoError(t, l.CommitParticipantRoot(id, utils.HashString("snap"),
		"participants-1.bin"))
	fulfillRandomness(t, l, beacon, id)

	r, err = l.GetRound(id)
	require.NoError(t, err)
	require.Equal(t, RandomnessFulfilled, r.Status)
	require.NotEmpty(t, r.Seed)

	winners, _ := commitWinners(t, l, id)
	require.NotEmpty(t, winners)

	r, err = l.GetRound(id)
	require.NoError(t, err)
	require.Equal(t, WinnersCommitted, r.Status)
	require.True(t, r.FeesSettled)
	require.NotZero(t, cust.payments["operator"])

	require.NoError(t, l.FinalizeRound(id))
	r, err = l.GetRound(id)
	require.NoError(t, err)
	require.Equal(t, Finalized, r.Status)

	// The next round can now be created and inherits the carry-over.
	next, err := l.CreateRound(3000, 4000)
	require.NoError(t, err)
	nr, err := l.GetRound(next)
	require.NoError(t, err)
	require.NotZero(t, nr.CarryIn)
	require.Zero(t, l.PendingCarry())
}

func TestTransitionOrderEnforced(t *testing.T) {
	beacon := oracle.NewBeacon()
	l, _ := newTestLedger(t, beacon)
	id, err := l.CreateRound(1000, 2000)
	require.NoError(t, err)

	// Cannot open without answer and prizes.
	require.True(t, xerrors.Is(l.OpenRound(id), ErrState))
	require.NoError(t, l.SetPuzzleAnswer(id, testAnswer))
	require.True(t, xerrors.Is(l.OpenRound(id), ErrState))
	require.NoError(t, l.ConfigurePrizeSlots(id, testAssets()))
	require.NoError(t, l.OpenRound(id))

	// No skipping ahead.
	require.True(t, xerrors.Is(l.TakeSnapshot(id), ErrState))
	_, err = l.RequestRandomness(id)
	require.True(t, xerrors.Is(err, ErrState))
	require.True(t, xerrors.Is(l.CommitParticipantRoot(id, []byte{1}, ""),
		ErrState))
	require.True(t, xerrors.Is(l.FinalizeRound(id), ErrState))

	// No reversing: once closed, wagers and proofs are over.
	mustWager(t, l, id, "w1", 10)
	require.NoError(t, l.CloseRound(id))
	require.True(t, xerrors.Is(l.PlaceWager(id, "w2", 1, priceSingle),
		ErrState))
	require.True(t, xerrors.Is(l.SubmitProof(id, "w1", testAnswer), ErrState))
	require.True(t, xerrors.Is(l.CloseRound(id), ErrState))

	// Configuration is immutable after creation time.
	require.True(t, xerrors.Is(l.SetPuzzleAnswer(id, testAnswer), ErrState))
	require.True(t, xerrors.Is(l.ConfigurePrizeSlots(id, testAssets()),
		ErrState))
}

func TestCreateRoundBlockedWhileActive(t *testing.T) {
	l, _ := newTestLedger(t, nil)
	id := openTestRound(t, l)
	_, err := l.CreateRound(5000, 6000)
	require.True(t, xerrors.Is(err, ErrState))

	// A refunded round is terminal and unblocks creation.
	require.NoError(t, l.CloseRound(id))
	r, err := l.GetRound(id)
	require.NoError(t, err)
	require.Equal(t, Refunded, r.Status)
	_, err = l.CreateRound(5000, 6000)
	require.NoError(t, err)
}

func TestCreateRoundValidation(t *testing.T) {
	l, _ := newTestLedger(t, nil)
	_, err := l.CreateRound(2000, 1000)
	require.True(t, xerrors.Is(err, ErrValidation))
	_, err = l.CreateRound(1000, 1000)
	require.True(t, xerrors.Is(err, ErrValidation))
}

func TestSetPuzzleAnswerWriteOnce(t *testing.T) {
	l, _ := newTestLedger(t, nil)
	id, err := l.CreateRound(1000, 2000)
	require.NoError(t, err)
	require.True(t, xerrors.Is(l.SetPuzzleAnswer(id, nil), ErrValidation))
	require.NoError(t, l.SetPuzzleAnswer(id, testAnswer))
	require.True(t, xerrors.Is(l.SetPuzzleAnswer(id, testAnswer), ErrState))
}

func TestConfigurePrizeSlotsValidation(t *testing.T) {
	l, _ := newTestLedger(t, nil)
	id, err := l.CreateRound(1000, 2000)
	require.NoError(t, err)
	require.True(t, xerrors.Is(l.ConfigurePrizeSlots(id, []string{"x"}),
		ErrValidation))
	bad := testAssets()
	bad[4] = ""
	require.True(t, xerrors.Is(l.ConfigurePrizeSlots(id, bad), ErrValidation))
	require.NoError(t, l.ConfigurePrizeSlots(id, testAssets()))
	require.True(t, xerrors.Is(l.ConfigurePrizeSlots(id, testAssets()),
		ErrState))
}

func TestEventsCarryAuditTrail(t *testing.T) {
	l, _ := newTestLedger(t, nil)
	id := openTestRound(t, l)
	mustWager(t, l, id, "w1", 5)
	require.NoError(t, l.SubmitProof(id, "w1", testAnswer))

	evs, err := l.Events(id)
	require.NoError(t, err)
	var types []string
	for _, ev := range evs {
		require.Equal(t, id, ev.Round)
		types = append(types, ev.Type)
	}
	require.Contains(t, types, EvRoundCreated)
	require.Contains(t, types, EvRoundOpened)
	require.Contains(t, types, EvWager)
	require.Contains(t, types, EvProofAccepted)
}
