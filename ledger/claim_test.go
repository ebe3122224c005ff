package ledger

import (
	"testing"

	"github.com/ceyhunalp/tombola/merkle"
	"github.com/ceyhunalp/tombola/oracle"
	"github.com/ceyhunalp/tombola/selection"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

// fulfilledRound drives a fresh round to RandomnessFulfilled.
func fulfilledRound(t *testing.T, l *Ledger, b *oracle.Beacon) uint64 {
	id := snapshotRound(t, l)
	fulfillRandomness(t, l, b, id)
	return id
}

func TestClaimPipeline(t *testing.T) {
	beacon := oracle.NewBeacon()
	l, cust := newTestLedger(t, beacon)
	id := fulfilledRound(t, l, beacon)
	winners, leaves := commitWinners(t, l, id)

	r, err := l.GetRound(id)
	require.NoError(t, err)

	for i, w := range winners {
		proof, err := merkle.Prove(leaves, i)
		require.NoError(t, err)
		require.NoError(t, l.Claim(id, w.Key, w.Index, w.Tier, proof))

		claimant, err := l.ClaimedBy(id, w.Index)
		require.NoError(t, err)
		require.Equal(t, w.Key, claimant)
		require.Equal(t, w.Key,
			cust.assets[r.PrizeSlots[w.Index].AssetID])
	}

	// Per-wallet claim counts match the wins.
	wins := make(map[string]uint64)
	for _, w := range winners {
		wins[w.Key]++
	}
	for key, n := range wins {
		p, err := l.GetParticipant(id, key)
		require.NoError(t, err)
		require.Equal(t, n, p.Claimed)
		require.LessOrEqual(t, n, p.Tickets)
	}
}

func TestClaimSlotExclusive(t *testing.T) {
	beacon := oracle.NewBeacon()
	l, _ := newTestLedger(t, beacon)
	id := fulfilledRound(t, l, beacon)
	winners, leaves := commitWinners(t, l, id)

	w := winners[0]
	proof, err := merkle.Prove(leaves, 0)
	require.NoError(t, err)
	require.NoError(t, l.Claim(id, w.Key, w.Index, w.Tier, proof))

	// The same slot cannot be claimed twice, not even by its winner.
	err = l.Claim(id, w.Key, w.Index, w.Tier, proof)
	require.True(t, xerrors.Is(err, ErrClaim))
}

func TestClaimRejectsBadProof(t *testing.T) {
	beacon := oracle.NewBeacon()
	l, _ := newTestLedger(t, beacon)
	id := fulfilledRound(t, l, beacon)
	winners, leaves := commitWinners(t, l, id)

	w := winners[0]
	proof, err := merkle.Prove(leaves, 0)
	require.NoError(t, err)

	// Wrong wallet under a valid path.
	other := "w2"
	if w.Key == "w2" {
		other = "w1"
	}
	err = l.Claim(id, other, w.Index, w.Tier, proof)
	require.True(t, xerrors.Is(err, ErrCommitment))

	// Tier must match the slot.
	err = l.Claim(id, w.Key, 0, selection.TierSilver, proof)
	require.True(t, xerrors.Is(err, ErrValidation))
	// Index must be in range.
	err = l.Claim(id, w.Key, NumPrizeSlots, selection.TierBronze, proof)
	require.True(t, xerrors.Is(err, ErrValidation))
	// Proof for another slot does not transfer.
	if len(winners) > 1 {
		err = l.Claim(id, w.Key, winners[1].Index, winners[1].Tier, proof)
		require.Error(t, err)
	}
}

func TestClaimTicketBound(t *testing.T) {
	// Hand-crafted winner set placing the 1-ticket wallet in two slots; the
	// ledger must stop its second claim at the ticket bound regardless of
	// what the committed file says.
	beacon := oracle.NewBeacon()
	l, _ := newTestLedger(t, beacon)
	id := openTestRound(t, l)
	mustWager(t, l, id, "small", 1)
	mustWager(t, l, id, "big", 10)
	require.NoError(t, l.CloseRound(id))
	require.NoError(t, l.TakeSnapshot(id))
	require.NoError(t, l.CommitParticipantRoot(id,
		ParticipantLeaf("small", 10), "participants.bin"))
	fulfillRandomness(t, l, beacon, id)

	leaves := [][]byte{
		WinnerLeaf("small", selection.TierGold, 0),
		WinnerLeaf("small", selection.TierSilver, 1),
	}
	root, err := merkle.Root(leaves)
	require.NoError(t, err)
	require.NoError(t, l.CommitWinnerRoot(id, root, "winners.bin"))

	p0, err := merkle.Prove(leaves, 0)
	require.NoError(t, err)
	p1, err := merkle.Prove(leaves, 1)
	require.NoError(t, err)

	require.NoError(t, l.Claim(id, "small", 0, selection.TierGold, p0))
	err = l.Claim(id, "small", 1, selection.TierSilver, p1)
	require.True(t, xerrors.Is(err, ErrClaim))
}

func TestClaimRollsBackOnTransferFailure(t *testing.T) {
	beacon := oracle.NewBeacon()
	l, cust := newTestLedger(t, beacon)
	id := fulfilledRound(t, l, beacon)
	winners, leaves := commitWinners(t, l, id)

	w := winners[0]
	proof, err := merkle.Prove(leaves, 0)
	require.NoError(t, err)

	cust.fail = true
	err = l.Claim(id, w.Key, w.Index, w.Tier, proof)
	require.True(t, xerrors.Is(err, ErrTransfer))

	// Slot and claim counter are untouched, so the retry succeeds.
	claimant, err := l.ClaimedBy(id, w.Index)
	require.NoError(t, err)
	require.Empty(t, claimant)
	p, err := l.GetParticipant(id, w.Key)
	require.NoError(t, err)
	require.Zero(t, p.Claimed)

	cust.fail = false
	require.NoError(t, l.Claim(id, w.Key, w.Index, w.Tier, proof))
}

func TestClaimSurvivesFinalization(t *testing.T) {
	beacon := oracle.NewBeacon()
	l, _ := newTestLedger(t, beacon)
	id := fulfilledRound(t, l, beacon)
	winners, leaves := commitWinners(t, l, id)
	require.NoError(t, l.FinalizeRound(id))

	w := winners[0]
	proof, err := merkle.Prove(leaves, 0)
	require.NoError(t, err)
	require.NoError(t, l.Claim(id, w.Key, w.Index, w.Tier, proof))
}
