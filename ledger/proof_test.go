package ledger

import (
	"testing"

	"github.com/ceyhunalp/tombola/utils"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

func TestSubmitProofBonusMath(t *testing.T) {
	l, _ := newTestLedger(t, nil)
	id := openTestRound(t, l)

	// 5 tickets at the plain rate weigh 50; the accepted proof lifts them to
	// exactly 70 (5 x 14), a 40% boost with no rounding.
	mustWager(t, l, id, "w1", 5)
	require.NoError(t, l.SubmitProof(id, "w1", testAnswer))

	p, err := l.GetParticipant(id, "w1")
	require.NoError(t, err)
	require.Equal(t, uint32(ProofSucceeded), p.ProofStatus)
	require.Equal(t, uint64(70), p.Weight)
	require.NotNil(t, p.Proof)
	require.True(t, p.Proof.Matched)
	require.Equal(t, uint64(20), p.Proof.WeightDelta)

	r, err := l.GetRound(id)
	require.NoError(t, err)
	require.Equal(t, uint64(70), r.TotalWeight)
	checkWeightInvariant(t, l, id)
}

func TestSubmitProofSingleAttempt(t *testing.T) {
	l, _ := newTestLedger(t, nil)
	id := openTestRound(t, l)
	mustWager(t, l, id, "w1", 5)
	mustWager(t, l, id, "w2", 5)

	// A mismatch consumes the attempt without error and without any weight
	// change.
	wrong := utils.HashString("not the answer")
	require.NoError(t, l.SubmitProof(id, "w1", wrong))
	p, err := l.GetParticipant(id, "w1")
	require.NoError(t, err)
	require.Equal(t, uint32(ProofFailed), p.ProofStatus)
	require.Equal(t, 5*WeightScale, p.Weight)

	// No second try, not even with the right answer.
	err = l.SubmitProof(id, "w1", testAnswer)
	require.True(t, xerrors.Is(err, ErrState))

	// A successful attempt is equally final.
	require.NoError(t, l.SubmitProof(id, "w2", testAnswer))
	err = l.SubmitProof(id, "w2", testAnswer)
	require.True(t, xerrors.Is(err, ErrState))
	checkWeightInvariant(t, l, id)
}

func TestSubmitProofRequiresTickets(t *testing.T) {
	l, _ := newTestLedger(t, nil)
	id := openTestRound(t, l)

	err := l.SubmitProof(id, "ghost", testAnswer)
	require.True(t, xerrors.Is(err, ErrValidation))
	err = l.SubmitProof(id, "ghost", nil)
	require.True(t, xerrors.Is(err, ErrValidation))
}

func TestSubmitProofPausedAndDenylisted(t *testing.T) {
	l, _ := newTestLedger(t, nil)
	id := openTestRound(t, l)
	mustWager(t, l, id, "w1", 1)

	l.Pause()
	err := l.SubmitProof(id, "w1", testAnswer)
	require.True(t, xerrors.Is(err, ErrAuthorization))
	l.Unpause()

	l.SetDenylist("w1", true)
	err = l.SubmitProof(id, "w1", testAnswer)
	require.True(t, xerrors.Is(err, ErrAuthorization))
	l.SetDenylist("w1", false)

	// The blocked calls did not consume the attempt.
	require.NoError(t, l.SubmitProof(id, "w1", testAnswer))
}
