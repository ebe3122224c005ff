package lotto

import (
	"github.com/ceyhunalp/tombola/utils"
	"go.dedis.ch/cothority/v3"
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/sign/schnorr"
	"golang.org/x/xerrors"
)

// Operation digests bind each signature to one specific call so that it
// cannot be replayed on another operation, round or payload. The client
// and the service compute these identically.

func createRoundDigest(start int64, end int64) []byte {
	return utils.OpDigest("create_round", 0,
		utils.Uint64Bytes(uint64(start)), utils.Uint64Bytes(uint64(end)))
}

func setPuzzleAnswerDigest(round uint64, hash []byte) []byte {
	return utils.OpDigest("set_puzzle_answer", round, hash)
}

func configurePrizeSlotsDigest(round uint64, assetIDs []string) []byte {
	fields := make([][]byte, len(assetIDs))
	for i, a := range assetIDs {
		fields[i] = utils.HashString(a)
	}
	return utils.OpDigest("configure_prize_slots", round, fields...)
}

func openRoundDigest(round uint64) []byte {
	return utils.OpDigest("open_round", round)
}

func closeRoundDigest(round uint64) []byte {
	return utils.OpDigest("close_round", round)
}

func takeSnapshotDigest(round uint64) []byte {
	return utils.OpDigest("take_snapshot", round)
}

func commitParticipantRootDigest(round uint64, root []byte, fileRef string) []byte {
	return utils.OpDigest("commit_participant_root", round, root,
		utils.HashString(fileRef))
}

func requestRandomnessDigest(round uint64) []byte {
	return utils.OpDigest("request_randomness", round)
}

func commitWinnerRootDigest(round uint64, root []byte, fileRef string) []byte {
	return utils.OpDigest("commit_winner_root", round, root,
		utils.HashString(fileRef))
}

func finalizeRoundDigest(round uint64) []byte {
	return utils.OpDigest("finalize_round", round)
}

func setDenylistDigest(wallet string, denied bool) []byte {
	flag := []byte{0}
	if denied {
		flag[0] = 1
	}
	return utils.OpDigest("set_denylist", 0, utils.HashString(wallet), flag)
}

func pauseDigest(paused bool) []byte {
	flag := []byte{0}
	if paused {
		flag[0] = 1
	}
	return utils.OpDigest("pause", 0, flag)
}

func placeWagerDigest(round uint64, tickets uint64, value uint64) []byte {
	return utils.OpDigest("place_wager", round, utils.Uint64Bytes(tickets),
		utils.Uint64Bytes(value))
}

func submitProofDigest(round uint64, answerHash []byte) []byte {
	return utils.OpDigest("submit_proof", round, answerHash)
}

func claimDigest(round uint64, index uint32, tier uint32) []byte {
	return utils.OpDigest("claim", round, utils.Uint32Bytes(index),
		utils.Uint32Bytes(tier))
}

func withdrawRefundDigest() []byte {
	return utils.OpDigest("withdraw_refund", 0)
}

func verifySig(pub kyber.Point, digest []byte, sig []byte) error {
	if pub == nil {
		return xerrors.New("missing public key")
	}
	if err := schnorr.Verify(cothority.Suite, pub, digest, sig); err != nil {
		return xerrors.Errorf("cannot verify signature: %v", err)
	}
	return nil
}
