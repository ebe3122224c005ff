package lotto

import (
	"github.com/ceyhunalp/tombola/ledger"
	"github.com/ceyhunalp/tombola/merkle"
	"github.com/ceyhunalp/tombola/sys"
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/onet/v3"
	"go.dedis.ch/onet/v3/network"
)

func init() {
	network.RegisterMessages(
		&InitUnitRequest{}, &InitUnitReply{},
		&CreateRoundRequest{}, &CreateRoundReply{},
		&SetPuzzleAnswerRequest{}, &SetPuzzleAnswerReply{},
		&ConfigurePrizeSlotsRequest{}, &ConfigurePrizeSlotsReply{},
		&OpenRoundRequest{}, &OpenRoundReply{},
		&CloseRoundRequest{}, &CloseRoundReply{},
		&TakeSnapshotRequest{}, &TakeSnapshotReply{},
		&CommitParticipantRootRequest{}, &CommitParticipantRootReply{},
		&RequestRandomnessRequest{}, &RequestRandomnessReply{},
		&FulfillRandomnessRequest{}, &FulfillRandomnessReply{},
		&CommitWinnerRootRequest{}, &CommitWinnerRootReply{},
		&FinalizeRoundRequest{}, &FinalizeRoundReply{},
		&SetDenylistRequest{}, &SetDenylistReply{},
		&PauseRequest{}, &PauseReply{},
		&PlaceWagerRequest{}, &PlaceWagerReply{},
		&SubmitProofRequest{}, &SubmitProofReply{},
		&ClaimRequest{}, &ClaimReply{},
		&WithdrawRefundRequest{}, &WithdrawRefundReply{},
		&GetRoundRequest{}, &GetRoundReply{},
		&GetParticipantRequest{}, &GetParticipantReply{},
		&GetRefundBalanceRequest{}, &GetRefundBalanceReply{},
		&GetEventsRequest{}, &GetEventsReply{},
	)
}

// InitUnit bootstraps the service with its configuration and the owner key.

type InitUnitRequest struct {
	Roster *onet.Roster
	Owner  kyber.Point
	Cfg    *sys.UnitConfig
}

type InitUnitReply struct{}

// Privileged operations carry the owner's schnorr signature over the
// operation digest (utils.OpDigest).

type CreateRoundRequest struct {
	Start int64
	End   int64
	Sig   []byte
}

type CreateRoundReply struct {
	RoundID uint64
}

type SetPuzzleAnswerRequest struct {
	Round uint64
	Hash  []byte
	Sig   []byte
}

type SetPuzzleAnswerReply struct{}

type ConfigurePrizeSlotsRequest struct {
	Round    uint64
	AssetIDs []string
	Sig      []byte
}

type ConfigurePrizeSlotsReply struct{}

type OpenRoundRequest struct {
	Round uint64
	Sig   []byte
}

type OpenRoundReply struct{}

type CloseRoundRequest struct {
	Round uint64
	Sig   []byte
}

type CloseRoundReply struct {
	// Refunded reports whether the round fell below the minimum ticket
	// threshold and terminated with a refund batch instead of a draw.
	Refunded bool
}

type TakeSnapshotRequest struct {
	Round uint64
	Sig   []byte
}

type TakeSnapshotReply struct{}

type CommitParticipantRootRequest struct {
	Round   uint64
	Root    []byte
	FileRef string
	Sig     []byte
}

type CommitParticipantRootReply struct{}

type RequestRandomnessRequest struct {
	Round uint64
	Sig   []byte
}

type RequestRandomnessReply struct {
	RequestID []byte
}

// FulfillRandomness is the beacon's callback; the BLS signature inside
// Value is its own authentication.

type FulfillRandomnessRequest struct {
	Round     uint64
	RequestID []byte
	Value     []byte
}

type FulfillRandomnessReply struct {
	Seed []byte
}

type CommitWinnerRootRequest struct {
	Round   uint64
	Root    []byte
	FileRef string
	Sig     []byte
}

type CommitWinnerRootReply struct{}

type FinalizeRoundRequest struct {
	Round uint64
	Sig   []byte
}

type FinalizeRoundReply struct{}

type SetDenylistRequest struct {
	Wallet string
	Denied bool
	Sig    []byte
}

type SetDenylistReply struct{}

type PauseRequest struct {
	// Paused is the desired state of the circuit breaker.
	Paused bool
	Sig    []byte
}

type PauseReply struct{}

// Public write operations carry the wallet key and its schnorr signature
// over the operation digest.

type PlaceWagerRequest struct {
	Round   uint64
	Key     kyber.Point
	Tickets uint64
	Value   uint64
	Sig     []byte
}

type PlaceWagerReply struct {
	Tickets uint64
	Weight  uint64
}

type SubmitProofRequest struct {
	Round      uint64
	Key        kyber.Point
	AnswerHash []byte
	Sig        []byte
}

type SubmitProofReply struct {
	Matched bool
	Weight  uint64
}

type ClaimRequest struct {
	Round uint64
	Key   kyber.Point
	Index uint32
	Tier  uint32
	Proof *merkle.Proof
	Sig   []byte
}

type ClaimReply struct {
	AssetID string
}

type WithdrawRefundRequest struct {
	Key kyber.Point
	Sig []byte
}

type WithdrawRefundReply struct {
	Amount uint64
}

// Read surface.

type GetRoundRequest struct {
	Round uint64
}

type GetRoundReply struct {
	Round        *ledger.Round
	PendingCarry uint64
	// RandStale reports an outstanding randomness request that exceeded the
	// advisory timeout window and is worth retrying.
	RandStale bool
}

type GetParticipantRequest struct {
	Round  uint64
	Wallet string
}

type GetParticipantReply struct {
	Participant *ledger.Participant
}

type GetRefundBalanceRequest struct {
	Wallet string
}

type GetRefundBalanceReply struct {
	Balance uint64
}

type GetEventsRequest struct {
	Round uint64
}

type GetEventsReply struct {
	Events []ledger.Event
}
