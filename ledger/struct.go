package ledger

import (
	"crypto/sha256"

	"github.com/ceyhunalp/tombola/utils"
	"go.dedis.ch/kyber/v3"
)

// Status is the round lifecycle phase. Transitions are each a distinct
// privileged operation; none may be skipped or reversed.
type Status uint32

const (
	Created Status = iota
	Open
	Closed
	Snapshot
	RandomnessRequested
	RandomnessFulfilled
	WinnersCommitted
	Finalized
	Refunded
)

func (s Status) String() string {
	switch s {
	case Created:
		return "created"
	case Open:
		return "open"
	case Closed:
		return "closed"
	case Snapshot:
		return "snapshot"
	case RandomnessRequested:
		return "randomness_requested"
	case RandomnessFulfilled:
		return "randomness_fulfilled"
	case WinnersCommitted:
		return "winners_committed"
	case Finalized:
		return "finalized"
	case Refunded:
		return "refunded"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can leave this status.
func (s Status) Terminal() bool {
	return s == Finalized || s == Refunded
}

// Amounts are in nanocoins (1 coin = 1e9). Weights are in tenths of a
// ticket so the 1.4x proof bonus stays exact integer arithmetic: one plain
// ticket carries 10 weight units, one boosted ticket carries 14.
const (
	WeightScale        uint64 = 10
	BonusWeightPerTick uint64 = 14
	NumPrizeSlots             = 10
	MinTicketThreshold uint64 = 10
)

// Proof attempt status for a participant.
const (
	ProofNone uint32 = iota
	ProofSucceeded
	ProofFailed
)

// PrizeSlot binds one of the ten prize positions to an externally-custodied
// asset. Configured before a round opens, immutable afterwards.
type PrizeSlot struct {
	Index   uint32
	AssetID string
}

// ProofAttempt is the write-once record of a wallet's single puzzle-proof
// submission in a round.
type ProofAttempt struct {
	AnswerHash  []byte
	Matched     bool
	WeightDelta uint64
}

// Participant is the per-(round, wallet) accounting record.
type Participant struct {
	Key         string
	Deposit     uint64
	Tickets     uint64
	Weight      uint64
	ProofStatus uint32
	Proof       *ProofAttempt
	Claimed     uint64
}

// Event is one entry of the per-round audit log. Together with the read
// surface it carries everything an external party needs to rebuild the
// snapshot and winners files.
type Event struct {
	Type    string
	Round   uint64
	Wallet  string
	Amount  uint64
	Tickets uint64
	Weight  uint64
	Index   uint32
	Tier    uint32
	AssetID string
	Ref     []byte
	FileRef string
	When    int64
}

// Event types.
const (
	EvRoundCreated    = "round_created"
	EvRoundOpened     = "round_opened"
	EvRoundClosed     = "round_closed"
	EvSnapshotTaken   = "snapshot_taken"
	EvWager           = "wager_placed"
	EvProofAccepted   = "proof_accepted"
	EvProofRejected   = "proof_rejected"
	EvParticipantRoot = "participant_root_committed"
	EvRandRequested   = "randomness_requested"
	EvRandFulfilled   = "randomness_fulfilled"
	EvWinnerRoot      = "winner_root_committed"
	EvFeesSettled     = "fees_settled"
	EvPrizeClaimed    = "prize_claimed"
	EvRefundBatch     = "refund_batch"
	EvRefundWithdrawn = "refund_withdrawn"
	EvRoundFinalized  = "round_finalized"
)

// Round is the durable audit record of one wagering period. Rounds are
// never deleted; terminal rounds are archived by the service.
type Round struct {
	ID               uint64
	Start            int64
	End              int64
	Status           Status
	TotalTickets     uint64
	TotalWeight      uint64
	TotalValue       uint64
	CarryIn          uint64
	ParticipantCount uint32
	AnswerCommit     []byte
	Participants     map[string]*Participant
	PrizeSlots       []PrizeSlot
	ParticipantRoot  []byte
	ParticipantFile  string
	WinnerRoot       []byte
	WinnerFile       string
	RandRequestID    []byte
	RandRequestedAt  int64
	RandAttempts     uint32
	Seed             []byte
	FeesSettled      bool
	Claims           []string
	Events           []Event
}

// State is everything the ledger persists. The service protobuf-encodes it
// on every mutation.
type State struct {
	NextID       uint64
	Rounds       map[uint64]*Round
	Refunds      map[string]uint64
	Denylist     map[string]bool
	Paused       bool
	PendingCarry uint64
}

// Config is the engine configuration, fixed at construction.
type Config struct {
	// Beneficiary receives the operator share of each settlement.
	Beneficiary string
	// OraclePublic verifies randomness fulfillments (bn256 BLS).
	OraclePublic kyber.Point
	// Bundles maps a permitted ticket count to its exact price.
	Bundles map[uint64]uint64
	// WalletDepositCap bounds a wallet's cumulative deposit per round.
	WalletDepositCap uint64
	// RoundValueCap bounds the total escrowed value per round.
	RoundValueCap uint64
	// RoundParticipantCap bounds the number of distinct wallets per round.
	RoundParticipantCap uint32
	// FeePct is the beneficiary share of the settlement, in percent.
	FeePct uint64
	// RandRetryGap is the minimum interval between randomness requests,
	// in seconds.
	RandRetryGap int64
	// RandTimeout is the advisory fulfillment window, in seconds.
	RandTimeout int64
}

// Custodian performs the outbound transfers the ledger never does itself:
// prize assets on claims, value on refunds and fee payouts. Implementations
// are called only after all ledger state for the operation is finalized.
type Custodian interface {
	TransferAsset(assetID string, wallet string) error
	PayValue(wallet string, amount uint64) error
}

// ParticipantLeaf is the leaf encoding of the participant-set commitment:
// hash of the wallet key and its effective weight.
func ParticipantLeaf(key string, weight uint64) []byte {
	h := sha256.New()
	h.Write([]byte(key))
	h.Write(utils.Uint64Bytes(weight))
	return h.Sum(nil)
}

// WinnerLeaf is the leaf encoding of the winner-set commitment: hash of the
// wallet key, the prize tier and the prize index.
func WinnerLeaf(key string, tier uint32, index uint32) []byte {
	h := sha256.New()
	h.Write([]byte(key))
	h.Write(utils.Uint32Bytes(tier))
	h.Write(utils.Uint32Bytes(index))
	return h.Sum(nil)
}
