package lotto

import (
	"github.com/ceyhunalp/tombola/merkle"
	"github.com/ceyhunalp/tombola/sys"
	"go.dedis.ch/cothority/v3"
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/sign/schnorr"
	"go.dedis.ch/kyber/v3/util/key"
	"go.dedis.ch/onet/v3"
)

// Client is the API to the tombola ledger service.
type Client struct {
	*onet.Client
	roster *onet.Roster
}

// NewClient instantiates a new lotto.Client.
func NewClient(r *onet.Roster) *Client {
	return &Client{Client: onet.NewClient(cothority.Suite, ServiceName),
		roster: r}
}

func (c *Client) sign(kp *key.Pair, digest []byte) ([]byte, error) {
	return schnorr.Sign(cothority.Suite, kp.Private, digest)
}

// InitUnit bootstraps the service with the owner key and configuration.
func (c *Client) InitUnit(owner kyber.Point, cfg *sys.UnitConfig) (*InitUnitReply, error) {
	req := &InitUnitRequest{Roster: c.roster, Owner: owner, Cfg: cfg}
	reply := &InitUnitReply{}
	err := c.SendProtobuf(c.roster.List[0], req, reply)
	return reply, err
}

func (c *Client) CreateRound(owner *key.Pair, start int64, end int64) (*CreateRoundReply, error) {
	sig, err := c.sign(owner, createRoundDigest(start, end))
	if err != nil {
		return nil, err
	}
	reply := &CreateRoundReply{}
	err = c.SendProtobuf(c.roster.List[0],
		&CreateRoundRequest{Start: start, End: end, Sig: sig}, reply)
	return reply, err
}

func (c *Client) SetPuzzleAnswer(owner *key.Pair, round uint64, hash []byte) (*SetPuzzleAnswerReply, error) {
	sig, err := c.sign(owner, setPuzzleAnswerDigest(round, hash))
	if err != nil {
		return nil, err
	}
	reply := &SetPuzzleAnswerReply{}
	err = c.SendProtobuf(c.roster.List[0],
		&SetPuzzleAnswerRequest{Round: round, Hash: hash, Sig: sig}, reply)
	return reply, err
}

func (c *Client) ConfigurePrizeSlots(owner *key.Pair, round uint64, assetIDs []string) (*ConfigurePrizeSlotsReply, error) {
	sig, err := c.sign(owner, configurePrizeSlotsDigest(round, assetIDs))
	if err != nil {
		return nil, err
	}
	reply := &ConfigurePrizeSlotsReply{}
	err = c.SendProtobuf(c.roster.List[0], &ConfigurePrizeSlotsRequest{
		Round: round, AssetIDs: assetIDs, Sig: sig}, reply)
	return reply, err
}

func (c *Client) OpenRound(owner *key.Pair, round uint64) (*OpenRoundReply, error) {
	sig, err := c.sign(owner, openRoundDigest(round))
	if err != nil {
		return nil, err
	}
	reply := &OpenRoundReply{}
	err = c.SendProtobuf(c.roster.List[0],
		&OpenRoundRequest{Round: round, Sig: sig}, reply)
	return reply, err
}

func (c *Client) CloseRound(owner *key.Pair, round uint64) (*CloseRoundReply, error) {
	sig, err := c.sign(owner, closeRoundDigest(round))
	if err != nil {
		return nil, err
	}
	reply := &CloseRoundReply{}
	err = c.SendProtobuf(c.roster.List[0],
		&CloseRoundRequest{Round: round, Sig: sig}, reply)
	return reply, err
}

func (c *Client) TakeSnapshot(owner *key.Pair, round uint64) (*TakeSnapshotReply, error) {
	sig, err := c.sign(owner, takeSnapshotDigest(round))
	if err != nil {
		return nil, err
	}
	reply := &TakeSnapshotReply{}
	err = c.SendProtobuf(c.roster.List[0],
		&TakeSnapshotRequest{Round: round, Sig: sig}, reply)
	return reply, err
}

func (c *Client) CommitParticipantRoot(owner *key.Pair, round uint64, root []byte, fileRef string) (*CommitParticipantRootReply, error) {
	sig, err := c.sign(owner, commitParticipantRootDigest(round, root, fileRef))
	if err != nil {
		return nil, err
	}
	reply := &CommitParticipantRootReply{}
	err = c.SendProtobuf(c.roster.List[0], &CommitParticipantRootRequest{
		Round: round, Root: root, FileRef: fileRef, Sig: sig}, reply)
	return reply, err
}

func (c *Client) RequestRandomness(owner *key.Pair, round uint64) (*RequestRandomnessReply, error) {
	sig, err := c.sign(owner, requestRandomnessDigest(round))
	if err != nil {
		return nil, err
	}
	reply := &RequestRandomnessReply{}
	err = c.SendProtobuf(c.roster.List[0],
		&RequestRandomnessRequest{Round: round, Sig: sig}, reply)
	return reply, err
}

// FulfillRandomness relays the beacon's output; the BLS signature is its
// own authentication.
func (c *Client) FulfillRandomness(round uint64, requestID []byte, value []byte) (*FulfillRandomnessReply, error) {
	reply := &FulfillRandomnessReply{}
	err := c.SendProtobuf(c.roster.List[0], &FulfillRandomnessRequest{
		Round: round, RequestID: requestID, Value: value}, reply)
	return reply, err
}

func (c *Client) CommitWinnerRoot(owner *key.Pair, round uint64, root []byte, fileRef string) (*CommitWinnerRootReply, error) {
	sig, err := c.sign(owner, commitWinnerRootDigest(round, root, fileRef))
	if err != nil {
		return nil, err
	}
	reply := &CommitWinnerRootReply{}
	err = c.SendProtobuf(c.roster.List[0], &CommitWinnerRootRequest{
		Round: round, Root: root, FileRef: fileRef, Sig: sig}, reply)
	return reply, err
}

func (c *Client) FinalizeRound(owner *key.Pair, round uint64) (*FinalizeRoundReply, error) {
	sig, err := c.sign(owner, finalizeRoundDigest(round))
	if err != nil {
		return nil, err
	}
	reply := &FinalizeRoundReply{}
	err = c.SendProtobuf(c.roster.List[0],
		&FinalizeRoundRequest{Round: round, Sig: sig}, reply)
	return reply, err
}

func (c *Client) SetDenylist(owner *key.Pair, wallet string, denied bool) (*SetDenylistReply, error) {
	sig, err := c.sign(owner, setDenylistDigest(wallet, denied))
	if err != nil {
		return nil, err
	}
	reply := &SetDenylistReply{}
	err = c.SendProtobuf(c.roster.List[0], &SetDenylistRequest{
		Wallet: wallet, Denied: denied, Sig: sig}, reply)
	return reply, err
}

func (c *Client) Pause(owner *key.Pair, paused bool) (*PauseReply, error) {
	sig, err := c.sign(owner, pauseDigest(paused))
	if err != nil {
		return nil, err
	}
	reply := &PauseReply{}
	err = c.SendProtobuf(c.roster.List[0],
		&PauseRequest{Paused: paused, Sig: sig}, reply)
	return reply, err
}

func (c *Client) PlaceWager(wallet *key.Pair, round uint64, tickets uint64, value uint64) (*PlaceWagerReply, error) {
	sig, err := c.sign(wallet, placeWagerDigest(round, tickets, value))
	if err != nil {
		return nil, err
	}
	reply := &PlaceWagerReply{}
	err = c.SendProtobuf(c.roster.List[0], &PlaceWagerRequest{Round: round,
		Key: wallet.Public, Tickets: tickets, Value: value, Sig: sig}, reply)
	return reply, err
}

func (c *Client) SubmitProof(wallet *key.Pair, round uint64, answerHash []byte) (*SubmitProofReply, error) {
	sig, err := c.sign(wallet, submitProofDigest(round, answerHash))
	if err != nil {
		return nil, err
	}
	reply := &SubmitProofReply{}
	err = c.SendProtobuf(c.roster.List[0], &SubmitProofRequest{Round: round,
		Key: wallet.Public, AnswerHash: answerHash, Sig: sig}, reply)
	return reply, err
}

func (c *Client) Claim(wallet *key.Pair, round uint64, index uint32, tier uint32, proof *merkle.Proof) (*ClaimReply, error) {
	sig, err := c.sign(wallet, claimDigest(round, index, tier))
	if err != nil {
		return nil, err
	}
	reply := &ClaimReply{}
	err = c.SendProtobuf(c.roster.List[0], &ClaimRequest{Round: round,
		Key: wallet.Public, Index: index, Tier: tier, Proof: proof,
		Sig: sig}, reply)
	return reply, err
}

func (c *Client) WithdrawRefund(wallet *key.Pair) (*WithdrawRefundReply, error) {
	sig, err := c.sign(wallet, withdrawRefundDigest())
	if err != nil {
		return nil, err
	}
	reply := &WithdrawRefundReply{}
	err = c.SendProtobuf(c.roster.List[0],
		&WithdrawRefundRequest{Key: wallet.Public, Sig: sig}, reply)
	return reply, err
}

func (c *Client) GetRound(round uint64) (*GetRoundReply, error) {
	reply := &GetRoundReply{}
	err := c.SendProtobuf(c.roster.List[0],
		&GetRoundRequest{Round: round}, reply)
	return reply, err
}

func (c *Client) GetParticipant(round uint64, wallet string) (*GetParticipantReply, error) {
	reply := &GetParticipantReply{}
	err := c.SendProtobuf(c.roster.List[0],
		&GetParticipantRequest{Round: round, Wallet: wallet}, reply)
	return reply, err
}

func (c *Client) GetRefundBalance(wallet string) (*GetRefundBalanceReply, error) {
	reply := &GetRefundBalanceReply{}
	err := c.SendProtobuf(c.roster.List[0],
		&GetRefundBalanceRequest{Wallet: wallet}, reply)
	return reply, err
}

func (c *Client) GetEvents(round uint64) (*GetEventsReply, error) {
	reply := &GetEventsReply{}
	err := c.SendProtobuf(c.roster.List[0],
		&GetEventsRequest{Round: round}, reply)
	return reply, err
}
