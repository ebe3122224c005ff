package lotto

/*
The service.go defines what to do for each API-call. This part of the
service runs on the node. The ledger engine is a single sequentially
consistent state machine, so every handler takes the service lock, runs the
operation to completion and persists the state before replying.
*/

import (
	"sync"

	"github.com/ceyhunalp/tombola/ledger"
	"github.com/ceyhunalp/tombola/sys"
	"github.com/ceyhunalp/tombola/utils"
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/onet/v3"
	"go.dedis.ch/onet/v3/log"
	"go.dedis.ch/onet/v3/network"
	"go.dedis.ch/protobuf"
	bbolt "go.etcd.io/bbolt"
	"golang.org/x/xerrors"
)

// ServiceName is the name of the tombola ledger service.
const ServiceName = "TombolaService"

var serviceID onet.ServiceID
var storageKey = []byte("tombola-storage")

func init() {
	var err error
	serviceID, err = onet.RegisterNewService(ServiceName, newService)
	log.ErrFatal(err)
	network.RegisterMessages(&storage{})
}

// Service holds the ledger engine and its persistence hooks.
type Service struct {
	*onet.ServiceProcessor
	sync.Mutex

	eng    *ledger.Ledger
	stored *storage
	db     *bbolt.DB
	bucket []byte
}

type storage struct {
	Owner kyber.Point
	Cfg   *sys.UnitConfig
	State *ledger.State
}

// devCustodian acknowledges outbound transfers. Actual asset and value
// movement is performed by external custody tooling that follows the
// event log; the ledger only requires the custodian call to succeed
// before it keeps the mutation.
type devCustodian struct{}

func (devCustodian) TransferAsset(assetID string, wallet string) error {
	log.Lvlf2("custodian: transfer asset %s to %s", assetID, wallet)
	return nil
}

func (devCustodian) PayValue(wallet string, amount uint64) error {
	log.Lvlf2("custodian: pay %d to %s", amount, wallet)
	return nil
}

// InitUnit configures the unit: the owner key and the deployment
// configuration. It is accepted once.
func (s *Service) InitUnit(req *InitUnitRequest) (*InitUnitReply, error) {
	s.Lock()
	defer s.Unlock()
	if s.eng != nil {
		log.Errorf("Unit already initialized")
		return nil, xerrors.New("unit already initialized")
	}
	if req.Owner == nil || req.Cfg == nil {
		log.Errorf("Missing owner or config")
		return nil, xerrors.New("missing owner or config")
	}
	lc, err := req.Cfg.LedgerConfig()
	if err != nil {
		log.Errorf("Invalid config: %v", err)
		return nil, err
	}
	s.eng = ledger.NewLedger(lc, devCustodian{})
	s.stored = &storage{Owner: req.Owner, Cfg: req.Cfg, State: s.eng.State()}
	if err := s.save(); err != nil {
		return nil, err
	}
	return &InitUnitReply{}, nil
}

func (s *Service) requireInit() error {
	if s.eng == nil {
		return xerrors.New("unit not initialized")
	}
	return nil
}

func (s *Service) ownerAuth(digest []byte, sig []byte) error {
	if err := verifySig(s.stored.Owner, digest, sig); err != nil {
		return xerrors.Errorf("owner authorization: %v", err)
	}
	return nil
}

func (s *Service) save() error {
	if err := s.Save(storageKey, s.stored); err != nil {
		log.Errorf("Couldn't save service state: %v", err)
		return err
	}
	return nil
}

func (s *Service) tryLoad() error {
	msg, err := s.Load(storageKey)
	if err != nil {
		return err
	}
	if msg == nil {
		return nil
	}
	st, ok := msg.(*storage)
	if !ok {
		return xerrors.New("stored data of wrong type")
	}
	lc, err := st.Cfg.LedgerConfig()
	if err != nil {
		return err
	}
	s.stored = st
	s.eng = ledger.RestoreLedger(lc, devCustodian{}, st.State)
	return nil
}

// archive writes a terminal round into the bbolt archive so the durable
// audit record survives independently of the live state.
func (s *Service) archive(roundID uint64) {
	r, err := s.eng.GetRound(roundID)
	if err != nil || !r.Status.Terminal() {
		return
	}
	buf, err := protobuf.Encode(r)
	if err != nil {
		log.Errorf("Couldn't encode round %d for archival: %v", roundID, err)
		return
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Put(utils.Uint64Bytes(roundID), buf)
	})
	if err != nil {
		log.Errorf("Couldn't archive round %d: %v", roundID, err)
	}
}

// CreateRound starts the bookkeeping for a new round.
func (s *Service) CreateRound(req *CreateRoundRequest) (*CreateRoundReply, error) {
	s.Lock()
	defer s.Unlock()
	if err := s.requireInit(); err != nil {
		return nil, err
	}
	if err := s.ownerAuth(createRoundDigest(req.Start, req.End), req.Sig); err != nil {
		log.Errorf("CreateRound: %v", err)
		return nil, err
	}
	id, err := s.eng.CreateRound(req.Start, req.End)
	if err != nil {
		log.Errorf("CreateRound: %v", err)
		return nil, err
	}
	if err := s.save(); err != nil {
		return nil, err
	}
	return &CreateRoundReply{RoundID: id}, nil
}

func (s *Service) SetPuzzleAnswer(req *SetPuzzleAnswerRequest) (*SetPuzzleAnswerReply, error) {
	s.Lock()
	defer s.Unlock()
	if err := s.requireInit(); err != nil {
		return nil, err
	}
	if err := s.ownerAuth(setPuzzleAnswerDigest(req.Round, req.Hash), req.Sig); err != nil {
		log.Errorf("SetPuzzleAnswer: %v", err)
		return nil, err
	}
	if err := s.eng.SetPuzzleAnswer(req.Round, req.Hash); err != nil {
		log.Errorf("SetPuzzleAnswer: %v", err)
		return nil, err
	}
	if err := s.save(); err != nil {
		return nil, err
	}
	return &SetPuzzleAnswerReply{}, nil
}

func (s *Service) ConfigurePrizeSlots(req *ConfigurePrizeSlotsRequest) (*ConfigurePrizeSlotsReply, error) {
	s.Lock()
	defer s.Unlock()
	if err := s.requireInit(); err != nil {
		return nil, err
	}
	if err := s.ownerAuth(configurePrizeSlotsDigest(req.Round, req.AssetIDs),
		req.Sig); err != nil {
		log.Errorf("ConfigurePrizeSlots: %v", err)
		return nil, err
	}
	if err := s.eng.ConfigurePrizeSlots(req.Round, req.AssetIDs); err != nil {
		log.Errorf("ConfigurePrizeSlots: %v", err)
		return nil, err
	}
	if err := s.save(); err != nil {
		return nil, err
	}
	return &ConfigurePrizeSlotsReply{}, nil
}

func (s *Service) OpenRound(req *OpenRoundRequest) (*OpenRoundReply, error) {
	s.Lock()
	defer s.Unlock()
	if err := s.requireInit(); err != nil {
		return nil, err
	}
	if err := s.ownerAuth(openRoundDigest(req.Round), req.Sig); err != nil {
		log.Errorf("OpenRound: %v", err)
		return nil, err
	}
	if err := s.eng.OpenRound(req.Round); err != nil {
		log.Errorf("OpenRound: %v", err)
		return nil, err
	}
	if err := s.save(); err != nil {
		return nil, err
	}
	return &OpenRoundReply{}, nil
}

func (s *Service) CloseRound(req *CloseRoundRequest) (*CloseRoundReply, error) {
	s.Lock()
	defer s.Unlock()
	if err := s.requireInit(); err != nil {
		return nil, err
	}
	if err := s.ownerAuth(closeRoundDigest(req.Round), req.Sig); err != nil {
		log.Errorf("CloseRound: %v", err)
		return nil, err
	}
	if err := s.eng.CloseRound(req.Round); err != nil {
		log.Errorf("CloseRound: %v", err)
		return nil, err
	}
	r, err := s.eng.GetRound(req.Round)
	if err != nil {
		return nil, err
	}
	if err := s.save(); err != nil {
		return nil, err
	}
	s.archive(req.Round)
	return &CloseRoundReply{Refunded: r.Status == ledger.Refunded}, nil
}

func (s *Service) TakeSnapshot(req *TakeSnapshotRequest) (*TakeSnapshotReply, error) {
	s.Lock()
	defer s.Unlock()
	if err := s.requireInit(); err != nil {
		return nil, err
	}
	if err := s.ownerAuth(takeSnapshotDigest(req.Round), req.Sig); err != nil {
		log.Errorf("TakeSnapshot: %v", err)
		return nil, err
	}
	if err := s.eng.TakeSnapshot(req.Round); err != nil {
		log.Errorf("TakeSnapshot: %v", err)
		return nil, err
	}
	if err := s.save(); err != nil {
		return nil, err
	}
	return &TakeSnapshotReply{}, nil
}

func (s *Service) CommitParticipantRoot(req *CommitParticipantRootRequest) (*CommitParticipantRootReply, error) {
	s.Lock()
	defer s.Unlock()
	if err := s.requireInit(); err != nil {
		return nil, err
	}
	if err := s.ownerAuth(commitParticipantRootDigest(req.Round, req.Root,
		req.FileRef), req.Sig); err != nil {
		log.Errorf("CommitParticipantRoot: %v", err)
		return nil, err
	}
	if err := s.eng.CommitParticipantRoot(req.Round, req.Root,
		req.FileRef); err != nil {
		log.Errorf("CommitParticipantRoot: %v", err)
		return nil, err
	}
	if err := s.save(); err != nil {
		return nil, err
	}
	return &CommitParticipantRootReply{}, nil
}

func (s *Service) RequestRandomness(req *RequestRandomnessRequest) (*RequestRandomnessReply, error) {
	s.Lock()
	defer s.Unlock()
	if err := s.requireInit(); err != nil {
		return nil, err
	}
	if err := s.ownerAuth(requestRandomnessDigest(req.Round), req.Sig); err != nil {
		log.Errorf("RequestRandomness: %v", err)
		return nil, err
	}
	id, err := s.eng.RequestRandomness(req.Round)
	if err != nil {
		log.Errorf("RequestRandomness: %v", err)
		return nil, err
	}
	if err := s.save(); err != nil {
		return nil, err
	}
	return &RequestRandomnessReply{RequestID: id}, nil
}

// FulfillRandomness is invoked by (or on behalf of) the beacon. The BLS
// signature inside the request is its authentication; the ledger rejects
// anything that does not verify against the configured beacon key.
func (s *Service) FulfillRandomness(req *FulfillRandomnessRequest) (*FulfillRandomnessReply, error) {
	s.Lock()
	defer s.Unlock()
	if err := s.requireInit(); err != nil {
		return nil, err
	}
	if err := s.eng.FulfillRandomness(req.Round, req.RequestID,
		req.Value); err != nil {
		log.Errorf("FulfillRandomness: %v", err)
		return nil, err
	}
	r, err := s.eng.GetRound(req.Round)
	if err != nil {
		return nil, err
	}
	if err := s.save(); err != nil {
		return nil, err
	}
	return &FulfillRandomnessReply{Seed: r.Seed}, nil
}

func (s *Service) CommitWinnerRoot(req *CommitWinnerRootRequest) (*CommitWinnerRootReply, error) {
	s.Lock()
	defer s.Unlock()
	if err := s.requireInit(); err != nil {
		return nil, err
	}
	if err := s.ownerAuth(commitWinnerRootDigest(req.Round, req.Root,
		req.FileRef), req.Sig); err != nil {
		log.Errorf("CommitWinnerRoot: %v", err)
		return nil, err
	}
	if err := s.eng.CommitWinnerRoot(req.Round, req.Root, req.FileRef); err != nil {
		log.Errorf("CommitWinnerRoot: %v", err)
		return nil, err
	}
	if err := s.save(); err != nil {
		return nil, err
	}
	return &CommitWinnerRootReply{}, nil
}

func (s *Service) FinalizeRound(req *FinalizeRoundRequest) (*FinalizeRoundReply, error) {
	s.Lock()
	defer s.Unlock()
	if err := s.requireInit(); err != nil {
		return nil, err
	}
	if err := s.ownerAuth(finalizeRoundDigest(req.Round), req.Sig); err != nil {
		log.Errorf("FinalizeRound: %v", err)
		return nil, err
	}
	if err := s.eng.FinalizeRound(req.Round); err != nil {
		log.Errorf("FinalizeRound: %v", err)
		return nil, err
	}
	if err := s.save(); err != nil {
		return nil, err
	}
	s.archive(req.Round)
	return &FinalizeRoundReply{}, nil
}

func (s *Service) SetDenylist(req *SetDenylistRequest) (*SetDenylistReply, error) {
	s.Lock()
	defer s.Unlock()
	if err := s.requireInit(); err != nil {
		return nil, err
	}
	if err := s.ownerAuth(setDenylistDigest(req.Wallet, req.Denied),
		req.Sig); err != nil {
		log.Errorf("SetDenylist: %v", err)
		return nil, err
	}
	s.eng.SetDenylist(req.Wallet, req.Denied)
	if err := s.save(); err != nil {
		return nil, err
	}
	return &SetDenylistReply{}, nil
}

func (s *Service) Pause(req *PauseRequest) (*PauseReply, error) {
	s.Lock()
	defer s.Unlock()
	if err := s.requireInit(); err != nil {
		return nil, err
	}
	if err := s.ownerAuth(pauseDigest(req.Paused), req.Sig); err != nil {
		log.Errorf("Pause: %v", err)
		return nil, err
	}
	if req.Paused {
		s.eng.Pause()
	} else {
		s.eng.Unpause()
	}
	if err := s.save(); err != nil {
		return nil, err
	}
	return &PauseReply{}, nil
}

func (s *Service) PlaceWager(req *PlaceWagerRequest) (*PlaceWagerReply, error) {
	s.Lock()
	defer s.Unlock()
	if err := s.requireInit(); err != nil {
		return nil, err
	}
	if err := verifySig(req.Key, placeWagerDigest(req.Round, req.Tickets,
		req.Value), req.Sig); err != nil {
		log.Errorf("PlaceWager: %v", err)
		return nil, err
	}
	wallet, err := utils.PointToHex(req.Key)
	if err != nil {
		log.Errorf("PlaceWager: %v", err)
		return nil, err
	}
	if err := s.eng.PlaceWager(req.Round, wallet, req.Tickets,
		req.Value); err != nil {
		log.Errorf("PlaceWager: %v", err)
		return nil, err
	}
	p, err := s.eng.GetParticipant(req.Round, wallet)
	if err != nil {
		return nil, err
	}
	if err := s.save(); err != nil {
		return nil, err
	}
	return &PlaceWagerReply{Tickets: p.Tickets, Weight: p.Weight}, nil
}

func (s *Service) SubmitProof(req *SubmitProofRequest) (*SubmitProofReply, error) {
	s.Lock()
	defer s.Unlock()
	if err := s.requireInit(); err != nil {
		return nil, err
	}
	if err := verifySig(req.Key, submitProofDigest(req.Round,
		req.AnswerHash), req.Sig); err != nil {
		log.Errorf("SubmitProof: %v", err)
		return nil, err
	}
	wallet, err := utils.PointToHex(req.Key)
	if err != nil {
		log.Errorf("SubmitProof: %v", err)
		return nil, err
	}
	if err := s.eng.SubmitProof(req.Round, wallet, req.AnswerHash); err != nil {
		log.Errorf("SubmitProof: %v", err)
		return nil, err
	}
	p, err := s.eng.GetParticipant(req.Round, wallet)
	if err != nil {
		return nil, err
	}
	if err := s.save(); err != nil {
		return nil, err
	}
	return &SubmitProofReply{
		Matched: p.ProofStatus == ledger.ProofSucceeded,
		Weight:  p.Weight,
	}, nil
}

func (s *Service) Claim(req *ClaimRequest) (*ClaimReply, error) {
	s.Lock()
	defer s.Unlock()
	if err := s.requireInit(); err != nil {
		return nil, err
	}
	if err := verifySig(req.Key, claimDigest(req.Round, req.Index,
		req.Tier), req.Sig); err != nil {
		log.Errorf("Claim: %v", err)
		return nil, err
	}
	wallet, err := utils.PointToHex(req.Key)
	if err != nil {
		log.Errorf("Claim: %v", err)
		return nil, err
	}
	if err := s.eng.Claim(req.Round, wallet, req.Index, req.Tier,
		req.Proof); err != nil {
		log.Errorf("Claim: %v", err)
		return nil, err
	}
	r, err := s.eng.GetRound(req.Round)
	if err != nil {
		return nil, err
	}
	if err := s.save(); err != nil {
		return nil, err
	}
	return &ClaimReply{AssetID: r.PrizeSlots[req.Index].AssetID}, nil
}

func (s *Service) WithdrawRefund(req *WithdrawRefundRequest) (*WithdrawRefundReply, error) {
	s.Lock()
	defer s.Unlock()
	if err := s.requireInit(); err != nil {
		return nil, err
	}
	if err := verifySig(req.Key, withdrawRefundDigest(), req.Sig); err != nil {
		log.Errorf("WithdrawRefund: %v", err)
		return nil, err
	}
	wallet, err := utils.PointToHex(req.Key)
	if err != nil {
		log.Errorf("WithdrawRefund: %v", err)
		return nil, err
	}
	amount, err := s.eng.WithdrawRefund(wallet)
	if err != nil {
		log.Errorf("WithdrawRefund: %v", err)
		return nil, err
	}
	if err := s.save(); err != nil {
		return nil, err
	}
	return &WithdrawRefundReply{Amount: amount}, nil
}

func (s *Service) GetRound(req *GetRoundRequest) (*GetRoundReply, error) {
	s.Lock()
	defer s.Unlock()
	if err := s.requireInit(); err != nil {
		return nil, err
	}
	r, err := s.eng.GetRound(req.Round)
	if err != nil {
		log.Errorf("GetRound: %v", err)
		return nil, err
	}
	stale, err := s.eng.RandomnessStale(req.Round)
	if err != nil {
		return nil, err
	}
	return &GetRoundReply{Round: r, PendingCarry: s.eng.PendingCarry(),
		RandStale: stale}, nil
}

func (s *Service) GetParticipant(req *GetParticipantRequest) (*GetParticipantReply, error) {
	s.Lock()
	defer s.Unlock()
	if err := s.requireInit(); err != nil {
		return nil, err
	}
	p, err := s.eng.GetParticipant(req.Round, req.Wallet)
	if err != nil {
		log.Errorf("GetParticipant: %v", err)
		return nil, err
	}
	return &GetParticipantReply{Participant: p}, nil
}

func (s *Service) GetRefundBalance(req *GetRefundBalanceRequest) (*GetRefundBalanceReply, error) {
	s.Lock()
	defer s.Unlock()
	if err := s.requireInit(); err != nil {
		return nil, err
	}
	return &GetRefundBalanceReply{Balance: s.eng.RefundBalance(req.Wallet)}, nil
}

func (s *Service) GetEvents(req *GetEventsRequest) (*GetEventsReply, error) {
	s.Lock()
	defer s.Unlock()
	if err := s.requireInit(); err != nil {
		return nil, err
	}
	evs, err := s.eng.Events(req.Round)
	if err != nil {
		log.Errorf("GetEvents: %v", err)
		return nil, err
	}
	return &GetEventsReply{Events: evs}, nil
}

func newService(c *onet.Context) (onet.Service, error) {
	s := &Service{
		ServiceProcessor: onet.NewServiceProcessor(c),
	}
	db, bucket := c.GetAdditionalBucket([]byte("tombola-rounds"))
	s.db = db
	s.bucket = bucket
	if err := s.tryLoad(); err != nil {
		log.Errorf("Couldn't load service state: %v", err)
		return nil, err
	}
	if err := s.RegisterHandlers(s.InitUnit, s.CreateRound,
		s.SetPuzzleAnswer, s.ConfigurePrizeSlots, s.OpenRound, s.CloseRound,
		s.TakeSnapshot, s.CommitParticipantRoot, s.RequestRandomness,
		s.FulfillRandomness, s.CommitWinnerRoot, s.FinalizeRound,
		s.SetDenylist, s.Pause, s.PlaceWager, s.SubmitProof, s.Claim,
		s.WithdrawRefund, s.GetRound, s.GetParticipant, s.GetRefundBalance,
		s.GetEvents); err != nil {
		return nil, err
	}
	return s, nil
}
