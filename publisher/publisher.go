// Package publisher builds the two per-round commitment files from the
// ledger's read surface: the participant snapshot and the winners file.
// It is the off-ledger half of the commitment scheme, shared by the
// operator CLI and the test harness, and it reuses the exact selection
// algorithm any observer would run to audit a round.
package publisher

import (
	"sort"

	"github.com/ceyhunalp/tombola/ledger"
	"github.com/ceyhunalp/tombola/merkle"
	"github.com/ceyhunalp/tombola/selection"
	"go.dedis.ch/protobuf"
	"golang.org/x/xerrors"
)

// BuildParticipantFile produces the snapshot file and its Merkle root for a
// round. Entries are sorted by wallet key so the file order, and with it
// the draw, is deterministic regardless of ledger iteration order.
func BuildParticipantFile(r *ledger.Round) (*ParticipantFile, []byte, error) {
	if len(r.Participants) == 0 {
		return nil, nil, xerrors.Errorf("round %d has no participants", r.ID)
	}
	file := &ParticipantFile{Round: r.ID}
	for _, p := range r.Participants {
		file.Entries = append(file.Entries, ParticipantEntry{
			Key:     p.Key,
			Weight:  p.Weight,
			Tickets: p.Tickets,
		})
	}
	sort.Slice(file.Entries, func(i, j int) bool {
		return file.Entries[i].Key < file.Entries[j].Key
	})
	root, err := merkle.Root(participantLeaves(file))
	if err != nil {
		return nil, nil, xerrors.Errorf("couldn't build participant root: %v",
			err)
	}
	return file, root, nil
}

// BuildWinnerFile runs the weighted draw over a snapshot file and the
// fulfilled seed, producing the winners file and its Merkle root.
func BuildWinnerFile(pf *ParticipantFile, seed []byte) (*WinnerFile, []byte, error) {
	entries := make([]selection.Entry, len(pf.Entries))
	for i, e := range pf.Entries {
		entries[i] = selection.Entry{Key: e.Key, Weight: e.Weight,
			Tickets: e.Tickets}
	}
	winners, err := selection.Draw(entries, seed)
	if err != nil {
		return nil, nil, xerrors.Errorf("draw failed: %v", err)
	}
	file := &WinnerFile{Round: pf.Round, Seed: seed}
	for _, w := range winners {
		file.Winners = append(file.Winners, WinnerEntry{Key: w.Key,
			Tier: w.Tier, Index: w.Index})
	}
	root, err := merkle.Root(winnerLeaves(file))
	if err != nil {
		return nil, nil, xerrors.Errorf("couldn't build winner root: %v", err)
	}
	return file, root, nil
}

// ProveWinner builds the Merkle proof a winner presents to Claim for the
// given position in the winners file.
func ProveWinner(wf *WinnerFile, pos int) (*merkle.Proof, error) {
	return merkle.Prove(winnerLeaves(wf), pos)
}

// ProveParticipant builds the membership proof for one snapshot entry,
// usable by observers auditing the participant commitment.
func ProveParticipant(pf *ParticipantFile, pos int) (*merkle.Proof, error) {
	return merkle.Prove(participantLeaves(pf), pos)
}

func participantLeaves(pf *ParticipantFile) [][]byte {
	leaves := make([][]byte, len(pf.Entries))
	for i, e := range pf.Entries {
		leaves[i] = ledger.ParticipantLeaf(e.Key, e.Weight)
	}
	return leaves
}

func winnerLeaves(wf *WinnerFile) [][]byte {
	leaves := make([][]byte, len(wf.Winners))
	for i, w := range wf.Winners {
		leaves[i] = ledger.WinnerLeaf(w.Key, w.Tier, w.Index)
	}
	return leaves
}

// Encode serializes a commitment file for publication.
func Encode(file interface{}) ([]byte, error) {
	buf, err := protobuf.Encode(file)
	if err != nil {
		return nil, xerrors.Errorf("couldn't encode file: %v", err)
	}
	return buf, nil
}

// DecodeParticipantFile parses a published snapshot file.
func DecodeParticipantFile(buf []byte) (*ParticipantFile, error) {
	file := &ParticipantFile{}
	if err := protobuf.Decode(buf, file); err != nil {
		return nil, xerrors.Errorf("couldn't decode participant file: %v", err)
	}
	return file, nil
}

// DecodeWinnerFile parses a published winners file.
func DecodeWinnerFile(buf []byte) (*WinnerFile, error) {
	file := &WinnerFile{}
	if err := protobuf.Decode(buf, file); err != nil {
		return nil, xerrors.Errorf("couldn't decode winner file: %v", err)
	}
	return file, nil
}
