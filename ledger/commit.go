package ledger

import (
	"golang.org/x/xerrors"
)

// CommitParticipantRoot records the commitment to the published snapshot
// file. Only in Snapshot, only once, and the root must be non-zero.
func (l *Ledger) CommitParticipantRoot(id uint64, root []byte, fileRef string) error {
	r, err := l.roundIn(id, Snapshot)
	if err != nil {
		return err
	}
	if len(root) == 0 {
		return xerrors.Errorf("zero participant root: %w", ErrCommitment)
	}
	if len(r.ParticipantRoot) != 0 {
		return xerrors.Errorf("participant root already committed: %w",
			ErrCommitment)
	}
	r.ParticipantRoot = root
	r.ParticipantFile = fileRef
	r.emit(Event{Type: EvParticipantRoot, Ref: root, FileRef: fileRef})
	return nil
}

// CommitWinnerRoot records the commitment to the published winners file and
// transitions the round to WinnersCommitted. Fee settlement fires here,
// exactly once; a failed beneficiary payout rolls the whole operation back.
func (l *Ledger) CommitWinnerRoot(id uint64, root []byte, fileRef string) error {
	r, err := l.roundIn(id, RandomnessFulfilled)
	if err != nil {
		return err
	}
	if len(root) == 0 {
		return xerrors.Errorf("zero winner root: %w", ErrCommitment)
	}
	if len(r.WinnerRoot) != 0 {
		return xerrors.Errorf("winner root already committed: %w",
			ErrCommitment)
	}
	r.WinnerRoot = root
	r.WinnerFile = fileRef
	r.Status = WinnersCommitted
	if err := l.settleFees(r); err != nil {
		r.WinnerRoot = nil
		r.WinnerFile = ""
		r.Status = RandomnessFulfilled
		return err
	}
	r.emit(Event{Type: EvWinnerRoot, Ref: root, FileRef: fileRef})
	return nil
}
