package publisher

// ParticipantEntry is one line of the published snapshot file: a wallet,
// its effective weight and its ticket count, in the canonical file order.
type ParticipantEntry struct {
	Key     string
	Weight  uint64
	Tickets uint64
}

// ParticipantFile is the off-ledger snapshot file whose Merkle root is
// committed through CommitParticipantRoot.
type ParticipantFile struct {
	Round   uint64
	Entries []ParticipantEntry
}

// WinnerEntry is one line of the published winners file.
type WinnerEntry struct {
	Key   string
	Tier  uint32
	Index uint32
}

// WinnerFile is the off-ledger winners file whose Merkle root is committed
// through CommitWinnerRoot. It records the seed it was derived from so any
// observer can re-run the draw.
type WinnerFile struct {
	Round   uint64
	Seed    []byte
	Winners []WinnerEntry
}
