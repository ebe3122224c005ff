// Package selection implements the deterministic weighted draw that picks
// the prize winners of a round. It is a pure function of the participant
// snapshot and the randomness seed: the publisher runs it off-ledger to
// produce the winners file, and any observer holding the snapshot and the
// seed reproduces the exact same assignments.
package selection

import (
	"crypto/sha256"
	"encoding/binary"

	"golang.org/x/xerrors"
)

// NumSlots is the fixed number of prize slots per round.
const NumSlots = 10

// Prize tiers, derived from the slot index alone.
const (
	TierGold   uint32 = 0
	TierSilver uint32 = 1
	TierBronze uint32 = 2
)

// Entry is one participant in the frozen snapshot, in file order.
type Entry struct {
	Key     string
	Weight  uint64
	Tickets uint64
}

// Winner assigns one prize slot to a wallet.
type Winner struct {
	Key   string
	Tier  uint32
	Index uint32
}

// TierOf maps a slot index to its prize tier: slot 0 is gold, slot 1 is
// silver, the remaining slots are bronze.
func TierOf(index int) uint32 {
	switch index {
	case 0:
		return TierGold
	case 1:
		return TierSilver
	default:
		return TierBronze
	}
}

// drawValue derives the pseudo-random value for one slot from the seed and
// the slot index only.
func drawValue(seed []byte, slot int) uint64 {
	h := sha256.New()
	h.Write(seed)
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(slot))
	h.Write(buf)
	digest := h.Sum(nil)
	return binary.LittleEndian.Uint64(digest[:8])
}

// Draw fills the prize slots by repeated weighted draws without replacement
// at the ticket level: each slot samples a value modulo the current total
// weight, locates the owning wallet via a cumulative-weight scan over the
// entries in file order, and removes one ticket's worth of weight from that
// wallet before the next slot. A wallet therefore wins at most as many
// slots as it holds tickets. Fewer than NumSlots winners are returned when
// the pool runs out of weight.
func Draw(entries []Entry, seed []byte) ([]Winner, error) {
	if len(seed) == 0 {
		return nil, xerrors.New("empty seed")
	}
	if len(entries) == 0 {
		return nil, xerrors.New("empty snapshot")
	}
	weights := make([]uint64, len(entries))
	perTicket := make([]uint64, len(entries))
	var total uint64
	for i, e := range entries {
		if e.Tickets == 0 {
			return nil, xerrors.Errorf("entry %d has no tickets", i)
		}
		if e.Weight == 0 || e.Weight%e.Tickets != 0 {
			return nil, xerrors.Errorf("entry %d has weight %d not divisible"+
				" by %d tickets", i, e.Weight, e.Tickets)
		}
		weights[i] = e.Weight
		perTicket[i] = e.Weight / e.Tickets
		total += e.Weight
	}
	var winners []Winner
	for slot := 0; slot < NumSlots; slot++ {
		if total == 0 {
			break
		}
		val := drawValue(seed, slot) % total
		var acc uint64
		picked := -1
		for i, w := range weights {
			if w == 0 {
				continue
			}
			acc += w
			if val < acc {
				picked = i
				break
			}
		}
		if picked < 0 {
			return nil, xerrors.New("cumulative-weight scan failed")
		}
		winners = append(winners, Winner{
			Key:   entries[picked].Key,
			Tier:  TierOf(slot),
			Index: uint32(slot),
		})
		dec := perTicket[picked]
		if dec > weights[picked] {
			dec = weights[picked]
		}
		weights[picked] -= dec
		total -= dec
	}
	return winners, nil
}
