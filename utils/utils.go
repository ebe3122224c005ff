package utils

import (
	"crypto/sha256"
	"encoding/binary"
	"os"

	"go.dedis.ch/cothority/v3"
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/util/encoding"
	"go.dedis.ch/onet/v3"
	"go.dedis.ch/onet/v3/app"
	"go.dedis.ch/onet/v3/log"
	"golang.org/x/xerrors"
)

func ReadRoster(path string) (*onet.Roster, error) {
	file, err := os.Open(path)
	if err != nil {
		log.Errorf("ReadRoster error: %v", err)
		return nil, err
	}
	defer file.Close()
	group, err := app.ReadGroupDescToml(file)
	if err != nil {
		log.Errorf("ReadRoster error: %v", err)
		return nil, err
	}
	if len(group.Roster.List) == 0 {
		return nil, xerrors.New("empty roster")
	}
	return group.Roster, nil
}

func HashString(val string) []byte {
	h := sha256.New()
	h.Write([]byte(val))
	return h.Sum(nil)
}

// OpDigest is the message signed by callers of the service API. It binds the
// operation name, the round and the operation's own fields so that a
// signature for one call cannot be replayed on another.
func OpDigest(op string, round uint64, fields ...[]byte) []byte {
	h := sha256.New()
	h.Write([]byte(op))
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, round)
	h.Write(buf)
	for _, f := range fields {
		h.Write(f)
	}
	return h.Sum(nil)
}

// PointToHex encodes a wallet public key as the hex string used for ledger
// map keys and Merkle leaves.
func PointToHex(p kyber.Point) (string, error) {
	s, err := encoding.PointToStringHex(cothority.Suite, p)
	if err != nil {
		return "", xerrors.Errorf("couldn't encode point: %v", err)
	}
	return s, nil
}

func HexToPoint(s string) (kyber.Point, error) {
	p, err := encoding.StringHexToPoint(cothority.Suite, s)
	if err != nil {
		return nil, xerrors.Errorf("couldn't decode point: %v", err)
	}
	return p, nil
}

func Uint64Bytes(val uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, val)
	return buf
}

func Uint32Bytes(val uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, val)
	return buf
}
