// Package oracle provides a drand-style BLS beacon that stands in for the
// external verifiable-randomness collaborator. The ledger only depends on
// the callback contract: the fulfillment value must be the beacon's BLS
// signature over the request id. Tests and local deployments run this
// beacon in-process; production points the gateway at a real one.
package oracle

import (
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/pairing"
	"go.dedis.ch/kyber/v3/sign/bls"
	"go.dedis.ch/kyber/v3/util/encoding"
	"go.dedis.ch/kyber/v3/util/random"
	"golang.org/x/xerrors"
)

var suite = pairing.NewSuiteBn256()

type Beacon struct {
	private kyber.Scalar
	public  kyber.Point
}

func NewBeacon() *Beacon {
	priv, pub := bls.NewKeyPair(suite, random.New())
	return &Beacon{private: priv, public: pub}
}

func (b *Beacon) Public() kyber.Point {
	return b.public
}

// PublicHex returns the beacon key in the encoding used by the unit config.
func (b *Beacon) PublicHex() (string, error) {
	s, err := encoding.PointToStringHex(suite.G2(), b.public)
	if err != nil {
		return "", xerrors.Errorf("couldn't encode beacon key: %v", err)
	}
	return s, nil
}

// Fulfill signs the request id, producing the value the randomness gateway
// accepts as the round's draw input.
func (b *Beacon) Fulfill(requestID []byte) ([]byte, error) {
	if len(requestID) == 0 {
		return nil, xerrors.New("empty request id")
	}
	sig, err := bls.Sign(suite, b.private, requestID)
	if err != nil {
		return nil, xerrors.Errorf("couldn't sign request: %v", err)
	}
	return sig, nil
}

// PublicFromHex decodes a beacon key from the unit config encoding.
func PublicFromHex(s string) (kyber.Point, error) {
	p, err := encoding.StringHexToPoint(suite.G2(), s)
	if err != nil {
		return nil, xerrors.Errorf("couldn't decode beacon key: %v", err)
	}
	return p, nil
}
