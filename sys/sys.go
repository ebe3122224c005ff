// Package sys holds the unit configuration of a tombola deployment: ticket
// bundle pricing, escrow caps, the fee split, the operator beneficiary and
// the randomness beacon's public key.
package sys

import (
	"github.com/BurntSushi/toml"
	"github.com/ceyhunalp/tombola/ledger"
	"github.com/ceyhunalp/tombola/oracle"
	"go.dedis.ch/onet/v3/log"
	"golang.org/x/xerrors"
)

// Bundle prices one of the permitted ticket bundles, in nanocoins.
type Bundle struct {
	Tickets uint64
	Price   uint64
}

// UnitConfig is the TOML-decoded deployment configuration.
type UnitConfig struct {
	// Owner is the hex-encoded schnorr public key allowed to call the
	// privileged surface.
	Owner string
	// Beneficiary receives the operator share of each fee settlement.
	Beneficiary string
	// OraclePublic is the hex-encoded BLS key of the randomness beacon.
	OraclePublic string
	Bundles      []Bundle
	// Caps: per-wallet cumulative deposit, per-round escrowed value,
	// per-round distinct participants.
	WalletDepositCap    uint64
	RoundValueCap       uint64
	RoundParticipantCap uint32
	// FeePct is the beneficiary percentage of each settlement.
	FeePct uint64
	// RandRetryGapSec / RandTimeoutSec drive the randomness gateway's
	// rate limit and advisory staleness window.
	RandRetryGapSec int64
	RandTimeoutSec  int64
}

// LoadConfig reads a unit configuration from a TOML file.
func LoadConfig(path string) (*UnitConfig, error) {
	cfg := &UnitConfig{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		log.Errorf("Cannot decode config file %s: %v", path, err)
		return nil, err
	}
	if err := cfg.check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DecodeConfig parses a unit configuration from TOML text, the same way
// simulations receive theirs.
func DecodeConfig(data string) (*UnitConfig, error) {
	cfg := &UnitConfig{}
	if _, err := toml.Decode(data, cfg); err != nil {
		return nil, xerrors.Errorf("couldn't decode config: %v", err)
	}
	if err := cfg.check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *UnitConfig) check() error {
	if len(cfg.Bundles) == 0 {
		return xerrors.New("config has no ticket bundles")
	}
	if cfg.FeePct > 100 {
		return xerrors.Errorf("fee percentage %d out of range", cfg.FeePct)
	}
	if cfg.Beneficiary == "" {
		return xerrors.New("config has no beneficiary")
	}
	return nil
}

// LedgerConfig converts the unit configuration into the engine's view,
// decoding the beacon key.
func (cfg *UnitConfig) LedgerConfig() (ledger.Config, error) {
	lc := ledger.Config{
		Beneficiary:         cfg.Beneficiary,
		Bundles:             make(map[uint64]uint64),
		WalletDepositCap:    cfg.WalletDepositCap,
		RoundValueCap:       cfg.RoundValueCap,
		RoundParticipantCap: cfg.RoundParticipantCap,
		FeePct:              cfg.FeePct,
		RandRetryGap:        cfg.RandRetryGapSec,
		RandTimeout:         cfg.RandTimeoutSec,
	}
	for _, b := range cfg.Bundles {
		if b.Tickets == 0 || b.Price == 0 {
			return lc, xerrors.Errorf("invalid bundle %d/%d", b.Tickets,
				b.Price)
		}
		lc.Bundles[b.Tickets] = b.Price
	}
	if cfg.OraclePublic != "" {
		pub, err := oracle.PublicFromHex(cfg.OraclePublic)
		if err != nil {
			return lc, err
		}
		lc.OraclePublic = pub
	}
	return lc, nil
}
