package sys

import (
	"testing"

	"github.com/ceyhunalp/tombola/oracle"
	"github.com/stretchr/testify/require"
)

const configText = `
Owner = "deadbeef"
Beneficiary = "operator"
WalletDepositCap = 100000000
RoundValueCap = 2000000000
RoundParticipantCap = 64
FeePct = 80
RandRetryGapSec = 60
RandTimeoutSec = 300

[[Bundles]]
Tickets = 1
Price = 5000000

[[Bundles]]
Tickets = 5
Price = 22500000

[[Bundles]]
Tickets = 10
Price = 40000000
`

func TestDecodeConfig(t *testing.T) {
	cfg, err := DecodeConfig(configText)
	require.NoError(t, err)
	require.Equal(t, "operator", cfg.Beneficiary)
	require.Equal(t, uint64(80), cfg.FeePct)
	require.Len(t, cfg.Bundles, 3)
	require.Equal(t, uint64(22500000), cfg.Bundles[1].Price)
}

func TestDecodeConfigRejectsInvalid(t *testing.T) {
	_, err := DecodeConfig(`Beneficiary = "operator"`)
	require.Error(t, err)
	_, err = DecodeConfig(`
Beneficiary = "operator"
FeePct = 101
[[Bundles]]
Tickets = 1
Price = 5000000
`)
	require.Error(t, err)
	_, err = DecodeConfig(`
FeePct = 80
[[Bundles]]
Tickets = 1
Price = 5000000
`)
	require.Error(t, err)
}

func TestLedgerConfig(t *testing.T) {
	cfg, err := DecodeConfig(configText)
	require.NoError(t, err)

	// Without a beacon key the gateway stays unconfigured.
	lc, err := cfg.LedgerConfig()
	require.NoError(t, err)
	require.Nil(t, lc.OraclePublic)
	require.Equal(t, uint64(5000000), lc.Bundles[1])
	require.Equal(t, uint64(40000000), lc.Bundles[10])
	require.Equal(t, int64(60), lc.RandRetryGap)

	beacon := oracle.NewBeacon()
	hex, err := beacon.PublicHex()
	require.NoError(t, err)
	cfg.OraclePublic = hex
	lc, err = cfg.LedgerConfig()
	require.NoError(t, err)
	require.True(t, lc.OraclePublic.Equal(beacon.Public()))

	cfg.Bundles = append(cfg.Bundles, Bundle{Tickets: 0, Price: 1})
	_, err = cfg.LedgerConfig()
	require.Error(t, err)
}
