package address

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	programID = common.HexToAddress("0x5b5cf7d5c8e1a9b3e2f4d6c8a0b2c4e6f8a0b2c4")
	payerA    = common.HexToAddress("0x1234567890123456789012345678901234567890")
	payerB    = common.HexToAddress("0x0987654321098765432109876543210987654321")
)

func TestDeriveTreeAddress_Deterministic(t *testing.T) {
	a1 := DeriveTreeAddress(programID, payerA)
	a2 := DeriveTreeAddress(programID, payerA)
	assert.Equal(t, a1, a2)
	assert.NotEqual(t, common.Address{}, a1)
}

func TestDeriveTreeAddress_DistinctInputs(t *testing.T) {
	base := DeriveTreeAddress(programID, payerA)
	assert.NotEqual(t, base, DeriveTreeAddress(programID, payerB), "payer must change the address")
	assert.NotEqual(t, base, DeriveTreeAddress(payerB, payerA), "program id must change the address")
	assert.NotEqual(t, payerA, base)
}

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("0x1234567890123456789012345678901234567890")
	require.NoError(t, err)
	assert.Equal(t, payerA, addr)

	for _, bad := range []string{"", "0x1234", "not-an-address"} {
		_, err := ParseAddress(bad)
		require.Error(t, err, bad)
	}
}
