package types

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUnits(t *testing.T) {
	v, err := ParseUnits("500", 6)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(500000000), v)

	v, err = ParseUnits(" 1.5 ", 6)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1500000), v)

	v, err = ParseUnits("100000", 18)
	require.NoError(t, err)
	expected, _ := new(big.Int).SetString("100000000000000000000000", 10)
	assert.Equal(t, expected, v)

	_, err = ParseUnits("0.0000001", 6)
	assert.Error(t, err)
	_, err = ParseUnits("-1", 6)
	assert.Error(t, err)
	_, err = ParseUnits("abc", 6)
	assert.Error(t, err)
	_, err = ParseUnits("", 6)
	assert.Error(t, err)
}

func TestParseRatio(t *testing.T) {
	r, err := ParseRatio("0.5")
	require.NoError(t, err)
	assert.Equal(t, "500000000000000000", r.String())

	r, err = ParseRatio("1")
	require.NoError(t, err)
	assert.Equal(t, 0, r.Cmp(RatioOne))
}

func TestFormatUnits(t *testing.T) {
	assert.Equal(t, "1.500000", FormatUnits(big.NewInt(1500000), 6))
	assert.Equal(t, "0.000001", FormatUnits(big.NewInt(1), 6))
	assert.Equal(t, "0", FormatUnits(big.NewInt(0), 0))
	assert.Equal(t, "0.7", FormatRatio(big.NewInt(700000000000000000)))
}

func TestParseBaseUnits(t *testing.T) {
	v, err := ParseBaseUnits("350000000")
	require.NoError(t, err)
	assert.Equal(t, int64(350000000), v.Int64())

	_, err = ParseBaseUnits("1.5")
	assert.Error(t, err)
	_, err = ParseBaseUnits("-3")
	assert.Error(t, err)
}

func TestParseAddressList(t *testing.T) {
	list, err := ParseAddressList("0x00000000000000000000000000000000000000a1, ,0x00000000000000000000000000000000000000b2")
	require.NoError(t, err)
	assert.Equal(t, []common.Address{
		common.HexToAddress("0xa1"),
		common.HexToAddress("0xb2"),
	}, list)

	_, err = ParseAddressList("0x123")
	assert.Error(t, err)

	list, err = ParseAddressList("")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestParseAccountAmounts(t *testing.T) {
	list, err := ParseAccountAmounts("0x00000000000000000000000000000000000000a1=100, 0x00000000000000000000000000000000000000b2=2.5,", 6)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, common.HexToAddress("0xa1"), list[0].Account)
	assert.Equal(t, big.NewInt(100_000_000), list[0].Amount)
	assert.Equal(t, big.NewInt(2_500_000), list[1].Amount)

	for _, bad := range []string{
		"0x00000000000000000000000000000000000000a1",
		"0x123=1",
		"0x00000000000000000000000000000000000000a1=0.0000001",
		"0x00000000000000000000000000000000000000a1=-1",
	} {
		_, err := ParseAccountAmounts(bad, 6)
		assert.Error(t, err, bad)
	}

	list, err = ParseAccountAmounts("", 6)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPrivateKeyToGethAddress(t *testing.T) {
	// well known hardhat account #0
	addr, err := PrivateKeyToGethAddress("0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), addr)

	_, err = PrivateKeyToGethAddress("zz")
	assert.Error(t, err)
}
