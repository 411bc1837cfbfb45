package helper

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	want := common.HexToAddress("0x1d19918a737306218b5cbb3241fcdcbd998c3a72")

	got, err := ParseAddress("0x1d19918a737306218b5cbb3241fcdcbd998c3a72")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	zil, err := ToBech32(want)
	require.NoError(t, err)
	assert.Contains(t, zil, "zil1")

	got, err = ParseAddress(zil)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	for _, bad := range []string{"", "0x12", "zil1notanaddress", "hello"} {
		_, err := ParseAddress(bad)
		assert.ErrorIs(t, err, ErrInvalidAddress, bad)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "0"},
		{"12345", "12345"},
		{"7wei", "7"},
		{"0.01eth", "10000000000000000"},
		{"1 ETH", "1000000000000000000"},
		{"0.925eth", "925000000000000000"},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got.String(), tt.in)
	}

	for _, bad := range []string{"abc", "1.5", "-1", "0.0000000000000000001eth"} {
		_, err := ParseAmount(bad)
		assert.ErrorIs(t, err, ErrInvalidAmount, bad)
	}
}

func TestFormatEther(t *testing.T) {
	assert.Equal(t, "0.025", FormatEther(big.NewInt(25000000000000000)))
	assert.Equal(t, "1", FormatEther(big.NewInt(1000000000000000000)))
	assert.Equal(t, "0", FormatEther(nil))
}

func TestIsIpfs(t *testing.T) {
	assert.True(t, IsIpfs("ipfs://QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG/1.json"))
	assert.True(t, IsIpfs("https://gateway.example/ipfs/QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"))
	assert.False(t, IsIpfs("https://example.com/1.json"))
	assert.True(t, IsUrl("https://example.com/1.json"))
	assert.False(t, IsUrl("not a url"))
}
