package helper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Zilliqa/gozilliqa-sdk/bech32"
	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInvalidAddress = errors.New("helper: invalid address")
	ErrInvalidAmount  = errors.New("helper: invalid amount")
)

// ParseAddress accepts a 0x hex address or a zil1 bech32 address.
func ParseAddress(addr string) (common.Address, error) {
	addr = strings.TrimSpace(addr)
	if strings.HasPrefix(strings.ToLower(addr), "zil1") {
		hex, err := bech32.FromBech32Addr(addr)
		if err != nil {
			return common.Address{}, fmt.Errorf("%w: %s: %v", ErrInvalidAddress, addr, err)
		}
		addr = hex
	}

	if !common.IsHexAddress(addr) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	return common.HexToAddress(addr), nil
}

// ToBech32 renders addr in the zil1 form.
func ToBech32(addr common.Address) (string, error) {
	return bech32.ToBech32Address(strings.TrimPrefix(addr.Hex(), "0x"))
}
