package helper

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const etherDecimals = 18

// ParseAmount reads a wei amount. Plain integers are wei; a trailing "eth"
// marks a decimal ether amount, e.g. "0.01eth".
func ParseAmount(s string) (*big.Int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return new(big.Int), nil
	}

	shift := int32(0)
	if strings.HasSuffix(s, "eth") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "eth"))
		shift = etherDecimals
	} else {
		s = strings.TrimSpace(strings.TrimSuffix(s, "wei"))
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	d = d.Shift(shift)
	if !d.Equal(d.Truncate(0)) {
		return nil, fmt.Errorf("%w: %q is finer than one wei", ErrInvalidAmount, s)
	}
	if d.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, s)
	}

	return d.BigInt(), nil
}

// FormatEther renders a wei amount as decimal ether.
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -etherDecimals).String()
}
