package types

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseUnits converts a human decimal string such as "500.25" into integer base units
// with the given number of decimals. Values with more precision than decimals are rejected.
func ParseUnits(value string, decimals uint8) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("negative amount %q", value)
	}
	shifted := d.Shift(int32(decimals))
	if !shifted.Equal(shifted.Truncate(0)) {
		return nil, fmt.Errorf("amount %q exceeds %d decimals", value, decimals)
	}
	return shifted.BigInt(), nil
}

// ParseRatio parses "0.7" into 7e17
func ParseRatio(value string) (*big.Int, error) {
	ratio, err := ParseUnits(value, RatioDecimals)
	if err != nil {
		return nil, fmt.Errorf("invalid ratio: %w", err)
	}
	return ratio, nil
}

// FormatUnits renders base units with a fixed number of decimals, 1500000 (6) -> "1.500000"
func FormatUnits(amount *big.Int, decimals uint8) string {
	if amount == nil {
		amount = new(big.Int)
	}
	return decimal.NewFromBigInt(amount, -int32(decimals)).StringFixed(int32(decimals))
}

// FormatRatio renders a 1e18 fixed point ratio without trailing zeros, 7e17 -> "0.7"
func FormatRatio(ratio *big.Int) string {
	if ratio == nil {
		return "0"
	}
	return decimal.NewFromBigInt(ratio, -RatioDecimals).String()
}

// ParseBaseUnits parses an integer amount that is already expressed in base units
func ParseBaseUnits(value string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer amount %q", value)
	}
	if n.Sign() < 0 {
		return nil, fmt.Errorf("negative amount %q", value)
	}
	return n, nil
}
