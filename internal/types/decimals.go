package types

import (
	"math/big"
)

// RatioDecimals is the precision of payback ratios, 1e18 == 1.0
const RatioDecimals = 18

var (
	// RatioOne is the fixed-point representation of 1.0
	RatioOne = Pow10(RatioDecimals)

	big10 = big.NewInt(10)
)

// Pow10 returns 10^n as a new big.Int
func Pow10(n uint8) *big.Int {
	return new(big.Int).Exp(big10, big.NewInt(int64(n)), nil)
}

// ToVaultPrecision converts a collateral amount into vault token units.
// Scaling up is exact, scaling down truncates and the remainder is forfeited.
func ToVaultPrecision(amount *big.Int, collateralDecimals, vaultDecimals uint8) *big.Int {
	if amount == nil {
		return new(big.Int)
	}
	if vaultDecimals >= collateralDecimals {
		return new(big.Int).Mul(amount, Pow10(vaultDecimals-collateralDecimals))
	}
	return new(big.Int).Quo(amount, Pow10(collateralDecimals-vaultDecimals))
}

// ToCollateralPrecision is the mirror of ToVaultPrecision, used when redeeming vault tokens.
func ToCollateralPrecision(amount *big.Int, collateralDecimals, vaultDecimals uint8) *big.Int {
	if amount == nil {
		return new(big.Int)
	}
	if vaultDecimals >= collateralDecimals {
		return new(big.Int).Quo(amount, Pow10(vaultDecimals-collateralDecimals))
	}
	return new(big.Int).Mul(amount, Pow10(collateralDecimals-vaultDecimals))
}

// MulRatio returns amount*ratio/1e18 truncated toward zero
func MulRatio(amount, ratio *big.Int) *big.Int {
	if amount == nil || ratio == nil {
		return new(big.Int)
	}
	out := new(big.Int).Mul(amount, ratio)
	return out.Quo(out, RatioOne)
}

// IsPositive reports amount > 0, nil counts as zero
func IsPositive(amount *big.Int) bool {
	return amount != nil && amount.Sign() > 0
}

// IsNegative reports amount < 0
func IsNegative(amount *big.Int) bool {
	return amount != nil && amount.Sign() < 0
}

// CopyInt returns a detached copy, nil becomes zero
func CopyInt(x *big.Int) *big.Int {
	if x == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(x)
}
