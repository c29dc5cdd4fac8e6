package utils

import (
	"fmt"
	"math/big"
	"strings"
)

// ParseRawBalance parses a provider-reported base-unit balance string
// into a big.Int. Balances regularly exceed the float64 mantissa, so
// they must never round-trip through floating point.
func ParseRawBalance(raw string) (*big.Int, error) {
	if raw == "" {
		return big.NewInt(0), nil
	}
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("invalid raw balance %q", raw)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("negative raw balance %q", raw)
	}
	return amount, nil
}

// ToDecimal converts a base-unit amount to human units. The division is
// the only lossy step: the integer value stays exact in big.Int and the
// quotient is computed in big.Float before the final float64 rounding.
func ToDecimal(amount *big.Int, decimals uint8) float64 {
	if amount == nil || amount.Sign() == 0 {
		return 0
	}
	divisor := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	value, _ := new(big.Float).Quo(new(big.Float).SetInt(amount), divisor).Float64()
	return value
}

// FormatBigInt converts a base-unit amount to a human-readable decimal
// string, trimming trailing zeros.
// Example: amount=1234500000000000000, decimals=18 => "1.2345"
func FormatBigInt(amount *big.Int, decimals uint8) string {
	if amount == nil || amount.Sign() == 0 {
		return "0"
	}
	if decimals == 0 {
		return amount.String()
	}

	divisor := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	value := new(big.Float).Quo(new(big.Float).SetInt(amount), divisor)

	formatted := value.Text('f', int(decimals))
	if strings.Contains(formatted, ".") {
		formatted = strings.TrimRight(formatted, "0")
		formatted = strings.TrimRight(formatted, ".")
	}
	if strings.HasPrefix(formatted, ".") {
		formatted = "0" + formatted
	}
	if formatted == "" {
		formatted = "0"
	}
	return formatted
}
