// Package amount converts token amounts between their human-readable decimal
// form ("1.5") and minimal units (wei-like integers).
//
// Every conversion works on strings and math/big integers only. Token amounts
// routinely exceed the precision of a float64, so no float is ever involved.
package amount

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// MaxDecimals is the largest decimal count a token may declare.
const MaxDecimals = 36

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDecimals = fmt.Errorf("%w: decimals out of range", ErrInvalidAmount)
)

var ten = big.NewInt(10)

// ToMinimalUnits converts a human-readable decimal string into minimal units.
// Fraction digits beyond decimals are truncated, shorter fractions are
// right-padded with zeros.
//
//	ToMinimalUnits("0.1", 18) == 100000000000000000
func ToMinimalUnits(human string, decimals int) (*big.Int, error) {
	if err := checkDecimals(decimals); err != nil {
		return nil, err
	}
	whole, frac, err := split(human)
	if err != nil {
		return nil, err
	}

	if len(frac) > decimals {
		frac = frac[:decimals]
	} else {
		frac += strings.Repeat("0", decimals-len(frac))
	}

	digits := strings.TrimLeft(whole+frac, "0")
	if digits == "" {
		return new(big.Int), nil
	}
	out, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, human)
	}
	return out, nil
}

// ToHuman renders minimal units as a decimal string with at most precision
// fraction digits. Trailing zeros are stripped and a bare integer is returned
// when no fraction digits remain.
func ToHuman(minimal *big.Int, decimals, precision int) (string, error) {
	if err := checkDecimals(decimals); err != nil {
		return "", err
	}
	if minimal == nil {
		return "", fmt.Errorf("%w: nil value", ErrInvalidAmount)
	}
	if minimal.Sign() < 0 {
		return "", fmt.Errorf("%w: negative value %s", ErrInvalidAmount, minimal)
	}
	if precision < 0 {
		precision = 0
	}
	if precision > decimals {
		precision = decimals
	}

	scale := new(big.Int).Exp(ten, big.NewInt(int64(decimals)), nil)
	whole, rem := new(big.Int).QuoRem(minimal, scale, new(big.Int))

	frac := rem.String()
	if len(frac) < decimals {
		frac = strings.Repeat("0", decimals-len(frac)) + frac
	}
	frac = strings.TrimRight(frac[:precision], "0")

	if frac == "" {
		return whole.String(), nil
	}
	return whole.String() + "." + frac, nil
}

// Validate reports whether human is a well-formed non-negative decimal string.
func Validate(human string) error {
	_, _, err := split(human)
	return err
}

// IsZero reports whether a well-formed decimal string denotes zero.
func IsZero(human string) (bool, error) {
	whole, frac, err := split(human)
	if err != nil {
		return false, err
	}
	return strings.Trim(whole+frac, "0") == "", nil
}

// Canonical strips leading zeros from the integer part and trailing zeros from
// the fraction; "007.50" becomes "7.5" and "0.000" becomes "0".
func Canonical(human string) (string, error) {
	whole, frac, err := split(human)
	if err != nil {
		return "", err
	}
	whole = strings.TrimLeft(whole, "0")
	if whole == "" {
		whole = "0"
	}
	frac = strings.TrimRight(frac, "0")
	if frac == "" {
		return whole, nil
	}
	return whole + "." + frac, nil
}

// split accepts "12", "12.", "12.34" and ".34". Signs, exponents, whitespace
// and separators are rejected.
func split(human string) (whole, frac string, err error) {
	if human == "" {
		return "", "", fmt.Errorf("%w: empty string", ErrInvalidAmount)
	}
	whole, frac, _ = strings.Cut(human, ".")
	if whole == "" && frac == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidAmount, human)
	}
	if !allDigits(whole) || !allDigits(frac) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidAmount, human)
	}
	return whole, frac, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func checkDecimals(decimals int) error {
	if decimals < 0 || decimals > MaxDecimals {
		return fmt.Errorf("%w: %d", ErrInvalidDecimals, decimals)
	}
	return nil
}
