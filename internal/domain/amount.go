package domain

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/params"
)

const etherDecimals = 18

var decimalPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// weiPerEther is 10^18
var weiPerEther = big.NewInt(params.Ether)

// ParseWei parses a base-10 (or 0x-prefixed hex) wei amount of at most 256 bits
func ParseWei(value string) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" || strings.HasPrefix(value, "-") {
		return nil, Wrap(ErrInvalidAmount, value)
	}

	amount, ok := math.ParseBig256(value)
	if !ok {
		return nil, Wrap(ErrInvalidAmount, value)
	}

	return amount, nil
}

// ParseEther converts a decimal ether string (e.g. "1.5") into wei
func ParseEther(value string) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if !decimalPattern.MatchString(value) {
		return nil, Wrap(ErrInvalidAmount, value)
	}

	whole, fraction, _ := strings.Cut(value, ".")
	if len(fraction) > etherDecimals {
		return nil, Wrapf(ErrInvalidAmount, "%s has more than %d decimals", value, etherDecimals)
	}
	fraction += strings.Repeat("0", etherDecimals-len(fraction))

	wei, ok := new(big.Int).SetString(whole+fraction, 10)
	if !ok {
		return nil, Wrap(ErrInvalidAmount, value)
	}
	if wei.Cmp(math.MaxBig256) > 0 {
		return nil, Wrapf(ErrInvalidAmount, "%s exceeds 256 bits", value)
	}

	return wei, nil
}

// FormatEther renders a wei amount as a decimal ether string without trailing zeros
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}

	sign := ""
	abs := new(big.Int).Set(wei)
	if abs.Sign() < 0 {
		sign = "-"
		abs.Neg(abs)
	}

	whole, rem := new(big.Int).QuoRem(abs, weiPerEther, new(big.Int))
	if rem.Sign() == 0 {
		return sign + whole.String()
	}

	digits := rem.String()
	fraction := strings.TrimRight(strings.Repeat("0", etherDecimals-len(digits))+digits, "0")
	return sign + whole.String() + "." + fraction
}

// ParseDecimalWei parses a numeric(78,0) column value; empty means zero
func ParseDecimalWei(value string) (*big.Int, error) {
	if value == "" {
		return new(big.Int), nil
	}

	amount, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid stored amount %q", value)
	}
	return amount, nil
}
