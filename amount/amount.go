// Copyright (C) 2025, Aurigraph DLT Corp. All rights reserved.
// See the file LICENSE for licensing terms.

// Package amount handles arbitrary-precision decimal token amounts.
//
// Amounts cross chains with different native scales (18 decimals on EVM,
// 8 on Bitcoin-likes, 6 for stablecoins), so the core keeps them as exact
// rationals and only the adapters convert to base units. Format produces
// the canonical plain decimal string used in signable payloads and fraud
// proof digests; it must stay byte-stable across versions.
package amount

import (
	"errors"
	"math/big"
	"strings"
)

var (
	ErrEmpty   = errors.New("amount is empty")
	ErrInvalid = errors.New("amount is not a valid decimal")
)

// Parse converts a plain decimal string ("100", "0.1", "-3.25") into an
// exact rational. Exponent notation is rejected.
func Parse(s string) (*big.Rat, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmpty
	}
	if strings.ContainsAny(s, "eE/") {
		return nil, ErrInvalid
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, ErrInvalid
	}
	return r, nil
}

// MustParse is Parse for static table literals.
func MustParse(s string) *big.Rat {
	r, err := Parse(s)
	if err != nil {
		panic("amount: " + s + ": " + err.Error())
	}
	return r
}

// Format renders r as a plain decimal string with no exponent and no
// trailing fractional zeros. This is the canonical amount_plain_string.
func Format(r *big.Rat) string {
	if r == nil {
		return "0"
	}
	if r.IsInt() {
		return r.Num().String()
	}
	// 64 fractional digits covers every supported token scale; trailing
	// zeros are trimmed to keep the form canonical.
	s := r.FloatString(64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	return s
}

// Fee returns amt scaled by bps basis points (30 bps = 0.3%).
func Fee(amt *big.Rat, bps int64) *big.Rat {
	fee := new(big.Rat).Mul(amt, big.NewRat(bps, 10000))
	return fee
}

// IsPositive reports whether r > 0.
func IsPositive(r *big.Rat) bool {
	return r != nil && r.Sign() > 0
}

// Cmp is a nil-safe comparison treating nil as zero.
func Cmp(a, b *big.Rat) int {
	if a == nil {
		a = new(big.Rat)
	}
	if b == nil {
		b = new(big.Rat)
	}
	return a.Cmp(b)
}
