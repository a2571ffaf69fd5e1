// Copyright (C) 2025, Aurigraph DLT Corp. All rights reserved.
// See the file LICENSE for licensing terms.

package amount

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFormatRoundtrip(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"100", "100"},
		{"100.0", "100"},
		{"0.1", "0.1"},
		{"0.001", "0.001"},
		{"1000000", "1000000"},
		{"404000", "404000"},
		{"-3.25", "-3.25"},
		{"0", "0"},
	}
	for _, tc := range cases {
		r, err := Parse(tc.in)
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, Format(r), tc.in)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "  ", "abc", "1e18", "1/3", "10.5.1"} {
		_, err := Parse(in)
		require.Error(t, err, in)
	}
}

func TestFee(t *testing.T) {
	amt := MustParse("100")
	// 10 bps = 0.1%
	require.Equal(t, "0.1", Format(Fee(amt, 10)))
	require.Equal(t, "0.3", Format(Fee(amt, 30)))
	require.Equal(t, "1", Format(Fee(amt, 100)))
}

func TestFormatExactness(t *testing.T) {
	// 0.1% of 123.456 must stay exact, not float-rounded.
	fee := Fee(MustParse("123.456"), 10)
	require.Equal(t, "0.123456", Format(fee))
}

func TestCmpNilSafe(t *testing.T) {
	require.Equal(t, 0, Cmp(nil, new(big.Rat)))
	require.Equal(t, 1, Cmp(MustParse("1"), nil))
	require.Equal(t, -1, Cmp(nil, MustParse("1")))
	require.False(t, IsPositive(nil))
	require.True(t, IsPositive(MustParse("0.0001")))
}
