// Package utils provides common number formatting helpers for gauge labels.
package utils

import (
	"math"
	"math/big"
	"strconv"
)

// IsWhole reports whether v has no fractional part.
func IsWhole(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v) && v == math.Trunc(v)
}

// RoundHalfUp rounds v to the given number of decimals, halves away from zero.
// strconv alone rounds half to even, which turns 2.5 into "2".
func RoundHalfUp(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// FormatFixed formats v with exactly the given number of decimals, the way
// JavaScript's toFixed does: the exact binary value decides the rounding, so
// 0.15 (stored just below) gives "0.1", and only exact ties round away from
// zero. A negative value that rounds to zero keeps its sign.
// e.g., FormatFixed(3.75, 1) → "3.8", FormatFixed(-0.04, 1) → "-0.0"
func FormatFixed(v float64, decimals int) string {
	if v == 0 {
		v = 0
	}
	if isTie(v, decimals) {
		v = RoundHalfUp(v, decimals)
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

// isTie reports whether v lies exactly halfway between two multiples of
// 10^-decimals.
func isTie(v float64, decimals int) bool {
	if math.IsInf(v, 0) || math.IsNaN(v) || decimals < 0 || decimals > 22 {
		return false
	}
	x := new(big.Float).SetPrec(256).SetFloat64(math.Abs(v))
	x.Mul(x, new(big.Float).SetPrec(256).SetFloat64(math.Pow(10, float64(decimals))))
	whole, _ := x.Int(nil)
	frac := new(big.Float).SetPrec(256).Sub(x, new(big.Float).SetInt(whole))
	return frac.Cmp(big.NewFloat(0.5)) == 0
}

// FormatShortest formats v using the fewest digits that round-trip.
// e.g., 10 → "10", 2.5 → "2.5", -0.25 → "-0.25"
func FormatShortest(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// labelDigits is the significant-digit budget of FormatLabel.
const labelDigits = 12

// FormatLabel formats a computed scale value after rounding it to twelve
// significant digits, which drops float noise like 0.30000000000000004.
func FormatLabel(v float64) string {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'g', labelDigits, 64), 64)
	if err != nil {
		return FormatShortest(v)
	}
	return FormatShortest(r)
}

// FormatPercent formats a 0-100 percentage rounded half up to a whole
// number, with a trailing "%".
func FormatPercent(pct float64) string {
	return FormatShortest(RoundHalfUp(pct, 0)) + "%"
}

// FormatCoord formats an SVG coordinate rounded to three decimals, without
// trailing zeros. e.g., 150 → "150", 91.00000000000001 → "91"
func FormatCoord(v float64) string {
	return FormatShortest(RoundHalfUp(v, 3))
}
