package helpers

import (
	"cmp"
	"math"
	"math/rand/v2"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Clamp limits value to [lo, hi].
func Clamp[T cmp.Ordered](value, lo, hi T) T {
	return min(max(value, lo), hi)
}

// Round rounds value to the given number of decimals, half away from zero.
func Round(value float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(value*factor) / factor
}

// RandomBetween returns a random float in [lo, hi).
func RandomBetween(lo, hi float64) float64 {
	return rand.Float64()*(hi-lo) + lo
}

// RandomIntBetween returns a random integer between lo and hi inclusive.
// The bounds may be given in either order.
func RandomIntBetween(lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	return rand.IntN(hi-lo+1) + lo
}

func ToRadians(degrees float64) float64 {
	return degrees * (math.Pi / 180)
}

func ToDegrees(radians float64) float64 {
	return radians * (180 / math.Pi)
}

func IsEven(n int) bool { return n%2 == 0 }

func IsOdd(n int) bool { return n%2 != 0 }

// FormatNumber formats n with the grouping separators of locale, e.g.
// 1234567.5 in "en-US" is "1,234,567.5". Unknown locales fall back to
// English.
func FormatNumber(n float64, locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	p := message.NewPrinter(tag)
	if n == math.Trunc(n) {
		return p.Sprintf("%.0f", n)
	}
	return p.Sprintf("%v", n)
}
