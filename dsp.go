package trackmix

import (
	"math"

	"github.com/viterin/vek/vek32"
)

// DBToAmp converts decibels to a linear amplitude.
func DBToAmp(db float64) float64 {
	return math.Pow(10, db/20)
}

// AmpToDB converts a linear amplitude to decibels. Zero maps to -Inf.
func AmpToDB(amp float64) float64 {
	return 20 * math.Log10(amp)
}

// AbsMax returns the largest absolute sample over all channels.
func AbsMax(channels [][]float32) float32 {
	var ret float32
	var tmp []float32
	for _, ch := range channels {
		if len(ch) == 0 {
			continue
		}
		if cap(tmp) < len(ch) {
			tmp = make([]float32, len(ch))
		}
		t := vek32.Abs_Into(tmp[:len(ch)], ch)
		ret = max(ret, vek32.Max(t))
	}
	return ret
}

// Mod is the modulo operation with a result that has the sign of b.
func Mod(a, b int) int {
	if b == 0 {
		return 0
	}
	return ((a % b) + b) % b
}
