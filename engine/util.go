package engine

import "github.com/trackmix/trackmix"

func mod(a, b int) int { return trackmix.Mod(a, b) }

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

// setSliceLength grows or shrinks slice to length, reusing its storage when
// possible.
func setSliceLength[T any](slice []T, length int) []T {
	if len(slice) < length {
		slice = append(slice, make([]T, length-len(slice))...)
	}
	return slice[:length]
}
