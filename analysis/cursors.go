// Package analysis post-processes model impulse responses: cursor/tap
// extraction and FFT-based magnitude response. All functions are pure and
// independent of which model produced the response.
package analysis

import "math"

// Cursors are the tap amplitudes of an impulse response around its main
// cursor, sampled at unit-interval spacing.
type Cursors struct {
	// MainIndex is the sample index of maximum absolute amplitude; ties
	// resolve to the first occurrence.
	MainIndex int `json:"main_index"`
	// Main is the amplitude at MainIndex.
	Main float64 `json:"main"`
	// Pre is the amplitude one UI before the main cursor, 0 when the main
	// cursor sits within the first UI.
	Pre float64 `json:"pre"`
	// Post1 and Post2 are the amplitudes one and two UIs after the main
	// cursor, 0 when out of range.
	Post1 float64 `json:"post1"`
	Post2 float64 `json:"post2"`
}

// FindCursors locates the main tap of impulse and reads the pre- and
// post-cursor taps at samplesPerUI spacing. Out-of-range taps are 0, a
// legitimate "no cursor there" state rather than an error.
func FindCursors(impulse []float64, samplesPerUI int) Cursors {
	if len(impulse) == 0 || samplesPerUI < 1 {
		return Cursors{}
	}
	main := 0
	best := math.Abs(impulse[0])
	for i := 1; i < len(impulse); i++ {
		if a := math.Abs(impulse[i]); a > best {
			best = a
			main = i
		}
	}
	c := Cursors{MainIndex: main, Main: impulse[main]}
	if i := main - samplesPerUI; i >= 0 {
		c.Pre = impulse[i]
	}
	if i := main + samplesPerUI; i < len(impulse) {
		c.Post1 = impulse[i]
	}
	if i := main + 2*samplesPerUI; i < len(impulse) {
		c.Post2 = impulse[i]
	}
	return c
}
