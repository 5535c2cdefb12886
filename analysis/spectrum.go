package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"
)

// magnitudeFloor keeps the logarithm finite at exact spectral zeros.
const magnitudeFloor = 1e-12

// FrequencyResponse computes the magnitude response of an impulse response
// in decibels. The input is zero-padded or truncated to transformLength
// before the real-input transform. The returned frequencies are the
// non-negative half of the spectrum, spaced 1/(transformLength·sampleInterval)
// apart, and magDB[k] = 20·log10(|H[k]| + 1e-12).
func FrequencyResponse(impulse []float64, sampleInterval float64, transformLength int) (freqs, magDB []float64, err error) {
	if !(sampleInterval > 0) {
		return nil, nil, fmt.Errorf("analysis: sample interval %g must be > 0", sampleInterval)
	}
	if transformLength < 2 {
		return nil, nil, fmt.Errorf("analysis: transform length %d must be >= 2", transformLength)
	}
	plan, err := algofft.NewPlanReal64(transformLength)
	if err != nil {
		return nil, nil, fmt.Errorf("analysis: fft plan: %w", err)
	}

	buf := make([]float64, transformLength)
	copy(buf, impulse)
	spec := make([]complex128, transformLength/2+1)
	plan.Forward(spec, buf)

	binHz := 1.0 / (float64(transformLength) * sampleInterval)
	freqs = make([]float64, len(spec))
	magDB = make([]float64, len(spec))
	for k := range spec {
		freqs[k] = float64(k) * binHz
		magDB[k] = 20 * math.Log10(cmplx.Abs(spec[k])+magnitudeFloor)
	}
	return freqs, magDB, nil
}
