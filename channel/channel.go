// Package channel synthesizes channel impulse responses to feed into
// IBIS-AMI models: the ideal delta the demo sweeps use and a simple lossy
// lowpass channel for exercising equalization settings.
package channel

import (
	"fmt"
	"math"

	"github.com/simon9721/PyAMI/dsp"
)

// Ideal returns a delta channel: 1.0 at sample 0, spanning lengthUI unit
// intervals at samplesPerUI samples each.
func Ideal(samplesPerUI, lengthUI int) []float64 {
	n := samplesPerUI * lengthUI
	if n < 1 {
		n = 1
	}
	out := make([]float64, n)
	out[0] = 1.0
	return out
}

// Config controls lossy channel synthesis.
type Config struct {
	SamplesPerUI int
	LengthUI     int
	BitTime      float64 // seconds per unit interval
	BandwidthHz  float64 // channel -3 dB bandwidth
	DelayUI      float64 // bulk delay in unit intervals
}

func DefaultConfig() Config {
	return Config{
		SamplesPerUI: 32,
		LengthUI:     200,
		BitTime:      1.0 / 10e9,
		BandwidthHz:  5e9,
		DelayUI:      2.0,
	}
}

func (c *Config) Validate() error {
	if c.SamplesPerUI < 1 {
		return fmt.Errorf("samples per UI must be >= 1: %d", c.SamplesPerUI)
	}
	if c.LengthUI < 1 {
		return fmt.Errorf("length must be >= 1 UI: %d", c.LengthUI)
	}
	if c.BitTime <= 0 {
		return fmt.Errorf("bit time must be > 0")
	}
	if c.BandwidthHz <= 0 {
		return fmt.Errorf("bandwidth must be > 0")
	}
	sampleRate := float64(c.SamplesPerUI) / c.BitTime
	if c.BandwidthHz >= sampleRate/2 {
		return fmt.Errorf("bandwidth %g exceeds Nyquist %g", c.BandwidthHz, sampleRate/2)
	}
	if c.DelayUI < 0 {
		return fmt.Errorf("delay must be >= 0 UI")
	}
	if int(math.Round(c.DelayUI*float64(c.SamplesPerUI))) >= c.SamplesPerUI*c.LengthUI {
		return fmt.Errorf("delay %.1f UI exceeds channel length %d UI", c.DelayUI, c.LengthUI)
	}
	return nil
}

// Lossy synthesizes a delayed lowpass channel impulse response, normalized
// to unit DC gain so low-frequency content passes unattenuated.
func Lossy(cfg Config) ([]float64, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := cfg.SamplesPerUI * cfg.LengthUI
	sampleRate := float64(cfg.SamplesPerUI) / cfg.BitTime
	delay := int(math.Round(cfg.DelayUI * float64(cfg.SamplesPerUI)))

	f := dsp.NewLowpass(cfg.BandwidthHz, sampleRate, math.Sqrt2/2)
	out := make([]float64, n)
	var sum float64
	for i := 0; i < n; i++ {
		x := 0.0
		if i == delay {
			x = 1.0
		}
		out[i] = f.Process(x)
		sum += out[i]
	}
	if sum != 0 {
		inv := 1.0 / sum
		for i := range out {
			out[i] *= inv
		}
	}
	return out, nil
}
