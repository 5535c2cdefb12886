package dsp

import (
	"math"
	"testing"
)

func TestLowpassPassesDC(t *testing.T) {
	f := NewLowpass(5e9, 320e9, math.Sqrt2/2)
	var y float64
	for i := 0; i < 20000; i++ {
		y = f.Process(1.0)
	}
	if math.Abs(y-1.0) > 1e-3 {
		t.Fatalf("DC gain = %g, want ~1", y)
	}
}

func TestLowpassAttenuatesAboveCutoff(t *testing.T) {
	const (
		sr     = 320e9
		cutoff = 5e9
		probe  = 40e9
	)
	f := NewLowpass(cutoff, sr, math.Sqrt2/2)
	peak := 0.0
	n := int(sr / probe * 200)
	for i := 0; i < n; i++ {
		y := f.Process(math.Sin(2 * math.Pi * probe * float64(i) / sr))
		if i > n/2 && math.Abs(y) > peak {
			peak = math.Abs(y)
		}
	}
	// Three octaves above cutoff a 2nd-order lowpass is down well over 20 dB.
	if peak > 0.1 {
		t.Fatalf("gain at %g Hz = %g, want < 0.1", probe, peak)
	}
}

func TestBiquadReset(t *testing.T) {
	f := NewLowpass(5e9, 320e9, math.Sqrt2/2)
	first := f.Process(1.0)
	f.Process(0.5)
	f.Reset()
	if got := f.Process(1.0); got != first {
		t.Fatalf("Process after Reset = %g, want %g", got, first)
	}
}
