package analysis

import (
	"math"
	"testing"
)

func TestFrequencyResponseUnitImpulseIsFlat(t *testing.T) {
	// Canonical sanity scenario: delta at sample 0 has a flat 0 dB
	// spectrum at 10 Gbps with 32 samples per UI.
	impulse := make([]float64, 6400)
	impulse[0] = 1.0
	dt := 1.0 / (10e9 * 32)
	const fftLen = 4096

	freqs, magDB, err := FrequencyResponse(impulse, dt, fftLen)
	if err != nil {
		t.Fatalf("FrequencyResponse: %v", err)
	}
	if len(freqs) != fftLen/2+1 || len(magDB) != len(freqs) {
		t.Fatalf("lengths = (%d, %d), want %d", len(freqs), len(magDB), fftLen/2+1)
	}
	for k, db := range magDB {
		if math.Abs(db) > 0.01 {
			t.Fatalf("magDB[%d] = %g dB at %.3g Hz, want ~0", k, db, freqs[k])
		}
	}
}

func TestFrequencyResponseBinSpacing(t *testing.T) {
	impulse := []float64{1}
	dt := 1.0 / (10e9 * 32)
	const fftLen = 4096

	freqs, _, err := FrequencyResponse(impulse, dt, fftLen)
	if err != nil {
		t.Fatalf("FrequencyResponse: %v", err)
	}
	wantBin := 1.0 / (float64(fftLen) * dt)
	if freqs[0] != 0 {
		t.Fatalf("freqs[0] = %g, want 0", freqs[0])
	}
	if math.Abs(freqs[1]-wantBin) > wantBin*1e-12 {
		t.Fatalf("bin spacing = %g, want %g", freqs[1], wantBin)
	}
	nyquist := 0.5 / dt
	if math.Abs(freqs[len(freqs)-1]-nyquist) > nyquist*1e-12 {
		t.Fatalf("top bin = %g, want Nyquist %g", freqs[len(freqs)-1], nyquist)
	}
}

func TestFrequencyResponseDelayedImpulseKeepsUnitMagnitude(t *testing.T) {
	// A pure delay changes phase only; magnitude stays 0 dB.
	impulse := make([]float64, 512)
	impulse[37] = 1.0

	_, magDB, err := FrequencyResponse(impulse, 1e-12, 256)
	if err != nil {
		t.Fatalf("FrequencyResponse: %v", err)
	}
	for k, db := range magDB {
		if math.Abs(db) > 0.01 {
			t.Fatalf("magDB[%d] = %g dB, want ~0", k, db)
		}
	}
}

func TestFrequencyResponseZeroInputHitsFloor(t *testing.T) {
	impulse := make([]float64, 64)
	_, magDB, err := FrequencyResponse(impulse, 1e-12, 64)
	if err != nil {
		t.Fatalf("FrequencyResponse: %v", err)
	}
	want := 20 * math.Log10(magnitudeFloor)
	for k, db := range magDB {
		if math.Abs(db-want) > 1e-9 {
			t.Fatalf("magDB[%d] = %g, want floor %g", k, db, want)
		}
	}
}

func TestFrequencyResponseValidation(t *testing.T) {
	if _, _, err := FrequencyResponse([]float64{1}, 0, 64); err == nil {
		t.Fatalf("zero sample interval accepted")
	}
	if _, _, err := FrequencyResponse([]float64{1}, 1e-12, 1); err == nil {
		t.Fatalf("transform length 1 accepted")
	}
}
