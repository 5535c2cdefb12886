package simio

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/simon9721/PyAMI/sweep"
)

func TestWriteImpulseCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "impulse.csv")
	results := []sweep.Result{
		{Label: "a", Impulse: []float64{1, 0.5}},
		{Label: "b", Impulse: []float64{0.25}},
	}
	if err := WriteImpulseCSV(path, results, 1e-12); err != nil {
		t.Fatalf("WriteImpulseCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[0][1] != "a" || rows[0][2] != "b" {
		t.Fatalf("header = %v", rows[0])
	}
	// Short columns pad with zeros.
	if rows[2][2] != "0" {
		t.Fatalf("padded cell = %q, want 0", rows[2][2])
	}
}

func TestWriteSpectrumCSVSkipsResultsWithoutSpectrum(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spec.csv")
	results := []sweep.Result{
		{Label: "no_fft"},
		{Label: "with_fft", Freqs: []float64{0, 1e9}, MagDB: []float64{0, -3}},
	}
	if err := WriteSpectrumCSV(path, results); err != nil {
		t.Fatalf("WriteSpectrumCSV: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(rows[0]) != 2 || rows[0][1] != "with_fft_db" {
		t.Fatalf("header = %v", rows[0])
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
}

func TestWriteImpulseCSVEmptyResults(t *testing.T) {
	if err := WriteImpulseCSV(filepath.Join(t.TempDir(), "x.csv"), nil, 1e-12); err == nil {
		t.Fatalf("empty results accepted")
	}
}
