package simio

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/simon9721/PyAMI/sweep"
)

// WriteImpulseCSV dumps time-domain impulse responses, one labeled column
// per sweep result.
func WriteImpulseCSV(path string, results []sweep.Result, sampleInterval float64) error {
	if len(results) == 0 {
		return fmt.Errorf("no results to write")
	}
	rows := 0
	for _, r := range results {
		if len(r.Impulse) > rows {
			rows = len(r.Impulse)
		}
	}

	header := make([]string, 0, len(results)+1)
	header = append(header, "time_s")
	for _, r := range results {
		header = append(header, r.Label)
	}

	return writeCSV(path, header, rows, func(i int) []string {
		rec := make([]string, 0, len(results)+1)
		rec = append(rec, formatFloat(float64(i)*sampleInterval))
		for _, r := range results {
			v := 0.0
			if i < len(r.Impulse) {
				v = r.Impulse[i]
			}
			rec = append(rec, formatFloat(v))
		}
		return rec
	})
}

// WriteSpectrumCSV dumps frequency responses in dB, one labeled column per
// sweep result. Results without a spectrum are skipped.
func WriteSpectrumCSV(path string, results []sweep.Result) error {
	var withSpectrum []sweep.Result
	for _, r := range results {
		if len(r.Freqs) > 0 {
			withSpectrum = append(withSpectrum, r)
		}
	}
	if len(withSpectrum) == 0 {
		return fmt.Errorf("no frequency responses to write")
	}

	header := make([]string, 0, len(withSpectrum)+1)
	header = append(header, "freq_hz")
	for _, r := range withSpectrum {
		header = append(header, r.Label+"_db")
	}

	rows := len(withSpectrum[0].Freqs)
	return writeCSV(path, header, rows, func(i int) []string {
		rec := make([]string, 0, len(withSpectrum)+1)
		rec = append(rec, formatFloat(withSpectrum[0].Freqs[i]))
		for _, r := range withSpectrum {
			v := 0.0
			if i < len(r.MagDB) {
				v = r.MagDB[i]
			}
			rec = append(rec, formatFloat(v))
		}
		return rec
	})
}

func writeCSV(path string, header []string, rows int, record func(i int) []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for i := 0; i < rows; i++ {
		if err := w.Write(record(i)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
