// Command ami-sweep loads an IBIS-AMI model binary, runs it across the
// configurations of a sweep plan and reports cursor taps per
// configuration. Impulse and frequency responses can be dumped as CSV for
// external plotting.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/simon9721/PyAMI/analysis"
	"github.com/simon9721/PyAMI/channel"
	"github.com/simon9721/PyAMI/internal/simio"
	"github.com/simon9721/PyAMI/plan"
	"github.com/simon9721/PyAMI/sweep"
)

// defaultPlan sweeps the canonical example_tx pre-emphasis settings.
const defaultPlan = `{
  "model_root": "example_tx",
  "bit_rate": 10e9,
  "samples_per_ui": 32,
  "length_ui": 200,
  "fft_length": 4096,
  "base": {
    "tx_tap_units": 27,
    "tx_tap_np1": 0,
    "tx_tap_nm1": 0,
    "tx_tap_nm2": 0
  },
  "configs": [
    {"label": "No Pre-emphasis", "params": {}},
    {"label": "Light", "params": {"tx_tap_np1": 2, "tx_tap_nm1": 3, "tx_tap_nm2": 1}},
    {"label": "Medium", "params": {"tx_tap_np1": 4, "tx_tap_nm1": 8, "tx_tap_nm2": 3}},
    {"label": "Strong", "params": {"tx_tap_np1": 6, "tx_tap_nm1": 12, "tx_tap_nm2": 5}}
  ]
}`

func main() {
	modelPath := flag.String("model", "", "Path to the IBIS-AMI model binary (.so/.dll)")
	planPath := flag.String("plan", "", "Sweep plan JSON; empty runs the built-in example_tx plan")
	channelSpec := flag.String("channel", "ideal", "Channel response: ideal, lossy, or a WAV path")
	bandwidth := flag.Float64("bandwidth", 5e9, "Lossy channel -3 dB bandwidth in Hz")
	delayUI := flag.Float64("delay-ui", 2.0, "Lossy channel bulk delay in unit intervals")
	writeImpulse := flag.String("write-impulse", "", "Optional CSV path for impulse responses")
	writeSpectrum := flag.String("write-spectrum", "", "Optional CSV path for frequency responses")
	writeWAVDir := flag.String("write-wav", "", "Optional directory for per-config impulse WAV dumps")
	jsonOut := flag.Bool("json", false, "Print per-config cursors as JSON")
	flag.Parse()

	if *modelPath == "" {
		die("missing -model")
	}

	p, err := loadPlan(*planPath)
	if err != nil {
		die("failed to load plan: %v", err)
	}

	ch, err := buildChannel(*channelSpec, p, *bandwidth, *delayUI)
	if err != nil {
		die("failed to build channel: %v", err)
	}

	results, err := sweep.Run(*modelPath, p.Template(ch), p.Configs)
	if err != nil {
		die("sweep failed: %v", err)
	}

	if *jsonOut {
		printJSON(results)
	} else {
		printTable(results, p)
	}

	if *writeImpulse != "" {
		if err := simio.WriteImpulseCSV(*writeImpulse, results, p.SampleInterval); err != nil {
			die("failed to write impulse csv: %v", err)
		}
	}
	if *writeSpectrum != "" {
		if err := simio.WriteSpectrumCSV(*writeSpectrum, results); err != nil {
			die("failed to write spectrum csv: %v", err)
		}
	}
	if *writeWAVDir != "" {
		if err := writeImpulseWAVs(*writeWAVDir, results, p); err != nil {
			die("failed to write impulse wavs: %v", err)
		}
	}
}

func loadPlan(path string) (*plan.Plan, error) {
	if path == "" {
		return plan.Parse([]byte(defaultPlan))
	}
	return plan.LoadJSON(path)
}

// buildChannel produces the channel impulse response the plan's model will
// shape: a delta, a synthetic lossy channel, or a measured response from a
// WAV file resampled to the simulation rate.
func buildChannel(spec string, p *plan.Plan, bandwidth, delayUI float64) ([]float64, error) {
	switch spec {
	case "ideal":
		return channel.Ideal(p.SamplesPerUI, p.LengthUI), nil
	case "lossy":
		return channel.Lossy(channel.Config{
			SamplesPerUI: p.SamplesPerUI,
			LengthUI:     p.LengthUI,
			BitTime:      p.BitTime,
			BandwidthHz:  bandwidth,
			DelayUI:      delayUI,
		})
	}

	raw, rate, err := simio.ReadWAVMono(spec)
	if err != nil {
		return nil, err
	}
	simRate := int(math.Round(1.0 / p.SampleInterval))
	raw, err = simio.ResampleIfNeeded(raw, rate, simRate)
	if err != nil {
		return nil, err
	}
	out := make([]float64, p.SamplesPerUI*p.LengthUI)
	copy(out, raw)
	return out, nil
}

func printTable(results []sweep.Result, p *plan.Plan) {
	fmt.Printf("Model root: %s   %.0f Gbps, %d samples/UI, %d UI channel\n\n",
		p.Root, 1.0/p.BitTime/1e9, p.SamplesPerUI, p.LengthUI)
	fmt.Printf("%-24s %10s %10s %10s %10s %10s\n",
		"Config", "Main idx", "Main", "Pre", "Post-1", "Post-2")
	fmt.Println(strings.Repeat("─", 80))
	for _, r := range results {
		c := r.Cursors
		fmt.Printf("%-24s %10d %10.4f %10.4f %10.4f %10.4f\n",
			r.Label, c.MainIndex, c.Main, c.Pre, c.Post1, c.Post2)
		if r.Message != "" {
			fmt.Printf("%-24s model says: %s\n", "", r.Message)
		}
	}
}

type cursorReport struct {
	Label     string           `json:"label"`
	Cursors   analysis.Cursors `json:"cursors"`
	Message   string           `json:"message,omitempty"`
	ParamsOut string           `json:"params_out,omitempty"`
}

func printJSON(results []sweep.Result) {
	reports := make([]cursorReport, 0, len(results))
	for _, r := range results {
		rep := cursorReport{Label: r.Label, Cursors: r.Cursors, Message: r.Message}
		if r.ParamsOut != nil {
			rep.ParamsOut = r.ParamsOut.Name
		}
		reports = append(reports, rep)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(reports); err != nil {
		die("json encode failed: %v", err)
	}
}

func writeImpulseWAVs(dir string, results []sweep.Result, p *plan.Plan) error {
	simRate := int(math.Round(1.0 / p.SampleInterval))
	for _, r := range results {
		data := make([]float32, len(r.Impulse))
		peak := 0.0
		for _, v := range r.Impulse {
			if a := math.Abs(v); a > peak {
				peak = a
			}
		}
		scale := 1.0
		if peak > 0 {
			scale = 0.9 / peak
		}
		for i, v := range r.Impulse {
			data[i] = float32(v * scale)
		}
		name := strings.ReplaceAll(strings.ToLower(r.Label), " ", "_") + ".wav"
		if err := simio.WriteMonoWAV(dir+"/"+name, data, simRate); err != nil {
			return err
		}
	}
	return nil
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
