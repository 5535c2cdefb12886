// Package plan loads sweep plans from JSON: the model's base parameter
// values, the timing context and the ordered list of configurations to run.
package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/simon9721/PyAMI/ami"
	"github.com/simon9721/PyAMI/sweep"
)

// File is the JSON schema for sweep plans.
type File struct {
	ModelRoot    string         `json:"model_root"`
	BitRate      float64        `json:"bit_rate"`
	SamplesPerUI int            `json:"samples_per_ui"`
	LengthUI     int            `json:"length_ui"`
	Aggressors   int            `json:"aggressors"`
	FFTLength    int            `json:"fft_length"`
	Base         map[string]any `json:"base"`
	Configs      []ConfigEntry  `json:"configs"`
}

// ConfigEntry is one sweep configuration in a plan file.
type ConfigEntry struct {
	Label  string         `json:"label"`
	Params map[string]any `json:"params"`
}

// Plan is a validated plan file, ready to pair with a channel response.
type Plan struct {
	Root           string
	SampleInterval float64
	BitTime        float64
	SamplesPerUI   int
	LengthUI       int
	Aggressors     int
	FFTLength      int
	Base           *ami.Tree
	Configs        []sweep.Config
}

// LoadJSON loads and validates a sweep plan.
func LoadJSON(path string) (*Plan, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse validates raw plan JSON.
func Parse(b []byte) (*Plan, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	dec.DisallowUnknownFields()
	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}

	if f.ModelRoot == "" {
		return nil, fmt.Errorf("plan: model_root is required")
	}
	if f.BitRate <= 0 {
		return nil, fmt.Errorf("plan: bit_rate must be > 0")
	}
	if f.SamplesPerUI < 1 {
		return nil, fmt.Errorf("plan: samples_per_ui must be >= 1")
	}
	if f.LengthUI < 1 {
		return nil, fmt.Errorf("plan: length_ui must be >= 1")
	}
	if f.Aggressors < 0 {
		return nil, fmt.Errorf("plan: aggressors must be >= 0")
	}
	if f.FFTLength < 0 {
		return nil, fmt.Errorf("plan: fft_length must be >= 0")
	}
	if len(f.Configs) == 0 {
		return nil, fmt.Errorf("plan: at least one config is required")
	}

	base, err := treeFromMap(f.Base)
	if err != nil {
		return nil, fmt.Errorf("plan: base: %w", err)
	}

	p := &Plan{
		Root:           f.ModelRoot,
		SampleInterval: 1.0 / (f.BitRate * float64(f.SamplesPerUI)),
		BitTime:        1.0 / f.BitRate,
		SamplesPerUI:   f.SamplesPerUI,
		LengthUI:       f.LengthUI,
		Aggressors:     f.Aggressors,
		FFTLength:      f.FFTLength,
		Base:           base,
	}

	seen := make(map[string]bool, len(f.Configs))
	for i, entry := range f.Configs {
		if entry.Label == "" {
			return nil, fmt.Errorf("plan: configs[%d] has no label", i)
		}
		if seen[entry.Label] {
			return nil, fmt.Errorf("plan: duplicate config label %q", entry.Label)
		}
		seen[entry.Label] = true
		params, err := treeFromMap(entry.Params)
		if err != nil {
			return nil, fmt.Errorf("plan: config %q: %w", entry.Label, err)
		}
		p.Configs = append(p.Configs, sweep.Config{Label: entry.Label, Params: params})
	}
	return p, nil
}

// Template pairs the plan with a channel impulse response.
func (p *Plan) Template(channel []float64) sweep.Template {
	return sweep.Template{
		Root:           p.Root,
		Base:           p.Base,
		Channel:        channel,
		SampleInterval: p.SampleInterval,
		BitTime:        p.BitTime,
		Aggressors:     p.Aggressors,
		FFTLen:         p.FFTLength,
	}
}

// treeFromMap converts a JSON object into a parameter tree. JSON gives no
// reliable key order, so entries sort by name for deterministic encoding.
func treeFromMap(m map[string]any) (*ami.Tree, error) {
	t := ami.NewTree()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch v := m[k].(type) {
		case json.Number:
			if n, err := v.Int64(); err == nil {
				if err := t.Set(k, int(n)); err != nil {
					return nil, err
				}
				continue
			}
			f, err := v.Float64()
			if err != nil {
				return nil, fmt.Errorf("%s: bad number %q", k, v.String())
			}
			if err := t.Set(k, f); err != nil {
				return nil, err
			}
		case string:
			if err := t.Set(k, v); err != nil {
				return nil, err
			}
		case map[string]any:
			sub, err := treeFromMap(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			if err := t.Set(k, sub); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%s: unsupported value %v (%T)", k, v, v)
		}
	}
	return t, nil
}
