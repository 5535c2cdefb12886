// Package sweep runs an IBIS-AMI model across a set of parameter
// configurations and collects per-configuration analysis results.
//
// The model is loaded once and re-initialized per configuration, strictly
// sequentially; AMI models are not assumed reentrant, so one loaded model
// must never serve two configurations concurrently. Parallel sweeps need
// one loaded model per worker.
package sweep

import (
	"fmt"

	"github.com/simon9721/PyAMI/ami"
	"github.com/simon9721/PyAMI/analysis"
	"github.com/simon9721/PyAMI/model"
)

// Initter is the init capability of a loaded model.
type Initter interface {
	Init(*model.InitContext) (*model.Result, error)
}

// Template is the per-sweep base context shared by every configuration.
type Template struct {
	Root           string    // model root name, e.g. "example_tx"
	Base           *ami.Tree // base parameter values
	Channel        []float64 // channel impulse response fed to the model
	SampleInterval float64
	BitTime        float64
	Aggressors     int
	// FFTLen is the frequency-response transform length; 0 skips the
	// frequency analysis.
	FFTLen int
}

// Config is one sweep entry: a label and a partial parameter override
// merged onto the template's base tree.
type Config struct {
	Label  string
	Params *ami.Tree
}

// Result pairs a configuration label with its impulse response and
// analyses, in submission order.
type Result struct {
	Label   string
	Impulse []float64
	Cursors analysis.Cursors
	Freqs   []float64
	MagDB   []float64

	ParamsOut *ami.Root
	Message   string
}

// Run loads the model binary at path, executes every configuration in
// order and releases the model before returning. A failing configuration
// aborts the sweep; the error names its label.
func Run(path string, tpl Template, configs []Config) ([]Result, error) {
	m, err := model.Load(path)
	if err != nil {
		return nil, err
	}
	defer m.Close()
	return RunWith(m, tpl, configs)
}

// RunWith executes the sweep against an already-loaded init capability.
// The caller keeps ownership of it.
func RunWith(m Initter, tpl Template, configs []Config) ([]Result, error) {
	results := make([]Result, 0, len(configs))
	for _, cfg := range configs {
		res, err := runOne(m, tpl, cfg)
		if err != nil {
			return nil, fmt.Errorf("sweep: config %q: %w", cfg.Label, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func runOne(m Initter, tpl Template, cfg Config) (Result, error) {
	params := tpl.Base.Clone()
	if params == nil {
		params = ami.NewTree()
	}
	params.Merge(cfg.Params)

	ctx, err := model.NewInitContext(&ami.Root{Name: tpl.Root, Params: params},
		tpl.Channel, tpl.SampleInterval, tpl.BitTime, tpl.Aggressors)
	if err != nil {
		return Result{}, err
	}
	out, err := m.Init(ctx)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Label:     cfg.Label,
		Impulse:   out.Impulse,
		Cursors:   analysis.FindCursors(out.Impulse, ctx.SamplesPerUI()),
		ParamsOut: out.ParamsOut,
		Message:   out.Message,
	}
	if tpl.FFTLen > 0 {
		res.Freqs, res.MagDB, err = analysis.FrequencyResponse(out.Impulse, tpl.SampleInterval, tpl.FFTLen)
		if err != nil {
			return Result{}, err
		}
	}
	return res, nil
}
