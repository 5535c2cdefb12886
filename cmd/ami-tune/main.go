// Command ami-tune searches a model's tap settings for the configuration
// with the least residual inter-symbol interference on a given channel.
// The model is loaded once and re-initialized per candidate, strictly
// sequentially: AMI models are not reentrant, so a shared handle never
// serves concurrent evaluations.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/cwbudde/mayfly"

	"github.com/simon9721/PyAMI/ami"
	"github.com/simon9721/PyAMI/analysis"
	"github.com/simon9721/PyAMI/channel"
	"github.com/simon9721/PyAMI/internal/simio"
	"github.com/simon9721/PyAMI/model"
	"github.com/simon9721/PyAMI/plan"
)

type tapDef struct {
	name string
	max  int
}

func main() {
	modelPath := flag.String("model", "", "Path to the IBIS-AMI model binary (.so/.dll)")
	planPath := flag.String("plan", "", "Sweep plan JSON supplying root name, timing and base parameters")
	channelSpec := flag.String("channel", "lossy", "Channel response: ideal, lossy, or a WAV path")
	bandwidth := flag.Float64("bandwidth", 5e9, "Lossy channel -3 dB bandwidth in Hz")
	delayUI := flag.Float64("delay-ui", 2.0, "Lossy channel bulk delay in unit intervals")
	taps := flag.String("taps", "tx_tap_np1:8,tx_tap_nm1:16,tx_tap_nm2:8", "Comma-separated name:max tap ranges to search")
	variant := flag.String("variant", "desma", "Mayfly variant: ma|desma|olce|eobbma|gsasma|mpma|aoblmoa")
	pop := flag.Int("pop", 10, "Male and female population size")
	maxEvals := flag.Int("max-evals", 400, "Model evaluation budget")
	seed := flag.Int64("seed", 1, "Search RNG seed")
	jsonOut := flag.Bool("json", false, "Print the best configuration as JSON")
	flag.Parse()

	if *modelPath == "" {
		die("missing -model")
	}
	if *planPath == "" {
		die("missing -plan")
	}

	p, err := plan.LoadJSON(*planPath)
	if err != nil {
		die("failed to load plan: %v", err)
	}
	defs, err := parseTapDefs(*taps)
	if err != nil {
		die("bad -taps: %v", err)
	}

	ch, err := buildChannel(*channelSpec, p, *bandwidth, *delayUI)
	if err != nil {
		die("failed to build channel: %v", err)
	}

	m, err := model.Load(*modelPath)
	if err != nil {
		die("failed to load model: %v", err)
	}
	defer m.Close()

	best, err := optimize(m, p, ch, defs, *variant, *pop, *maxEvals, *seed)
	if err != nil {
		die("search failed: %v", err)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(best); err != nil {
			die("json encode failed: %v", err)
		}
		return
	}
	fmt.Printf("Best configuration after %d evals (score %.5f, lower is less ISI):\n", best.Evals, best.Score)
	for _, d := range defs {
		fmt.Printf("  %s = %d\n", d.name, best.Taps[d.name])
	}
	c := best.Cursors
	fmt.Printf("Cursors: main %.4f at %d, pre %.4f, post1 %.4f, post2 %.4f\n",
		c.Main, c.MainIndex, c.Pre, c.Post1, c.Post2)
}

type tuneResult struct {
	Taps    map[string]int   `json:"taps"`
	Score   float64          `json:"score"`
	Cursors analysis.Cursors `json:"cursors"`
	Evals   int              `json:"evals"`
}

func optimize(m *model.Model, p *plan.Plan, ch []float64, defs []tapDef, variant string, pop, maxEvals int, seed int64) (*tuneResult, error) {
	if pop < 2 {
		pop = 2
	}
	iters := maxEvals / (2 * pop)
	if iters < 1 {
		iters = 1
	}
	cfg, err := newMayflyConfig(variant, pop, len(defs), iters)
	if err != nil {
		return nil, err
	}
	cfg.Rand = rand.New(rand.NewSource(seed))

	best := &tuneResult{Score: math.Inf(1)}
	evals := 0
	cfg.ObjectiveFunc = func(pos []float64) float64 {
		evals++
		candidate := fromNormalized(pos, defs)
		cursors, err := evaluate(m, p, ch, defs, candidate)
		if err != nil {
			// A rejected configuration scores worse than any real one.
			return 1e6
		}
		score := residualISI(cursors)
		if score < best.Score {
			best.Score = score
			best.Taps = candidate
			best.Cursors = cursors
		}
		return score
	}

	if _, err := runMayfly(cfg); err != nil {
		return nil, err
	}
	if best.Taps == nil {
		return nil, fmt.Errorf("no candidate evaluated successfully")
	}
	best.Evals = evals
	return best, nil
}

// evaluate runs one candidate tap configuration through the loaded model.
// Taps apply in definition order so the serialized parameter text is
// stable across runs.
func evaluate(m *model.Model, p *plan.Plan, ch []float64, defs []tapDef, taps map[string]int) (analysis.Cursors, error) {
	params := p.Base.Clone()
	if params == nil {
		params = ami.NewTree()
	}
	for _, d := range defs {
		if err := params.Set(d.name, taps[d.name]); err != nil {
			return analysis.Cursors{}, err
		}
	}
	ctx, err := model.NewInitContext(&ami.Root{Name: p.Root, Params: params},
		ch, p.SampleInterval, p.BitTime, p.Aggressors)
	if err != nil {
		return analysis.Cursors{}, err
	}
	res, err := m.Init(ctx)
	if err != nil {
		return analysis.Cursors{}, err
	}
	return analysis.FindCursors(res.Impulse, ctx.SamplesPerUI()), nil
}

// residualISI is the off-cursor tap energy relative to the main tap.
func residualISI(c analysis.Cursors) float64 {
	main := math.Abs(c.Main)
	if main < 1e-12 {
		return 1e6
	}
	return (math.Abs(c.Pre) + math.Abs(c.Post1) + math.Abs(c.Post2)) / main
}

func fromNormalized(pos []float64, defs []tapDef) map[string]int {
	out := make(map[string]int, len(defs))
	for i, d := range defs {
		v := pos[i]
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		out[d.name] = int(math.Round(v * float64(d.max)))
	}
	return out
}

func parseTapDefs(raw string) ([]tapDef, error) {
	var defs []tapDef
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, maxStr, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("%q is not name:max", part)
		}
		max, err := strconv.Atoi(maxStr)
		if err != nil || max < 1 {
			return nil, fmt.Errorf("%q has no positive max", part)
		}
		defs = append(defs, tapDef{name: name, max: max})
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("no taps to search")
	}
	return defs, nil
}

func newMayflyConfig(variant string, pop int, dims int, iters int) (*mayfly.Config, error) {
	var cfg *mayfly.Config
	switch variant {
	case "ma":
		cfg = mayfly.NewDefaultConfig()
	case "desma":
		cfg = mayfly.NewDESMAConfig()
	case "olce":
		cfg = mayfly.NewOLCEConfig()
	case "eobbma":
		cfg = mayfly.NewEOBBMAConfig()
	case "gsasma":
		cfg = mayfly.NewGSASMAConfig()
	case "mpma":
		cfg = mayfly.NewMPMAConfig()
	case "aoblmoa":
		cfg = mayfly.NewAOBLMOAConfig()
	default:
		return nil, fmt.Errorf("unsupported variant %q", variant)
	}
	cfg.ProblemSize = dims
	cfg.LowerBound = 0.0
	cfg.UpperBound = 1.0
	cfg.MaxIterations = iters
	cfg.NPop = pop
	cfg.NPopF = pop
	cfg.NC = 2 * pop
	cfg.NM = maxInt(1, int(math.Round(0.05*float64(pop))))
	return cfg, nil
}

func runMayfly(cfg *mayfly.Config) (_ *mayfly.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mayfly panic: %v", r)
		}
	}()
	return mayfly.Optimize(cfg)
}

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

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
