// Package model loads IBIS-AMI model binaries and drives their
// AMI_Init/AMI_Close entry points.
//
// A Model wraps one loaded binary. Calls are blocking foreign calls with no
// timeout: a misbehaving plugin can hang the caller, and a crash inside the
// plugin is not recoverable in process. Callers running untrusted models
// should isolate each Model in its own process. A Model must not be shared
// across goroutines; AMI models keep mutable state tied to the last init.
package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/simon9721/PyAMI/ami"
)

var (
	// ErrLoad marks binaries that are missing or lack the AMI entry points.
	ErrLoad = errors.New("model: load error")
	// ErrInit marks a failure status reported by the plugin itself; the
	// wrapped text carries the plugin's message verbatim.
	ErrInit = errors.New("model: init error")
)

// driver is the resolved entry-point pair of one loaded model binary.
// Implementations perform the raw foreign calls; Model owns buffer
// lifetimes, status interpretation and state retention.
type driver interface {
	// init calls AMI_Init. impulse is written in place by the plugin and
	// must stay valid for the duration of the call. paramsIn must be
	// NUL-terminated. The returned parameter text and message are copied
	// out of plugin memory before init returns.
	init(impulse []float64, rowSize, aggressors int, sampleInterval, bitTime float64, paramsIn []byte) initOut
	// close calls AMI_Close for a retained model state pointer.
	close(state uintptr) int
	// unload releases the binary.
	unload() error
}

type initOut struct {
	status    int
	state     uintptr
	paramsOut string
	message   string
}

// Result holds the copied-out products of one successful AMI_Init call.
type Result struct {
	// Impulse is the model-shaped impulse response, same length as the
	// channel input. It is a fresh copy, not the working buffer.
	Impulse []float64
	// ParamsOut is the decoded parameters-out tree, nil when the plugin
	// returned no parameter text.
	ParamsOut *ami.Root
	// RawParamsOut is the parameter text exactly as returned.
	RawParamsOut string
	// Message is the plugin's status message.
	Message string
}

// Model owns one loaded IBIS-AMI binary and the model-state pointer
// returned by its last successful init.
type Model struct {
	path      string
	drv       driver
	state     uintptr
	haveState bool
	closed    bool
}

// Load opens the model binary at path and resolves AMI_Init and AMI_Close.
// The returned Model must be released with Close on every exit path.
func Load(path string) (*Model, error) {
	drv, err := openDriver(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	return &Model{path: path, drv: drv}, nil
}

// Path returns the binary path the model was loaded from.
func (m *Model) Path() string { return m.path }

// Init runs AMI_Init with ctx. The channel samples are copied into the
// context's working buffer first, so ctx can be reused across calls.
// Re-initialization is allowed and replaces the retained model state.
func (m *Model) Init(ctx *InitContext) (*Result, error) {
	if m.closed {
		return nil, errors.New("model: Init called on closed model")
	}
	text, err := ami.Encode(ctx.Params)
	if err != nil {
		return nil, err
	}
	paramsIn := make([]byte, 0, len(text)+1)
	paramsIn = append(paramsIn, text...)
	paramsIn = append(paramsIn, 0)

	copy(ctx.work, ctx.Channel)
	out := m.drv.init(ctx.work, ctx.RowSize(), ctx.Aggressors, ctx.SampleInterval, ctx.BitTime, paramsIn)
	if out.status == 0 {
		return nil, fmt.Errorf("%w: %s: %s", ErrInit, ctx.Params.Name, strings.TrimSpace(out.message))
	}
	if out.state != 0 {
		// The plugin replaces prior state internally on re-init; we only
		// retain the newest pointer for teardown.
		m.state = out.state
		m.haveState = true
	}

	res := &Result{
		Impulse:      append([]float64(nil), ctx.work...),
		RawParamsOut: out.paramsOut,
		Message:      strings.TrimSpace(out.message),
	}
	if out.paramsOut != "" {
		root, err := ami.Decode(out.paramsOut)
		if err != nil {
			return nil, fmt.Errorf("parameters out from %s: %w", ctx.Params.Name, err)
		}
		res.ParamsOut = root
	}
	return res, nil
}

// Close calls AMI_Close for the retained model state and unloads the
// binary. It is idempotent: repeated calls return nil without touching the
// plugin again.
func (m *Model) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true

	var firstErr error
	if m.haveState {
		if status := m.drv.close(m.state); status == 0 {
			firstErr = fmt.Errorf("model: AMI_Close reported failure for %s", m.path)
		}
		m.haveState = false
		m.state = 0
	}
	if err := m.drv.unload(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
