package model

import (
	"errors"
	"fmt"
	"math"

	"github.com/simon9721/PyAMI/ami"
)

// ErrInvalidInit marks initialization contexts that violate the AMI_Init
// invariants before any foreign call is made.
var ErrInvalidInit = errors.New("model: invalid init parameters")

// InitContext is the fixed initialization record for one AMI_Init call:
// the channel impulse response, its timing context and the parameter tree.
// It is immutable after construction; the in-place working buffer the
// plugin writes to is allocated here but only touched during Init.
type InitContext struct {
	Params         *ami.Root
	Channel        []float64
	SampleInterval float64 // seconds per sample, > 0
	BitTime        float64 // unit interval in seconds, >= SampleInterval
	Aggressors     int     // interfering aggressor channel count

	work []float64
}

// NewInitContext validates and assembles an initialization record. The
// channel samples are copied, so the caller's slice stays untouched by the
// plugin.
func NewInitContext(params *ami.Root, channel []float64, sampleInterval, bitTime float64, aggressors int) (*InitContext, error) {
	if params == nil || params.Params == nil || params.Name == "" {
		return nil, fmt.Errorf("%w: missing parameter tree root", ErrInvalidInit)
	}
	if len(channel) < 1 {
		return nil, fmt.Errorf("%w: empty channel response", ErrInvalidInit)
	}
	if !(sampleInterval > 0) {
		return nil, fmt.Errorf("%w: sample interval %g must be > 0", ErrInvalidInit, sampleInterval)
	}
	if !(bitTime >= sampleInterval) {
		return nil, fmt.Errorf("%w: bit time %g must be >= sample interval %g", ErrInvalidInit, bitTime, sampleInterval)
	}
	if aggressors < 0 {
		return nil, fmt.Errorf("%w: aggressor count %d must be >= 0", ErrInvalidInit, aggressors)
	}
	if aggressors > 0 && len(channel)%(aggressors+1) != 0 {
		return nil, fmt.Errorf("%w: %d samples do not divide into %d rows", ErrInvalidInit, len(channel), aggressors+1)
	}
	ch := make([]float64, len(channel))
	copy(ch, channel)
	return &InitContext{
		Params:         params.Clone(),
		Channel:        ch,
		SampleInterval: sampleInterval,
		BitTime:        bitTime,
		Aggressors:     aggressors,
		work:           make([]float64, len(channel)),
	}, nil
}

// RowSize is the per-row sample count of the impulse matrix.
func (c *InitContext) RowSize() int {
	return len(c.Channel) / (c.Aggressors + 1)
}

// SamplesPerUI is the number of samples spanning one unit interval.
func (c *InitContext) SamplesPerUI() int {
	return int(math.Round(c.BitTime / c.SampleInterval))
}
