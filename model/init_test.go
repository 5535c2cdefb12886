package model

import (
	"errors"
	"testing"

	"github.com/simon9721/PyAMI/ami"
)

func TestNewInitContextValidation(t *testing.T) {
	channel := []float64{1, 0, 0, 0}
	root := testRoot()
	dt := 1.0 / (10e9 * 32)
	ui := 1.0 / 10e9

	cases := []struct {
		name    string
		params  *ami.Root
		channel []float64
		dt      float64
		ui      float64
		aggr    int
	}{
		{"nil params", nil, channel, dt, ui, 0},
		{"empty channel", root, nil, dt, ui, 0},
		{"zero sample interval", root, channel, 0, ui, 0},
		{"negative sample interval", root, channel, -dt, ui, 0},
		{"bit time below sample interval", root, channel, dt, dt / 2, 0},
		{"negative aggressors", root, channel, dt, ui, -1},
		{"indivisible aggressor rows", root, []float64{1, 0, 0}, dt, ui, 1},
	}
	for _, tc := range cases {
		_, err := NewInitContext(tc.params, tc.channel, tc.dt, tc.ui, tc.aggr)
		if !errors.Is(err, ErrInvalidInit) {
			t.Fatalf("%s: err = %v, want ErrInvalidInit", tc.name, err)
		}
	}
}

func TestNewInitContextCopiesChannel(t *testing.T) {
	channel := []float64{1, 0, 0, 0}
	ctx, err := NewInitContext(testRoot(), channel, 1e-12, 32e-12, 0)
	if err != nil {
		t.Fatalf("NewInitContext: %v", err)
	}
	channel[0] = -5
	if ctx.Channel[0] != 1 {
		t.Fatalf("context aliases caller channel")
	}
}

func TestSamplesPerUIAndRowSize(t *testing.T) {
	channel := make([]float64, 6400)
	channel[0] = 1
	ui := 1.0 / 10e9
	dt := ui / 32
	ctx, err := NewInitContext(testRoot(), channel, dt, ui, 0)
	if err != nil {
		t.Fatalf("NewInitContext: %v", err)
	}
	if got := ctx.SamplesPerUI(); got != 32 {
		t.Fatalf("SamplesPerUI() = %d, want 32", got)
	}
	if got := ctx.RowSize(); got != 6400 {
		t.Fatalf("RowSize() = %d, want 6400", got)
	}
}

func TestRowSizeWithAggressors(t *testing.T) {
	channel := make([]float64, 128)
	ctx, err := NewInitContext(testRoot(), channel, 1e-12, 32e-12, 1)
	if err != nil {
		t.Fatalf("NewInitContext: %v", err)
	}
	if got := ctx.RowSize(); got != 64 {
		t.Fatalf("RowSize() = %d, want 64", got)
	}
}
