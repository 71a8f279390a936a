package processing_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	facs "github.com/masstiter/gofacscore"
	"github.com/masstiter/gofacscore/internal/processing"
	"github.com/masstiter/gofacscore/pkg/config"
)

func quietConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Quiet = true
	return cfg
}

func TestProcess_Validation(t *testing.T) {
	p := processing.NewTiterProcessor()
	cfg := quietConfig()

	cases := []struct {
		name  string
		concs []float64
		resps []float64
	}{
		{"NoConcentrations", nil, []float64{1, 2, 3}},
		{"NoResponses", []float64{1, 2, 3}, nil},
		{"LengthMismatch", []float64{1, 2, 3, 4}, []float64{1, 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := p.Process(tc.concs, tc.resps, cfg); err == nil {
				t.Error("Process() error = nil; want validation error")
			}
		})
	}
}

func TestProcess_FitsWithDerivedGuesses(t *testing.T) {
	p := processing.NewTiterProcessor()
	cfg := quietConfig()

	x := []float64{0, 10, 50, 200, 1000}
	y := make([]float64, len(x))
	for i, xi := range x {
		y[i] = facs.Saturation(xi, 5, 120, 40)
	}

	res, err := p.Process(x, y, cfg)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.Equal(t, facs.OK, res.Status)
	require.InDelta(t, 40, res.Kd, 1e-2)
	require.InDelta(t, 120, res.Sat, 1e-2)
	require.InDelta(t, 5, res.Init, 1e-2)
}

func TestProcess_NaNResponseReturnsNoResult(t *testing.T) {
	p := processing.NewTiterProcessor()

	res, err := p.Process(
		[]float64{0, 10, 50, 200, 1000},
		[]float64{1, 2, math.NaN(), 4, 5},
		quietConfig())
	require.NoError(t, err)
	require.Nil(t, res)
}

func TestProcess_ExplicitGuesses(t *testing.T) {
	p := processing.NewTiterProcessor()
	cfg := quietConfig()
	cfg.Guesses = config.ArrayFlags{0, 100, 60}

	x := []float64{0, 10, 50, 200, 1000}
	y := make([]float64, len(x))
	for i, xi := range x {
		y[i] = facs.Saturation(xi, 0, 100, 50)
	}

	res, err := p.Process(x, y, cfg)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.InDelta(t, 50, res.Kd, 1e-3)
}

func gatedWell(t *testing.T) *facs.Dataset {
	t.Helper()
	d, err := facs.NewDataset("well", map[string][]float64{
		"FSC-H": {10, 20, 90, 95},
		"SSC-H": {10, 20, 90, 95},
		"PE-A":  {100, 200, 5000, 9000},
	})
	require.NoError(t, err)
	return d
}

func TestSummarizeWell_GateRestrictsEvents(t *testing.T) {
	p := processing.NewTiterProcessor()
	cfg := quietConfig()
	cfg.ResponseChannel = "PE-A"
	axes := facs.Axes{X: "FSC-H", Y: "SSC-H"}

	// Gate covering only the two low-scatter events.
	gate := facs.Polygon{{X: 0, Y: 0}, {X: 50, Y: 0}, {X: 50, Y: 50}, {X: 0, Y: 50}}

	got, err := p.SummarizeWell(gatedWell(t), gate, axes, cfg)
	require.NoError(t, err)
	require.Equal(t, 150.0, got) // median of 100, 200

	// No gate: the whole channel is summarized.
	got, err = p.SummarizeWell(gatedWell(t), nil, axes, cfg)
	require.NoError(t, err)
	require.Equal(t, 2600.0, got) // median of all four

	cfg.Statistic = "mean"
	got, err = p.SummarizeWell(gatedWell(t), gate, axes, cfg)
	require.NoError(t, err)
	require.Equal(t, 150.0, got)
}

func TestSummarizeWell_EmptyGateIsNaN(t *testing.T) {
	p := processing.NewTiterProcessor()
	cfg := quietConfig()
	cfg.ResponseChannel = "PE-A"

	// Gate far away from every event.
	gate := facs.Polygon{{X: 1000, Y: 1000}, {X: 1010, Y: 1000}, {X: 1010, Y: 1010}, {X: 1000, Y: 1010}}

	got, err := p.SummarizeWell(gatedWell(t), gate, facs.Axes{X: "FSC-H", Y: "SSC-H"}, cfg)
	require.NoError(t, err)
	require.True(t, math.IsNaN(got))
}

func TestSummarizeWell_UnknownStatistic(t *testing.T) {
	p := processing.NewTiterProcessor()
	cfg := quietConfig()
	cfg.Statistic = "mode"

	_, err := p.SummarizeWell(gatedWell(t), nil, facs.Axes{X: "FSC-H", Y: "SSC-H"}, cfg)
	require.Error(t, err)
}
