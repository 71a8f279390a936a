package gofacscore_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	facs "github.com/masstiter/gofacscore"
)

func TestNewDataset_Validation(t *testing.T) {
	_, err := facs.NewDataset("empty", nil)
	if !errors.Is(err, facs.ErrNoData) {
		t.Errorf("NewDataset(nil) error = %v; want ErrNoData", err)
	}

	_, err = facs.NewDataset("ragged", map[string][]float64{
		"A": {1, 2, 3},
		"B": {1, 2},
	})
	if !errors.Is(err, facs.ErrConfig) {
		t.Errorf("NewDataset(ragged) error = %v; want ErrConfig", err)
	}

	_, err = facs.NewDataset("zero-events", map[string][]float64{"A": {}})
	if !errors.Is(err, facs.ErrNoData) {
		t.Errorf("NewDataset(zero events) error = %v; want ErrNoData", err)
	}
}

func TestDataset_ChannelAccess(t *testing.T) {
	d := mustDataset(t, "well", map[string][]float64{
		"FSC-H": {5, 1, 9},
		"PE-A":  {2, 8, 4},
	})

	require.Equal(t, 3, d.Len())
	require.Equal(t, []string{"FSC-H", "PE-A"}, d.Channels())

	col, err := d.Channel("PE-A")
	require.NoError(t, err)
	require.Equal(t, []float64{2, 8, 4}, col)

	lo, hi, err := d.MinMax("FSC-H")
	require.NoError(t, err)
	require.Equal(t, 1.0, lo)
	require.Equal(t, 9.0, hi)

	_, err = d.Channel("SSC-H")
	require.ErrorIs(t, err, facs.ErrChannelNotFound)
}

func TestDatasetFromCSV(t *testing.T) {
	csv := strings.Join([]string{
		"FSC-H,PE-A",
		"100.5,3",
		"250,17.25",
		"99,-4",
	}, "\n")

	d, err := facs.DatasetFromCSV("Specimen_001_A1", strings.NewReader(csv))
	require.NoError(t, err)
	require.Equal(t, "Specimen_001_A1", d.Name())
	require.Equal(t, 3, d.Len())

	col, err := d.Channel("PE-A")
	require.NoError(t, err)
	require.Equal(t, []float64{3, 17.25, -4}, col)
}

func TestDatasetFromCSV_NonNumeric(t *testing.T) {
	csv := "FSC-H,PE-A\n100,oops\n"
	_, err := facs.DatasetFromCSV("bad", strings.NewReader(csv))
	require.ErrorIs(t, err, facs.ErrConfig)
}

func TestDataset_Transform(t *testing.T) {
	d := mustDataset(t, "well", map[string][]float64{
		"FSC-H": {0, 100, 900},
		"PE-A":  {1, 2, 3},
	})

	h := facs.NewHyperlog(100)
	out, err := d.Transform(h, "FSC-H")
	require.NoError(t, err)

	got, err := out.Channel("FSC-H")
	require.NoError(t, err)
	require.InDelta(t, 0.0, got[0], 1e-12)
	require.InDelta(t, h.Apply(100), got[1], 1e-12)
	require.InDelta(t, 1.0, got[2], 1e-12) // log10(1 + 900/100)

	// Untouched channels and the source dataset keep their values.
	pe, err := out.Channel("PE-A")
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2, 3}, pe)

	orig, err := d.Channel("FSC-H")
	require.NoError(t, err)
	require.Equal(t, []float64{0, 100, 900}, orig)

	_, err = d.Transform(h, "missing")
	require.ErrorIs(t, err, facs.ErrChannelNotFound)
}

func TestHyperlog_Symmetric(t *testing.T) {
	h := facs.NewHyperlog(0) // falls back to the default width
	require.Equal(t, facs.DefaultHyperlogB, h.B)

	for _, v := range []float64{0.5, 10, 1234.5} {
		require.InDelta(t, h.Apply(v), -h.Apply(-v), 1e-12)
	}
	require.Equal(t, 0.0, h.Apply(0))
}
