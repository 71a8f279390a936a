package gofacscore

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/floats"
)

// Dataset is an in-memory per-event table with named numeric channels,
// the core's view of one instrument measurement. All channels hold the
// same number of events.
type Dataset struct {
	name    string
	columns map[string][]float64
}

// NewDataset builds a dataset from channel columns. All columns must be
// non-empty and of equal length.
func NewDataset(name string, columns map[string][]float64) (*Dataset, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: dataset %q has no channels", ErrNoData, name)
	}
	events := -1
	for channel, col := range columns {
		if events == -1 {
			events = len(col)
		}
		if len(col) != events {
			return nil, fmt.Errorf("%w: channel %q has %d events, want %d", ErrConfig, channel, len(col), events)
		}
	}
	if events == 0 {
		return nil, fmt.Errorf("%w: dataset %q has no events", ErrNoData, name)
	}
	copied := make(map[string][]float64, len(columns))
	for channel, col := range columns {
		c := make([]float64, len(col))
		copy(c, col)
		copied[channel] = c
	}
	return &Dataset{name: name, columns: copied}, nil
}

// DatasetFromCSV reads a headed CSV of numeric columns into a dataset.
// Every header becomes a channel; every cell must parse as a float.
func DatasetFromCSV(name string, r io.Reader) (*Dataset, error) {
	rows, err := gocsv.CSVToMaps(r)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: dataset %q has no events", ErrNoData, name)
	}
	columns := make(map[string][]float64, len(rows[0]))
	for i, row := range rows {
		for channel, cell := range row {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: dataset %q channel %q row %d: %q is not numeric",
					ErrConfig, name, channel, i, cell)
			}
			columns[channel] = append(columns[channel], v)
		}
	}
	return NewDataset(name, columns)
}

// Name returns the dataset identifier (typically the well file prefix).
func (d *Dataset) Name() string { return d.name }

// Len returns the number of events.
func (d *Dataset) Len() int {
	for _, col := range d.columns {
		return len(col)
	}
	return 0
}

// Channels returns the channel names, sorted for stable iteration.
func (d *Dataset) Channels() []string {
	names := make([]string, 0, len(d.columns))
	for channel := range d.columns {
		names = append(names, channel)
	}
	sort.Strings(names)
	return names
}

// Channel returns the column for one channel, or ErrChannelNotFound.
// The returned slice is the dataset's own storage; callers must not mutate it.
func (d *Dataset) Channel(channel string) ([]float64, error) {
	col, ok := d.columns[channel]
	if !ok {
		return nil, fmt.Errorf("%w: %q in dataset %q", ErrChannelNotFound, channel, d.name)
	}
	return col, nil
}

// MinMax returns the observed extrema of one channel.
func (d *Dataset) MinMax(channel string) (lo, hi float64, err error) {
	col, err := d.Channel(channel)
	if err != nil {
		return 0, 0, err
	}
	return floats.Min(col), floats.Max(col), nil
}

// Transform returns a copy of the dataset with h applied to the named
// channels. Channels not listed are copied through untouched.
func (d *Dataset) Transform(h Hyperlog, channels ...string) (*Dataset, error) {
	columns := make(map[string][]float64, len(d.columns))
	for channel, col := range d.columns {
		c := make([]float64, len(col))
		copy(c, col)
		columns[channel] = c
	}
	for _, channel := range channels {
		col, ok := columns[channel]
		if !ok {
			return nil, fmt.Errorf("%w: %q in dataset %q", ErrChannelNotFound, channel, d.name)
		}
		for i, v := range col {
			col[i] = h.Apply(v)
		}
	}
	return &Dataset{name: d.name, columns: columns}, nil
}
