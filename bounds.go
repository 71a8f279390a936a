package gofacscore

import (
	"fmt"
	"math"
)

// DefaultRoundInterval is the coordinate grid shared by bounds and gates.
const DefaultRoundInterval = 5.0

// Axes names the two channels a bounding box or gate is defined over.
type Axes struct {
	X string
	Y string
}

// Box is an axis-aligned bounding box whose edges sit on the rounding grid.
type Box struct {
	XMin float64
	XMax float64
	YMin float64
	YMax float64
}

// SpanX returns the box width.
func (b Box) SpanX() float64 { return b.XMax - b.XMin }

// SpanY returns the box height.
func (b Box) SpanY() float64 { return b.YMax - b.YMin }

// BoundsOptions configures the rounding grid. The zero value uses
// DefaultRoundInterval.
type BoundsOptions struct {
	RoundInterval float64
}

func (o BoundsOptions) interval() float64 {
	if o.RoundInterval > 0 {
		return o.RoundInterval
	}
	return DefaultRoundInterval
}

// Bounds computes the bounding box of the named channels across all given
// datasets. Minima round down and maxima round up to the grid, so the box
// always contains every event. A dataset missing a channel is a
// configuration fault.
func Bounds(datasets []*Dataset, axes Axes, opts BoundsOptions) (Box, error) {
	if len(datasets) == 0 {
		return Box{}, fmt.Errorf("%w: no datasets for bounds", ErrNoData)
	}

	xmin, xmax := math.Inf(1), math.Inf(-1)
	ymin, ymax := math.Inf(1), math.Inf(-1)
	for _, d := range datasets {
		lo, hi, err := d.MinMax(axes.X)
		if err != nil {
			return Box{}, err
		}
		xmin = math.Min(xmin, lo)
		xmax = math.Max(xmax, hi)

		lo, hi, err = d.MinMax(axes.Y)
		if err != nil {
			return Box{}, err
		}
		ymin = math.Min(ymin, lo)
		ymax = math.Max(ymax, hi)
	}

	ri := opts.interval()
	return Box{
		XMin: math.Floor(xmin/ri) * ri,
		XMax: math.Ceil(xmax/ri) * ri,
		YMin: math.Floor(ymin/ri) * ri,
		YMax: math.Ceil(ymax/ri) * ri,
	}, nil
}

// BoundsOf is the single-dataset convenience wrapper around Bounds.
func BoundsOf(d *Dataset, axes Axes, opts BoundsOptions) (Box, error) {
	return Bounds([]*Dataset{d}, axes, opts)
}
