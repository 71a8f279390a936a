package gofacscore

import "math"

// DefaultHyperlogB is the linearization width the acquisition notebooks
// always used.
const DefaultHyperlogB = 100.0

// DefaultHyperlogChannels are the scatter and fluorescence channels the
// display transform is applied to by convention.
var DefaultHyperlogChannels = []string{"FSC-H", "SSC-H", "SSC-W", "Alexa Fluor 680-A", "PE-A"}

// Hyperlog is the display rescaling applied to raw cytometer channels:
// logarithmic for large magnitudes, linear through zero, symmetric for
// negative values. B sets the width of the linear region.
type Hyperlog struct {
	B float64
}

// NewHyperlog returns the transform with the given linear width; a
// non-positive b falls back to DefaultHyperlogB.
func NewHyperlog(b float64) Hyperlog {
	if b <= 0 {
		b = DefaultHyperlogB
	}
	return Hyperlog{B: b}
}

// Apply rescales a single value.
func (h Hyperlog) Apply(v float64) float64 {
	b := h.B
	if b <= 0 {
		b = DefaultHyperlogB
	}
	return math.Copysign(math.Log10(1+math.Abs(v)/b), v)
}
