package webhook

import (
	"math"

	"github.com/masstiter/gofacscore"
	"github.com/masstiter/gofacscore/pkg/models"
)

// Sampler evaluates a fitted binding curve at plotting resolution.
type Sampler struct{}

// NewSampler creates a new curve sampler
func NewSampler() *Sampler {
	return &Sampler{}
}

// SampleCurve samples the fitted model over the measured concentration
// range. Concentrations usually span decades, so samples are spaced
// logarithmically from the smallest positive stop, with an extra point at
// zero when the data includes it.
func (s *Sampler) SampleCurve(result *gofacscore.FitResult, concentrations []float64, numPoints int) []models.CurvePoint {
	if result == nil || len(concentrations) == 0 {
		return nil
	}
	if numPoints < 2 {
		numPoints = 100
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	hasZero := false
	for _, c := range concentrations {
		if c <= 0 {
			hasZero = true
			continue
		}
		lo = math.Min(lo, c)
		hi = math.Max(hi, c)
	}
	if math.IsInf(lo, 1) || lo == hi {
		return nil
	}

	var curve []models.CurvePoint
	if hasZero {
		curve = append(curve, models.CurvePoint{X: 0, Y: gofacscore.Saturation(0, result.Init, result.Sat, result.Kd)})
	}

	logLo, logHi := math.Log10(lo), math.Log10(hi)
	for i := 0; i < numPoints; i++ {
		x := math.Pow(10, logLo+(logHi-logLo)*float64(i)/float64(numPoints-1))
		curve = append(curve, models.CurvePoint{
			X: x,
			Y: gofacscore.Saturation(x, result.Init, result.Sat, result.Kd),
		})
	}
	return curve
}
