package gofacscore

import (
	"fmt"
	"log"
	"math"

	"github.com/maorshutman/lm"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// Fit status values.
const (
	OK = "OK"
)

// DefaultKdMax is the upper box constraint on the dissociation constant.
const DefaultKdMax = 40000.0

// Saturation evaluates the single-site binding model
// init + (sat-init)*x/(x+kd) at concentration x.
func Saturation(x, init, sat, kd float64) float64 {
	if x == 0 {
		return init
	}
	return init + (sat-init)*x/(x+kd)
}

// Guesses are the caller-supplied starting values for the three fitted
// parameters.
type Guesses struct {
	Init float64
	Sat  float64
	Kd   float64
}

// FitOptions tunes the saturation fit. The zero value gets the standard
// Kd box [0, DefaultKdMax] and a handful of restarts.
type FitOptions struct {
	KdMin       float64
	KdMax       float64 // 0 means DefaultKdMax
	MaxRestarts int     // 0 means 5
	MinChiSq    float64 // restart until chi-square drops below this; 0 means 1e-12
}

func (o FitOptions) withDefaults() FitOptions {
	if o.KdMax <= 0 {
		o.KdMax = DefaultKdMax
	}
	if o.MaxRestarts <= 0 {
		o.MaxRestarts = 5
	}
	if o.MinChiSq <= 0 {
		o.MinChiSq = 1e-12
	}
	return o
}

// FitResult holds the fitted saturation-binding parameters and the fit
// quality metrics derived from them.
type FitResult struct {
	Kd   float64
	Sat  float64
	Init float64

	// KdStdErr is the standard error of Kd from the covariance estimate,
	// NaN when the estimate is not computable.
	KdStdErr float64

	// ChiSquare is the unweighted residual sum of squares.
	ChiSquare float64

	// RSquared is 1 - redchi/var(y, ddof=2), where redchi divides the
	// chi-square by n-3. Kept bit-for-bit compatible with the historical
	// reports even though it is not a textbook R².
	RSquared float64

	// Status is OK when a solver converged and "ERROR" when every
	// attempt failed and the result echoes the best point seen.
	Status string
}

// Fitter fits the saturation-binding model to one titration.
type Fitter struct {
	X       []float64 // concentrations
	Y       []float64 // per-well responses
	Guess   Guesses
	Options FitOptions
}

// NewFitter builds a fitter over (concentration, response) pairs.
func NewFitter(x, y []float64, guess Guesses) *Fitter {
	return &Fitter{X: x, Y: y, Guess: guess}
}

// FitSaturation runs a one-shot saturation fit. A nil result with a nil
// error means the responses contained NaN and no fit was attempted;
// callers must check for that before reading the result.
func FitSaturation(x, y []float64, guess Guesses, opts FitOptions) (*FitResult, error) {
	f := NewFitter(x, y, guess)
	f.Options = opts
	return f.Fit()
}

// Fit runs Levenberg-Marquardt from the guesses, falling back to
// Nelder-Mead when LM cannot make progress, restarting from a nudged
// point until the chi-square target or the restart budget is hit.
func (f *Fitter) Fit() (*FitResult, error) {
	if len(f.X) != len(f.Y) {
		return nil, fmt.Errorf("%w: %d concentrations vs %d responses", ErrConfig, len(f.X), len(f.Y))
	}
	if len(f.X) < 4 {
		return nil, fmt.Errorf("%w: %d points cannot constrain 3 parameters", ErrConfig, len(f.X))
	}
	for _, v := range f.Y {
		if math.IsNaN(v) {
			return nil, nil
		}
	}

	opts := f.Options.withDefaults()

	var (
		params  = f.initialParams(opts)
		bestChi = math.Inf(1)
		best    []float64
	)

	for iter := 0; iter < opts.MaxRestarts; iter++ {
		res, ok := f.lmFit(params)
		if !ok {
			res, ok = f.nmFit(params)
		}
		if ok {
			if chi := f.chiSq(res, opts); chi < bestChi {
				bestChi = chi
				best = res
			}
		}
		if bestChi < opts.MinChiSq {
			break
		}
		params = f.perturb(params, best, opts)
	}

	if best == nil {
		return &FitResult{
			Kd:        clamp(f.Guess.Kd, opts.KdMin, opts.KdMax),
			Sat:       f.Guess.Sat,
			Init:      f.Guess.Init,
			KdStdErr:  math.NaN(),
			ChiSquare: math.Inf(1),
			RSquared:  math.Inf(-1),
			Status:    "ERROR",
		}, nil
	}

	n := float64(len(f.X))
	redchi := bestChi / (n - 3)
	return &FitResult{
		Kd:        clamp(best[2], opts.KdMin, opts.KdMax),
		Sat:       best[1],
		Init:      best[0],
		KdStdErr:  f.kdStdErr(best, redchi, opts),
		ChiSquare: bestChi,
		RSquared:  1 - redchi/f.sampleVariance(),
		Status:    OK,
	}, nil
}

// residuals writes y - model(x) into dst for the parameter vector
// p = (init, sat, Kd), with Kd held inside its box.
func (f *Fitter) residuals(opts FitOptions) func(dst, p []float64) {
	return func(dst, p []float64) {
		kd := clamp(p[2], opts.KdMin, opts.KdMax)
		for i, xi := range f.X {
			dst[i] = f.Y[i] - Saturation(xi, p[0], p[1], kd)
		}
	}
}

func (f *Fitter) chiSq(p []float64, opts FitOptions) float64 {
	kd := clamp(p[2], opts.KdMin, opts.KdMax)
	chi := 0.0
	for i, xi := range f.X {
		r := f.Y[i] - Saturation(xi, p[0], p[1], kd)
		chi += r * r
	}
	return chi
}

func (f *Fitter) lmFit(init []float64) (params []float64, ok bool) {
	fnc := f.residuals(f.Options.withDefaults())
	jac := lm.NumJac{Func: fnc}

	start := make([]float64, len(init))
	copy(start, init)

	problem := lm.LMProblem{
		Dim:        3,
		Size:       len(f.X),
		Func:       fnc,
		Jac:        jac.Jac,
		InitParams: start,
		Tau:        1e-13,
		Eps1:       1e-8,
		Eps2:       1e-8,
	}

	// LM panics on singular matrices instead of returning an error.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("LM fit panicked: %v", r)
			params, ok = nil, false
		}
	}()

	res, err := lm.LM(problem, &lm.Settings{Iterations: 1000, ObjectiveTol: 1e-16})
	if err != nil {
		log.Printf("LM fit failed: %v", err)
		return nil, false
	}
	for _, v := range res.X {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, false
		}
	}
	return res.X, true
}

func (f *Fitter) nmFit(init []float64) ([]float64, bool) {
	opts := f.Options.withDefaults()
	problem := optimize.Problem{
		Func: func(p []float64) float64 { return f.chiSq(p, opts) },
	}

	start := make([]float64, len(init))
	copy(start, init)

	res, err := optimize.Minimize(problem, start, nil, &optimize.NelderMead{})
	if err != nil {
		log.Printf("Nelder-Mead fit failed: %v", err)
		return nil, false
	}
	return res.X, true
}

// kdStdErr estimates Kd's standard error as sqrt(redchi * inv(J'J)[Kd,Kd])
// with a numeric Jacobian at the solution.
func (f *Fitter) kdStdErr(params []float64, redchi float64, opts FitOptions) float64 {
	jac := mat.NewDense(len(f.X), 3, nil)
	fd.Jacobian(jac, f.residuals(opts), params, nil)

	var jtj mat.Dense
	jtj.Mul(jac.T(), jac)

	var cov mat.Dense
	if err := cov.Inverse(&jtj); err != nil {
		return math.NaN()
	}
	v := cov.At(2, 2) * redchi
	if v < 0 {
		return math.NaN()
	}
	return math.Sqrt(v)
}

// sampleVariance is var(y) with two delta degrees of freedom, matching
// the divisor the historical R² report used.
func (f *Fitter) sampleVariance() float64 {
	mean := stat.Mean(f.Y, nil)
	ss := 0.0
	for _, v := range f.Y {
		d := v - mean
		ss += d * d
	}
	return ss / float64(len(f.Y)-2)
}

func (f *Fitter) initialParams(opts FitOptions) []float64 {
	return []float64{f.Guess.Init, f.Guess.Sat, clamp(f.Guess.Kd, opts.KdMin, opts.KdMax)}
}

// perturb picks the next restart point: scale the best point up a notch
// so a repeat solve can escape a shallow minimum, resetting anything
// non-finite back to the caller's guesses.
func (f *Fitter) perturb(prev, best []float64, opts FitOptions) []float64 {
	src := best
	if src == nil {
		src = prev
	}
	next := make([]float64, 3)
	copy(next, src)
	for i, v := range next {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			next[i] = f.initialParams(opts)[i]
		}
	}
	next[1] *= 1.1
	next[2] = clamp(next[2]*1.1, opts.KdMin, opts.KdMax)
	if next[2] == 0 {
		next[2] = clamp(f.Guess.Kd, opts.KdMin, opts.KdMax)
	}
	return next
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
