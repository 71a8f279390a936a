package processing

import (
	"fmt"
	"log"
	"math"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/masstiter/gofacscore"
	"github.com/masstiter/gofacscore/pkg/config"
)

// TiterProcessor turns per-well measurements into fitted binding curves.
type TiterProcessor struct{}

// NewTiterProcessor creates a new titration processor
func NewTiterProcessor() *TiterProcessor {
	return &TiterProcessor{}
}

// Process fits the saturation-binding model to one titration. A nil
// result with a nil error means the responses contained NaN and the fit
// was skipped.
func (p *TiterProcessor) Process(concentrations, responses []float64, cfg *config.Config) (*gofacscore.FitResult, error) {
	if len(concentrations) == 0 {
		return nil, fmt.Errorf("no concentration data provided")
	}

	if len(responses) == 0 {
		return nil, fmt.Errorf("no response data provided")
	}

	if len(concentrations) != len(responses) {
		return nil, fmt.Errorf("concentration and response data length mismatch: %d vs %d",
			len(concentrations), len(responses))
	}

	guess := p.guesses(concentrations, responses, cfg)
	if !cfg.Quiet {
		log.Printf("Fitting %d concentration stops, guesses: init=%g sat=%g Kd=%g",
			len(concentrations), guess.Init, guess.Sat, guess.Kd)
	}

	startTime := time.Now()
	res, err := gofacscore.FitSaturation(concentrations, responses, guess, gofacscore.FitOptions{
		KdMax: cfg.KdMax,
	})
	duration := time.Since(startTime)

	if err != nil {
		return nil, err
	}
	if res == nil {
		log.Printf("Fit skipped: response data contains NaN")
		return nil, nil
	}

	if !cfg.Quiet {
		if res.Status == gofacscore.OK {
			log.Printf("Fit completed: Kd=%.6g sat=%.6g init=%.6g chisq=%.6e r2=%.4f",
				res.Kd, res.Sat, res.Init, res.ChiSquare, res.RSquared)
		} else {
			log.Printf("Fit FAILED - Status=%s", res.Status)
		}
		log.Printf("Processing time: %v", duration)
	}

	return res, nil
}

// guesses uses caller-provided starting values when all three are given,
// otherwise derives them from the data: init from the smallest response,
// sat from the largest, Kd from the median concentration.
func (p *TiterProcessor) guesses(concentrations, responses []float64, cfg *config.Config) gofacscore.Guesses {
	if len(cfg.Guesses) >= 3 {
		return gofacscore.Guesses{Init: cfg.Guesses[0], Sat: cfg.Guesses[1], Kd: cfg.Guesses[2]}
	}

	initGuess, _ := stats.Min(responses)
	satGuess, _ := stats.Max(responses)
	kdGuess, err := stats.Median(nonZero(concentrations))
	if err != nil || kdGuess <= 0 {
		kdGuess = 1
	}
	return gofacscore.Guesses{Init: initGuess, Sat: satGuess, Kd: kdGuess}
}

// SummarizeWell reduces one well's response channel to a single value,
// restricted to events inside the gate when one is given. Statistic is
// "median" (default) or "mean". Returns NaN when no event passes the
// gate, which downstream fitting treats as a missing stop.
func (p *TiterProcessor) SummarizeWell(d *gofacscore.Dataset, gate gofacscore.Polygon, axes gofacscore.Axes, cfg *config.Config) (float64, error) {
	response, err := d.Channel(cfg.ResponseChannel)
	if err != nil {
		return 0, err
	}

	values := response
	if len(gate) > 0 {
		xs, err := d.Channel(axes.X)
		if err != nil {
			return 0, err
		}
		ys, err := d.Channel(axes.Y)
		if err != nil {
			return 0, err
		}
		values = values[:0:0]
		for i := range xs {
			if gate.Contains(xs[i], ys[i]) {
				values = append(values, response[i])
			}
		}
		if len(values) == 0 {
			log.Printf("Warning: no events inside gate for dataset %q", d.Name())
			return math.NaN(), nil
		}
	}

	var summary float64
	switch cfg.Statistic {
	case "", "median":
		summary, err = stats.Median(values)
	case "mean":
		summary, err = stats.Mean(values)
	default:
		return 0, fmt.Errorf("unknown statistic %q", cfg.Statistic)
	}
	if err != nil {
		return 0, fmt.Errorf("summarize %q: %w", d.Name(), err)
	}
	return summary, nil
}

// ProcessorFunc creates a function compatible with the worker pool
func (p *TiterProcessor) ProcessorFunc() func(concentrations, responses []float64, cfg *config.Config) (*gofacscore.FitResult, error) {
	return func(concentrations, responses []float64, cfg *config.Config) (*gofacscore.FitResult, error) {
		return p.Process(concentrations, responses, cfg)
	}
}

func nonZero(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if x > 0 {
			out = append(out, x)
		}
	}
	return out
}
