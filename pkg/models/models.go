package models

import (
	"time"

	"github.com/masstiter/gofacscore"
	"github.com/masstiter/gofacscore/pkg/config"
)

// TitrationData represents one incoming titration: parallel slices of
// concentrations and per-well summarized responses.
type TitrationData struct {
	Timestamp      string    `json:"timestamp"`
	Wells          []string  `json:"wells"`
	Concentrations []float64 `json:"concentrations"`
	Responses      []float64 `json:"responses"`
}

// BatchItem represents a single titration with its position in the batch
type BatchItem struct {
	TitrationData TitrationData `json:"titration_data"`
	Iteration     int           `json:"iteration"`
}

// TitrationBatch represents a batch of titrations to fit
type TitrationBatch struct {
	BatchID    string      `json:"batch_id"`
	Timestamp  time.Time   `json:"timestamp"`
	Titrations []BatchItem `json:"titrations"`
}

// WorkItem represents a single curve-fitting task
type WorkItem struct {
	ID             int
	RequestID      string
	BatchID        string
	Iteration      int
	Wells          []string
	Concentrations []float64
	Responses      []float64
	Config         *config.Config
	StartTime      time.Time
}

// WorkResult contains the result of fitting one titration
type WorkResult struct {
	ID             int
	RequestID      string
	BatchID        string
	Iteration      int
	Result         *gofacscore.FitResult
	ProcessingTime time.Duration
	Success        bool
	Wells          []string
	Concentrations []float64
	Responses      []float64
}

// WebhookItem represents a webhook task
type WebhookItem struct {
	RequestID      string
	Result         *gofacscore.FitResult
	Wells          []string
	Concentrations []float64
	Responses      []float64
	Curve          []CurvePoint
}

// CurvePoint is one sample of the fitted curve for the plot consumer.
type CurvePoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// WebhookResponse represents the webhook payload structure
type WebhookResponse struct {
	ID             string       `json:"id"`
	Time           string       `json:"time"`
	Kd             float64      `json:"kd"`
	Sat            float64      `json:"sat"`
	Init           float64      `json:"init"`
	KdStdErr       *float64     `json:"kd_std_err"` // null when not computable
	ChiSquare      float64      `json:"chi_square"`
	RSquared       float64      `json:"r_squared"`
	Wells          []string     `json:"wells"`
	Concentrations []float64    `json:"concentrations"`
	Responses      []float64    `json:"responses"`
	Curve          []CurvePoint `json:"curve"`
}

// TitrationTiming tracks performance metrics for individual fits
type TitrationTiming struct {
	Iteration      int           `json:"iteration"`
	ProcessingTime time.Duration `json:"processing_time_ms"`
	ChiSquare      float64       `json:"chi_square"`
	RSquared       float64       `json:"r_squared"`
	Success        bool          `json:"success"`
}

// BufferSet contains reusable buffers to reduce allocations
type BufferSet struct {
	Concentrations []float64
	Responses      []float64
}
