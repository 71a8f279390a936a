package handlers

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/masstiter/gofacscore/internal/utils"
	"github.com/masstiter/gofacscore/pkg/config"
	"github.com/masstiter/gofacscore/pkg/models"
	"github.com/masstiter/gofacscore/pkg/webhook"
	"github.com/masstiter/gofacscore/pkg/worker"
)

// BatchHandler handles batch titration fit requests
type BatchHandler struct {
	config     *config.Config
	workerPool *worker.Pool
	sampler    *webhook.Sampler
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(cfg *config.Config, pool *worker.Pool) *BatchHandler {
	return &BatchHandler{
		config:     cfg,
		workerPool: pool,
		sampler:    webhook.NewSampler(),
	}
}

// ServeHTTP implements the http.Handler interface
func (h *BatchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setupCORS(w)

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.Method != "POST" {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var batch models.TitrationBatch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		writeError(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}

	if len(batch.Titrations) == 0 {
		writeError(w, "No titrations provided in batch", http.StatusBadRequest)
		return
	}

	log.Printf("Batch processing started - ID: %s, Titrations: %d", batch.BatchID, len(batch.Titrations))

	// Process batch asynchronously
	go h.processBatchAsync(batch)

	// Return immediate response
	response := map[string]interface{}{
		"success":    true,
		"batch_id":   batch.BatchID,
		"titrations": len(batch.Titrations),
		"message":    "Batch processing started with worker pool",
	}

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(response)
}

// processBatchAsync submits every titration to the pool and collects results
func (h *BatchHandler) processBatchAsync(batch models.TitrationBatch) {
	batchStartTime := time.Now()
	timings := make([]models.TitrationTiming, len(batch.Titrations))
	resultsReceived := 0

	for _, item := range batch.Titrations {
		job := h.createWorkItem(item, batch.BatchID)
		h.workerPool.SubmitJob(job)
	}

	for resultsReceived < len(batch.Titrations) {
		if result, ok := h.workerPool.GetResult(); ok {
			h.processResult(result, timings)
			resultsReceived++
		} else {
			// No results available yet, small delay to prevent busy waiting
			time.Sleep(1 * time.Millisecond)
		}
	}

	totalBatchTime := time.Since(batchStartTime)
	concurrency := h.getConcurrency()

	h.saveTimingResults(batch.BatchID, totalBatchTime, timings, concurrency)

	log.Printf("Batch processing completed - ID: %s, Total time: %v", batch.BatchID, totalBatchTime)
}

// createWorkItem converts a batch item to a work item
func (h *BatchHandler) createWorkItem(item models.BatchItem, batchID string) models.WorkItem {
	data := item.TitrationData

	for i, v := range data.Responses {
		if math.IsInf(v, 0) {
			log.Printf("Warning: infinite response at stop %d of iteration %d", i, item.Iteration)
		}
	}

	return models.WorkItem{
		ID:             item.Iteration,
		RequestID:      utils.GenerateID(),
		BatchID:        batchID,
		Iteration:      item.Iteration,
		Wells:          data.Wells,
		Concentrations: data.Concentrations,
		Responses:      data.Responses,
		Config:         h.config,
		StartTime:      time.Now(),
	}
}

// processResult records timing for a finished fit and queues its webhook
func (h *BatchHandler) processResult(result models.WorkResult, timings []models.TitrationTiming) {
	timing := models.TitrationTiming{
		Iteration:      result.Iteration,
		ProcessingTime: result.ProcessingTime,
		Success:        result.Success,
	}
	if result.Result != nil {
		timing.ChiSquare = result.Result.ChiSquare
		timing.RSquared = result.Result.RSquared
	}
	if result.Iteration >= 0 && result.Iteration < len(timings) {
		timings[result.Iteration] = timing
	}

	if result.Result != nil {
		h.workerPool.QueueWebhook(models.WebhookItem{
			RequestID:      fmt.Sprintf("%s_iter_%03d", result.RequestID, result.Iteration),
			Result:         result.Result,
			Wells:          result.Wells,
			Concentrations: result.Concentrations,
			Responses:      result.Responses,
			Curve:          h.sampler.SampleCurve(result.Result, result.Concentrations, 200),
		})
	}

	if !h.config.Quiet {
		log.Printf("Processed titration iteration %d", result.Iteration)
	}
}

// getConcurrency returns the current concurrency level
func (h *BatchHandler) getConcurrency() int {
	concurrency := 5
	if h.config != nil && h.config.Threads > 0 {
		concurrency = int(h.config.Threads)
	}
	return concurrency
}

// saveTimingResults appends batch timing data to a CSV file for
// performance analysis
func (h *BatchHandler) saveTimingResults(batchID string, totalTime time.Duration, timings []models.TitrationTiming, concurrency int) {
	filename := "concurrent_timing_results.csv"

	var writeHeader bool
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		writeHeader = true
	}

	file, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("Error opening timing file: %v", err)
		return
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if writeHeader {
		header := []string{
			"Timestamp",
			"BatchID",
			"TotalTitrations",
			"Concurrency",
			"TotalBatchTime_ms",
			"AvgFitTime_ms",
			"MinFitTime_ms",
			"MaxFitTime_ms",
			"SuccessRate",
			"AvgChiSquare",
			"FitsPerSecond",
		}
		if err := writer.Write(header); err != nil {
			log.Printf("Error writing timing header: %v", err)
			return
		}
	}

	var totalFitTime time.Duration
	var minTime, maxTime time.Duration = time.Hour, 0
	var successful int
	var totalChiSq float64

	for _, timing := range timings {
		totalFitTime += timing.ProcessingTime
		if timing.ProcessingTime < minTime {
			minTime = timing.ProcessingTime
		}
		if timing.ProcessingTime > maxTime {
			maxTime = timing.ProcessingTime
		}
		if timing.Success {
			successful++
			totalChiSq += timing.ChiSquare
		}
	}

	numFits := len(timings)
	avgFitTime := totalFitTime / time.Duration(numFits)
	successRate := float64(successful) / float64(numFits) * 100
	avgChiSq := 0.0
	if successful > 0 {
		avgChiSq = totalChiSq / float64(successful)
	}

	record := []string{
		time.Now().Format(time.RFC3339),
		batchID,
		fmt.Sprintf("%d", numFits),
		fmt.Sprintf("%d", concurrency),
		fmt.Sprintf("%.2f", float64(totalTime.Nanoseconds())/1000000.0),
		fmt.Sprintf("%.2f", float64(avgFitTime.Nanoseconds())/1000000.0),
		fmt.Sprintf("%.2f", float64(minTime.Nanoseconds())/1000000.0),
		fmt.Sprintf("%.2f", float64(maxTime.Nanoseconds())/1000000.0),
		fmt.Sprintf("%.1f", successRate),
		fmt.Sprintf("%.6e", avgChiSq),
		fmt.Sprintf("%.2f", float64(numFits)/totalTime.Seconds()),
	}

	if err := writer.Write(record); err != nil {
		log.Printf("Error writing timing record: %v", err)
		return
	}

	log.Printf("Timing saved: %d fits, %d workers, %.2f ms total, %.2f%% success",
		numFits, concurrency, float64(totalTime.Nanoseconds())/1000000.0, successRate)
}
