package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/masstiter/gofacscore/internal/utils"
	"github.com/masstiter/gofacscore/pkg/config"
	"github.com/masstiter/gofacscore/pkg/models"
	"github.com/masstiter/gofacscore/pkg/webhook"
	"github.com/masstiter/gofacscore/pkg/worker"
)

// TitrationHandler handles single titration fit requests
type TitrationHandler struct {
	config     *config.Config
	workerPool *worker.Pool
	processor  worker.ProcessorFunc
	sampler    *webhook.Sampler
}

// NewTitrationHandler creates a new titration handler
func NewTitrationHandler(cfg *config.Config, pool *worker.Pool, processor worker.ProcessorFunc) *TitrationHandler {
	return &TitrationHandler{
		config:     cfg,
		workerPool: pool,
		processor:  processor,
		sampler:    webhook.NewSampler(),
	}
}

// ServeHTTP implements the http.Handler interface
func (h *TitrationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setupCORS(w)

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.Method != "POST" {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var titration models.TitrationData
	if err := json.NewDecoder(r.Body).Decode(&titration); err != nil {
		writeError(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}

	if len(titration.Concentrations) == 0 {
		writeError(w, "No concentration stops provided", http.StatusBadRequest)
		return
	}
	if len(titration.Concentrations) != len(titration.Responses) {
		writeError(w, "Concentration and response counts differ", http.StatusBadRequest)
		return
	}

	// Generate unique ID for this request
	requestID := utils.GenerateID()

	// Process data asynchronously
	go h.processAsync(requestID, titration)

	// Return immediate response; the result goes out via webhook
	response := map[string]interface{}{
		"success":    true,
		"request_id": requestID,
		"message":    "Fit started",
	}

	if !h.config.Quiet {
		log.Printf("HTTP Request received - ID: %s, Stops: %d", requestID, len(titration.Concentrations))
	}

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(response)
}

// processAsync fits the titration and queues the result webhook
func (h *TitrationHandler) processAsync(requestID string, titration models.TitrationData) {
	result, err := h.processor(titration.Concentrations, titration.Responses, h.config)
	if err != nil {
		log.Printf("Fit error for request %s: %v", requestID, err)
		return
	}
	if result == nil {
		log.Printf("Fit skipped for request %s: responses contain NaN", requestID)
		return
	}

	h.workerPool.QueueWebhook(models.WebhookItem{
		RequestID:      requestID,
		Result:         result,
		Wells:          titration.Wells,
		Concentrations: titration.Concentrations,
		Responses:      titration.Responses,
		Curve:          h.sampler.SampleCurve(result, titration.Concentrations, 200),
	})
}

// setupCORS sets up CORS headers
func setupCORS(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// writeError writes an error response
func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
