package worker

import (
	"log"
	"sync"
	"time"

	"github.com/masstiter/gofacscore"
	"github.com/masstiter/gofacscore/pkg/config"
	"github.com/masstiter/gofacscore/pkg/models"
	"github.com/masstiter/gofacscore/pkg/profiling"
)

// Pool manages concurrent titration curve-fitting workers. Each job is a
// whole titration, so fits never share state.
type Pool struct {
	jobs         chan models.WorkItem
	results      chan models.WorkResult
	webhookQueue chan models.WebhookItem
	workers      int
	bufferPool   sync.Pool
	shutdown     chan struct{}
	wg           sync.WaitGroup
	processor    ProcessorFunc
	sender       SenderFunc
}

// ProcessorFunc defines the signature for titration fitting
type ProcessorFunc func(concentrations, responses []float64, cfg *config.Config) (*gofacscore.FitResult, error)

// SenderFunc delivers a queued webhook.
type SenderFunc func(models.WebhookItem) error

// Options holds configuration for creating a new worker pool
type Options struct {
	Workers   int
	Processor ProcessorFunc
	Sender    SenderFunc
}

// New creates a new worker pool with specified configuration
func New(opts Options) *Pool {
	if opts.Workers <= 0 {
		opts.Workers = 5
	}

	// do not block queueing new jobs and results even when workers are busy
	pool := &Pool{
		jobs:         make(chan models.WorkItem, opts.Workers*2),
		results:      make(chan models.WorkResult, opts.Workers*2),
		webhookQueue: make(chan models.WebhookItem, opts.Workers*4), // webhooks are slower, extended buffer
		workers:      opts.Workers,
		shutdown:     make(chan struct{}),
		processor:    opts.Processor,
		sender:       opts.Sender,
		bufferPool: sync.Pool{
			New: func() interface{} {
				// Typical titrations run 6-24 concentration stops
				return &models.BufferSet{
					Concentrations: make([]float64, 0, 32),
					Responses:      make([]float64, 0, 32),
				}
			},
		},
	}

	pool.start()
	return pool
}

// start initializes and starts all workers
func (p *Pool) start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	// Start webhook processor
	p.wg.Add(1)
	go p.webhookProcessor()

	log.Printf("Worker pool started with %d workers", p.workers)
}

// worker processes fit jobs from the jobs channel
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case job := <-p.jobs:
			result := p.processJob(id, job)
			p.results <- result

		case <-p.shutdown:
			return
		}
	}
}

// processJob runs one fit with buffer reuse for the echoed input data
func (p *Pool) processJob(workerID int, job models.WorkItem) models.WorkResult {
	if job.Config != nil && job.Config.EnableProfiling {
		fp := profiling.NewFitProfiler(workerID, job.RequestID)
		defer fp.Finish()
	}

	buffers := p.bufferPool.Get().(*models.BufferSet)
	defer p.bufferPool.Put(buffers)

	buffers.Concentrations = append(buffers.Concentrations[:0], job.Concentrations...)
	buffers.Responses = append(buffers.Responses[:0], job.Responses...)

	startTime := time.Now()
	result, err := p.processor(buffers.Concentrations, buffers.Responses, job.Config)
	processingTime := time.Since(startTime)

	if err != nil {
		log.Printf("Worker: fit error for request %s: %v", job.RequestID, err)
	}

	// Copies outlive the pooled buffers
	concCopy := make([]float64, len(buffers.Concentrations))
	respCopy := make([]float64, len(buffers.Responses))
	copy(concCopy, buffers.Concentrations)
	copy(respCopy, buffers.Responses)

	return models.WorkResult{
		ID:             job.ID,
		RequestID:      job.RequestID,
		BatchID:        job.BatchID,
		Iteration:      job.Iteration,
		Result:         result,
		ProcessingTime: processingTime,
		Success:        err == nil && result != nil && result.Status == gofacscore.OK,
		Wells:          job.Wells,
		Concentrations: concCopy,
		Responses:      respCopy,
	}
}

// webhookProcessor handles webhook requests asynchronously
func (p *Pool) webhookProcessor() {
	defer p.wg.Done()

	for {
		select {
		case webhook := <-p.webhookQueue:
			// Deliver without blocking the fit workers
			go p.sendWebhook(webhook)

		case <-p.shutdown:
			return
		}
	}
}

func (p *Pool) sendWebhook(webhook models.WebhookItem) {
	if p.sender == nil {
		log.Printf("No webhook sender configured, dropping webhook for %s", webhook.RequestID)
		return
	}
	if err := p.sender(webhook); err != nil {
		log.Printf("Webhook delivery failed for %s: %v", webhook.RequestID, err)
	}
}

// SubmitJob submits a job to the worker pool
func (p *Pool) SubmitJob(job models.WorkItem) {
	select {
	case p.jobs <- job:
		// Job submitted successfully
	default:
		log.Printf("Worker pool jobs channel full, job may be delayed")
		p.jobs <- job // Block until space available
	}
}

// GetResult retrieves a result from the worker pool (non-blocking)
func (p *Pool) GetResult() (models.WorkResult, bool) {
	select {
	case result := <-p.results:
		return result, true
	default:
		return models.WorkResult{}, false
	}
}

// QueueWebhook queues a webhook for async processing
func (p *Pool) QueueWebhook(webhook models.WebhookItem) {
	select {
	case p.webhookQueue <- webhook:
		// Webhook queued successfully
	default:
		log.Printf("Webhook queue full, dropping webhook for %s", webhook.RequestID)
	}
}

// Shutdown gracefully shuts down the worker pool
func (p *Pool) Shutdown() {
	log.Printf("Shutting down worker pool...")
	close(p.shutdown)
	p.wg.Wait()
	log.Printf("Worker pool shutdown complete")
}
