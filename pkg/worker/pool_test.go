package worker_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	facs "github.com/masstiter/gofacscore"
	"github.com/masstiter/gofacscore/pkg/config"
	"github.com/masstiter/gofacscore/pkg/models"
	"github.com/masstiter/gofacscore/pkg/worker"
)

func waitForResult(t *testing.T, pool *worker.Pool) models.WorkResult {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if result, ok := pool.GetResult(); ok {
			return result
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for worker result")
	return models.WorkResult{}
}

func TestPool_ProcessesJob(t *testing.T) {
	processor := func(concs, resps []float64, cfg *config.Config) (*facs.FitResult, error) {
		return &facs.FitResult{Kd: 42, Status: facs.OK}, nil
	}

	pool := worker.New(worker.Options{Workers: 2, Processor: processor})
	defer pool.Shutdown()

	pool.SubmitJob(models.WorkItem{
		ID:             7,
		RequestID:      "req-1",
		Iteration:      7,
		Concentrations: []float64{1, 10, 100, 1000},
		Responses:      []float64{1, 5, 9, 10},
		Config:         config.DefaultConfig(),
		StartTime:      time.Now(),
	})

	result := waitForResult(t, pool)
	require.Equal(t, 7, result.ID)
	require.Equal(t, "req-1", result.RequestID)
	require.True(t, result.Success)
	require.NotNil(t, result.Result)
	require.Equal(t, 42.0, result.Result.Kd)

	// Input data is echoed back for the webhook payload.
	require.Equal(t, []float64{1, 10, 100, 1000}, result.Concentrations)
	require.Equal(t, []float64{1, 5, 9, 10}, result.Responses)
}

func TestPool_JobsAreIndependent(t *testing.T) {
	processor := func(concs, resps []float64, cfg *config.Config) (*facs.FitResult, error) {
		// Each job's Kd encodes its own first concentration, so a
		// cross-job buffer mixup would be visible in the results.
		return &facs.FitResult{Kd: concs[0], Status: facs.OK}, nil
	}

	pool := worker.New(worker.Options{Workers: 4, Processor: processor})
	defer pool.Shutdown()

	const jobs = 20
	for i := 0; i < jobs; i++ {
		pool.SubmitJob(models.WorkItem{
			ID:             i,
			Iteration:      i,
			Concentrations: []float64{float64(i), 10, 100},
			Responses:      []float64{0, 1, 2},
			Config:         config.DefaultConfig(),
		})
	}

	seen := make(map[int]bool, jobs)
	for i := 0; i < jobs; i++ {
		result := waitForResult(t, pool)
		require.Equal(t, float64(result.ID), result.Result.Kd)
		seen[result.ID] = true
	}
	require.Len(t, seen, jobs)
}

func TestPool_WebhookDelivery(t *testing.T) {
	var delivered atomic.Int32
	pool := worker.New(worker.Options{
		Workers: 1,
		Processor: func(concs, resps []float64, cfg *config.Config) (*facs.FitResult, error) {
			return &facs.FitResult{Status: facs.OK}, nil
		},
		Sender: func(item models.WebhookItem) error {
			delivered.Add(1)
			return nil
		},
	})
	defer pool.Shutdown()

	pool.QueueWebhook(models.WebhookItem{RequestID: "hook-1", Result: &facs.FitResult{Status: facs.OK}})

	deadline := time.Now().Add(5 * time.Second)
	for delivered.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	require.Equal(t, int32(1), delivered.Load())
}
