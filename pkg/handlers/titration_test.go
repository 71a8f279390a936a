package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	facs "github.com/masstiter/gofacscore"
	"github.com/masstiter/gofacscore/pkg/config"
	"github.com/masstiter/gofacscore/pkg/handlers"
	"github.com/masstiter/gofacscore/pkg/models"
	"github.com/masstiter/gofacscore/pkg/worker"
)

func newTestHandler(t *testing.T, delivered *atomic.Int32) *handlers.TitrationHandler {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Quiet = true

	processor := func(concs, resps []float64, c *config.Config) (*facs.FitResult, error) {
		return &facs.FitResult{Kd: 50, Sat: 100, Status: facs.OK}, nil
	}
	pool := worker.New(worker.Options{
		Workers:   1,
		Processor: processor,
		Sender: func(item models.WebhookItem) error {
			delivered.Add(1)
			return nil
		},
	})
	t.Cleanup(pool.Shutdown)

	return handlers.NewTitrationHandler(cfg, pool, processor)
}

func TestTitrationHandler_RejectsBadRequests(t *testing.T) {
	var delivered atomic.Int32
	h := newTestHandler(t, &delivered)

	cases := []struct {
		name   string
		method string
		body   string
		status int
	}{
		{"WrongMethod", http.MethodGet, "", http.StatusMethodNotAllowed},
		{"BadJSON", http.MethodPost, "{", http.StatusBadRequest},
		{"NoStops", http.MethodPost, `{"concentrations":[],"responses":[]}`, http.StatusBadRequest},
		{"SkewedLengths", http.MethodPost, `{"concentrations":[1,2,3],"responses":[1]}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/titration-fit", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			require.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestTitrationHandler_AcceptsAndDelivers(t *testing.T) {
	var delivered atomic.Int32
	h := newTestHandler(t, &delivered)

	body := `{"wells":["Specimen_001_A1"],"concentrations":[0,10,50,200,1000],"responses":[0,17,50,80,95]}`
	req := httptest.NewRequest(http.MethodPost, "/titration-fit", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Contains(t, rec.Body.String(), "request_id")

	deadline := time.Now().Add(5 * time.Second)
	for delivered.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	require.Equal(t, int32(1), delivered.Load(), "fit result should be delivered via webhook")
}
