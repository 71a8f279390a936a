package profiling

import (
	"log"
	"net/http"
	"runtime"
	"strconv"
	"time"
)

// Middleware provides profiling and metrics middleware for HTTP handlers
type Middleware struct {
	enableProfiling bool
}

// NewMiddleware creates a new profiling middleware
func NewMiddleware(enableProfiling bool) *Middleware {
	return &Middleware{
		enableProfiling: enableProfiling,
	}
}

// ProfiledHandler wraps an HTTP handler with profiling capabilities
func (m *Middleware) ProfiledHandler(name string, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.enableProfiling {
			handler.ServeHTTP(w, r)
			return
		}

		startTime := time.Now()
		var startMemStats runtime.MemStats
		runtime.ReadMemStats(&startMemStats)
		startGoroutines := runtime.NumGoroutine()

		w.Header().Set("X-Profiling-Enabled", "true")
		w.Header().Set("X-Handler-Name", name)

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     200,
		}

		handler.ServeHTTP(wrapped, r)

		var endMemStats runtime.MemStats
		runtime.ReadMemStats(&endMemStats)

		duration := time.Since(startTime)
		memoryDelta := int64(endMemStats.Alloc) - int64(startMemStats.Alloc)
		goroutineDelta := runtime.NumGoroutine() - startGoroutines

		wrapped.Header().Set("X-Duration-Ms", strconv.FormatFloat(float64(duration.Nanoseconds())/1000000.0, 'f', 3, 64))
		wrapped.Header().Set("X-Memory-Delta-Bytes", strconv.FormatInt(memoryDelta, 10))
		wrapped.Header().Set("X-Goroutine-Delta", strconv.Itoa(goroutineDelta))
		wrapped.Header().Set("X-Status-Code", strconv.Itoa(wrapped.statusCode))
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// FitProfiler profiles individual curve-fit jobs
type FitProfiler struct {
	startTime   time.Time
	startMemory uint64
	workerID    int
	requestID   string
}

// NewFitProfiler creates a new fit-job profiler
func NewFitProfiler(workerID int, requestID string) *FitProfiler {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return &FitProfiler{
		startTime:   time.Now(),
		startMemory: m.Alloc,
		workerID:    workerID,
		requestID:   requestID,
	}
}

// Finish completes fit profiling and logs metrics
func (fp *FitProfiler) Finish() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	duration := time.Since(fp.startTime)
	memoryDelta := int64(m.Alloc) - int64(fp.startMemory)

	log.Printf("Worker[%d] fit %s: %.3fms, memory: %+d bytes, goroutines: %d",
		fp.workerID, fp.requestID, float64(duration.Nanoseconds())/1000000.0, memoryDelta, runtime.NumGoroutine())
}
