package webhook

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/masstiter/gofacscore/pkg/config"
	"github.com/masstiter/gofacscore/pkg/models"
)

// Client posts fit results to the plot consumer with optimized connection
// pooling.
type Client struct {
	url        string
	httpClient *http.Client
	config     *config.Config
	bufferPool sync.Pool // Pool for JSON marshaling buffers
}

// NewClient creates a new webhook client with optimized connection pooling
func NewClient(url string, cfg *config.Config) *Client {
	transport := &http.Transport{
		// Connection pooling settings
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,

		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,

		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: false,
		},

		ResponseHeaderTimeout: 30 * time.Second,

		// Payloads are small; compression costs more than it saves
		DisableCompression: true,

		// Force HTTP/1.1 for better connection reuse
		ForceAttemptHTTP2: false,
	}

	client := &Client{
		url:    url,
		config: cfg,
		httpClient: &http.Client{
			Timeout:   45 * time.Second,
			Transport: transport,
		},
		bufferPool: sync.Pool{
			New: func() interface{} {
				return bytes.NewBuffer(make([]byte, 0, 1024))
			},
		},
	}

	return client
}

// Send sends a webhook with the provided fit result
func (c *Client) Send(webhook models.WebhookItem) error {
	if webhook.Result == nil {
		return fmt.Errorf("webhook %s has no fit result", webhook.RequestID)
	}

	payload := models.WebhookResponse{
		ID:             webhook.RequestID,
		Time:           time.Now().Format(time.RFC3339Nano),
		Kd:             c.sanitizeFloat(webhook.Result.Kd),
		Sat:            c.sanitizeFloat(webhook.Result.Sat),
		Init:           c.sanitizeFloat(webhook.Result.Init),
		KdStdErr:       optionalFloat(webhook.Result.KdStdErr),
		ChiSquare:      c.sanitizeFloat(webhook.Result.ChiSquare),
		RSquared:       c.sanitizeFloat(webhook.Result.RSquared),
		Wells:          webhook.Wells,
		Concentrations: webhook.Concentrations,
		Responses:      webhook.Responses,
		Curve:          webhook.Curve,
	}

	buf := c.bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer c.bufferPool.Put(buf)

	encoder := json.NewEncoder(buf)
	if err := encoder.Encode(payload); err != nil {
		return fmt.Errorf("failed to marshal webhook data: %w", err)
	}

	resp, err := c.httpClient.Post(c.url, "application/json", bytes.NewReader(buf.Bytes()))
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if !c.config.Quiet {
		log.Printf("Webhook sent - ID: %s, Kd: %.6g, ChiSquare: %.6e, Status: %d",
			webhook.RequestID, payload.Kd, payload.ChiSquare, resp.StatusCode)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook request failed with status %d", resp.StatusCode)
	}

	return nil
}

// sanitizeFloat cleans float64 values for JSON compatibility
func (c *Client) sanitizeFloat(value float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0.0
	}
	return value
}

// optionalFloat maps NaN/Inf to null in the payload.
func optionalFloat(value float64) *float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil
	}
	return &value
}
