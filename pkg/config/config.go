package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ArrayFlags collects repeated numeric flag values, e.g. -guess given
// three times for init, sat and Kd.
type ArrayFlags []float64

func (a *ArrayFlags) String() string {
	return "ArrayFlags"
}

func (a *ArrayFlags) Set(value string) error {
	if val, err := strconv.ParseFloat(value, 64); err == nil {
		*a = append(*a, val)
		return nil
	} else {
		return err
	}
}

// Config holds all settings for titration analysis
type Config struct {
	File            string     `yaml:"file"`
	ChannelX        string     `yaml:"channel_x"`
	ChannelY        string     `yaml:"channel_y"`
	ResponseChannel string     `yaml:"response_channel"`
	Statistic       string     `yaml:"statistic"` // summary of the gated response channel: median or mean
	RoundInterval   float64    `yaml:"round_interval"`
	VertexCount     int        `yaml:"vertex_count"`
	KdMax           float64    `yaml:"kd_max"`
	Guesses         ArrayFlags `yaml:"guesses"` // init, sat, Kd
	Transform       bool       `yaml:"transform"`
	HyperlogB       float64    `yaml:"hyperlog_b"`
	Threads         uint       `yaml:"threads"`
	Quiet           bool       `yaml:"quiet"`
	Benchmark       bool       `yaml:"benchmark"`
	HTTPServer      bool       `yaml:"http_server"`
	EnableProfiling bool       `yaml:"enable_profiling"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port            string `yaml:"port"`
	WorkerCount     int    `yaml:"worker_count"`
	WebhookURL      string `yaml:"webhook_url"`
	EnableMetrics   bool   `yaml:"enable_metrics"`
	EnableProfiling bool   `yaml:"enable_profiling"`
	ProfilingPort   string `yaml:"profiling_port"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		ChannelX:        "Alexa Fluor 680-A",
		ChannelY:        "PE-A",
		ResponseChannel: "PE-A",
		Statistic:       "median",
		RoundInterval:   5.0,
		VertexCount:     6,
		KdMax:           40000,
		HyperlogB:       100,
		Threads:         5,
		Quiet:           false,
		HTTPServer:      true,
	}
}

// DefaultServerConfig returns server configuration with sensible defaults
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:            "8080",
		WorkerCount:     5,
		WebhookURL:      "http://webplot:3001/webhook",
		EnableMetrics:   true,
		EnableProfiling: false,
		ProfilingPort:   "6060",
	}
}

// LoadFile overlays the YAML file at path onto DefaultConfig.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
