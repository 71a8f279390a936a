package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/gocarina/gocsv"

	"github.com/masstiter/gofacscore"
	"github.com/masstiter/gofacscore/internal/processing"
	"github.com/masstiter/gofacscore/pkg/config"
	"github.com/masstiter/gofacscore/pkg/server"
)

func main() {
	cfg := parseFlags()

	processor := processing.NewTiterProcessor()

	if cfg.HTTPServer {
		runServer(cfg, processor)
		return
	}

	if cfg.File == "" {
		log.Fatal("No input file given (-file) and server mode disabled")
	}
	runFile(cfg, processor)
}

// TitrationRow is one line of the input CSV: a concentration stop and its
// summarized response.
type TitrationRow struct {
	Well          string  `csv:"well"`
	Concentration float64 `csv:"concentration"`
	Response      float64 `csv:"response"`
}

// runFile fits the titration in the CSV file and prints a report
func runFile(cfg *config.Config, processor *processing.TiterProcessor) {
	f, err := os.Open(cfg.File)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", cfg.File, err)
	}
	defer f.Close()

	var rows []TitrationRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		log.Fatalf("Failed to parse %s: %v", cfg.File, err)
	}

	concentrations := make([]float64, len(rows))
	responses := make([]float64, len(rows))
	for i, row := range rows {
		concentrations[i] = row.Concentration
		responses[i] = row.Response
	}

	result, err := processor.Process(concentrations, responses, cfg)
	if err != nil {
		log.Fatalf("Fit failed: %v", err)
	}
	if result == nil {
		fmt.Println("No fit: response data contains missing values")
		return
	}

	printReport(result, len(rows))
}

// printReport mirrors the fit report layout of the analysis notebooks
func printReport(result *gofacscore.FitResult, points int) {
	fmt.Println("[[Fit Statistics]]")
	fmt.Printf("    # data points      = %d\n", points)
	fmt.Printf("    chi-square         = %.6e\n", result.ChiSquare)
	fmt.Printf("    R-squared (legacy) = %.6f\n", result.RSquared)
	fmt.Println("[[Variables]]")
	fmt.Printf("    init: %12.6g\n", result.Init)
	fmt.Printf("    sat:  %12.6g\n", result.Sat)
	if math.IsNaN(result.KdStdErr) {
		fmt.Printf("    Kd:   %12.6g (stderr not computable)\n", result.Kd)
	} else {
		fmt.Printf("    Kd:   %12.6g +/- %.6g\n", result.Kd, result.KdStdErr)
	}
	if result.Status != gofacscore.OK {
		fmt.Printf("[[Warning]] fit status: %s\n", result.Status)
	}
}

// runServer starts the HTTP service
func runServer(cfg *config.Config, processor *processing.TiterProcessor) {
	serverConfig := config.DefaultServerConfig()
	serverConfig.WorkerCount = int(cfg.Threads)
	serverConfig.EnableProfiling = cfg.EnableProfiling

	srv := server.New(server.Options{
		Config:       cfg,
		ServerConfig: serverConfig,
		Processor:    processor.ProcessorFunc(),
	})

	setupGracefulShutdown(srv)

	if err := srv.Start(); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

// parseFlags parses command line flags and returns configuration
func parseFlags() *config.Config {
	cfg := config.DefaultConfig()

	configPath := flag.String("config", "", "YAML config file path")
	flag.StringVar(&cfg.File, "file", cfg.File, "Input CSV of concentration,response rows")
	flag.StringVar(&cfg.Statistic, "stat", cfg.Statistic, "Per-well summary statistic (median or mean)")
	flag.Var(&cfg.Guesses, "guess", "Initial guess, given three times: init, sat, Kd")
	flag.Float64Var(&cfg.KdMax, "kdmax", cfg.KdMax, "Upper bound on Kd")
	flag.UintVar(&cfg.Threads, "threads", cfg.Threads, "Number of worker threads")
	flag.BoolVar(&cfg.Quiet, "quiet", cfg.Quiet, "Suppress verbose output")
	flag.BoolVar(&cfg.HTTPServer, "server", cfg.HTTPServer, "Start HTTP server")
	flag.BoolVar(&cfg.Benchmark, "benchmark", cfg.Benchmark, "Enable benchmark mode")
	flag.BoolVar(&cfg.EnableProfiling, "profile", cfg.EnableProfiling, "Enable pprof profiling")

	flag.Parse()

	if *configPath != "" {
		fileCfg, err := config.LoadFile(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		// Flags already parsed win over file values only for -file
		if cfg.File != "" {
			fileCfg.File = cfg.File
		}
		cfg = fileCfg
	}

	return cfg
}

// setupGracefulShutdown sets up graceful shutdown handling
func setupGracefulShutdown(srv *server.Server) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Received shutdown signal...")
		if err := srv.Shutdown(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
		os.Exit(0)
	}()
}
