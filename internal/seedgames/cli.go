package seedgames

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/dugout/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "seed_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the seed games tool.
func ShowHelp() {
	os.Stdout.WriteString(`Dugout Game Seeder
==================

A concurrent tool for seeding a running dugout service with synthetic game
records and verifying the macros it folds from them.

Usage:
  go run cmd/seed-games/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8080")
  -games int
        Number of game records to generate and submit (default 5000)
  -subjects int
        Number of distinct players to spread the games across (default 200)
  -season int
        Season the generated games belong to (default 2024)
  -top int
        Number of top hitters to display after verification (default 10)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Output file for generated records (default: generated_games_TIMESTAMP.json)
  -log string
        Log file for seeder output (default: seed_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Seed with default settings
  go run cmd/seed-games/main.go

  # Seed a bigger season
  go run cmd/seed-games/main.go -games 50000 -subjects 500 -workers 16

  # Seed a specific season with verbose output
  go run cmd/seed-games/main.go -season 2019 -verbose

  # Seed with a custom log file
  go run cmd/seed-games/main.go -games 20000 -log my_seed.log
`)
}
