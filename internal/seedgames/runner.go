// Package seedgames drives an end-to-end seeding run against a live
// service: generate synthetic game records, submit them, wait for the
// rebuild queue to drain, then verify the folded macros against a local
// fold of the same records.
package seedgames

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/dugout/internal/domain/model"
	"github.com/okian/dugout/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete seeding run.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting dugout seeding run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("games", config.NumGames),
		logger.Int("subjects", config.NumSubjects),
		logger.Int("season", config.Season),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.String("logFile", config.LogFile),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate game records
	games, err := generateGames(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("record generation failed: %w", err)
	}

	// Step 3: Submit records concurrently
	if err := submitGames(ctx, config, games, stats); err != nil {
		return fmt.Errorf("record submission failed: %w", err)
	}

	// Step 4: Re-submit a sample to check duplicate handling
	if err := resubmitSample(ctx, config, games, stats); err != nil {
		return fmt.Errorf("duplicate check failed: %w", err)
	}

	// Step 5: Wait for the rebuild queue to drain
	if err := waitForDrain(ctx, config); err != nil {
		return fmt.Errorf("drain wait failed: %w", err)
	}

	// Step 6: Retrieve macros concurrently
	macros, err := retrieveMacros(ctx, config, seededSubjects(games), stats)
	if err != nil {
		return fmt.Errorf("macro retrieval failed: %w", err)
	}

	// Step 7: List persisted subjects
	listed, err := listSubjects(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("subject listing failed: %w", err)
	}

	// Step 8: Verify macros against local folds
	if err := verifyMacros(ctx, config, games, macros, listed, stats); err != nil {
		return fmt.Errorf("macro verification failed: %w", err)
	}

	// Step 9: Save records to file
	if err := saveGamesToFile(ctx, config, games); err != nil {
		logger.Get().Warn(ctx, "failed to save records to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "seeding run completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Accept any 200 response as healthy (the service returns Prometheus metrics)
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// waitForDrain polls the stats endpoint until the rebuild queue is empty
// and no rebuilds are pending, then confirms the counters stayed at zero
// across the settle delay.
func waitForDrain(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "waiting for rebuilds to drain")

	client := newHTTPClient(config.Timeout)
	deadline := time.Now().Add(DrainMaxWait)

	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return err
		}

		queued, pending, err := fetchQueueDepth(ctx, client, config.BaseURL)
		if err != nil {
			return err
		}
		if queued == 0 && pending == 0 {
			time.Sleep(DrainSettleDelay)
			queued, pending, err = fetchQueueDepth(ctx, client, config.BaseURL)
			if err != nil {
				return err
			}
			if queued == 0 && pending == 0 {
				logger.Get().Info(ctx, "rebuild queue drained")
				return nil
			}
			continue
		}

		if config.Verbose {
			logger.Get().Info(ctx, "still draining",
				logger.Int("queued", queued),
				logger.Int("pending", pending))
		}
		time.Sleep(DrainPollInterval)
	}

	return fmt.Errorf("rebuild queue did not drain within %s", DrainMaxWait)
}

// fetchQueueDepth reads queue_size and pending_rebuilds from /stats.
func fetchQueueDepth(ctx context.Context, client *HTTPClient, baseURL string) (int, int, error) {
	resp, err := client.Get(ctx, baseURL+"/stats")
	if err != nil {
		return 0, 0, fmt.Errorf("stats request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read stats: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return 0, 0, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var m map[string]any
	if err := unmarshalJSON(body, &m); err != nil {
		return 0, 0, fmt.Errorf("failed to parse stats: %w", err)
	}
	return statInt(m, "queue_size"), statInt(m, "pending_rebuilds"), nil
}

// statInt reads a numeric stat; decoded JSON numbers arrive as float64.
func statInt(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// saveGamesToFile saves the generated records to a JSON file.
func saveGamesToFile(ctx context.Context, config *Config, games []model.GameRecord) error {
	if len(games) == 0 {
		return fmt.Errorf("no records to save")
	}

	// Determine output filename
	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_games_" + timestamp + ".json"
	}

	// Ensure the directory exists
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Write records to file
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	// Write JSON array
	if _, err := file.WriteString("[\n"); err != nil {
		return fmt.Errorf("failed to write opening bracket: %w", err)
	}

	for i, record := range games {
		jsonData, err := marshalJSON(record)
		if err != nil {
			return fmt.Errorf("failed to marshal record %d: %w", i, err)
		}

		if _, err := file.Write(jsonData); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}

		// Add comma except for last record
		if i < len(games)-1 {
			if _, err := file.WriteString(","); err != nil {
				return fmt.Errorf("failed to write comma: %w", err)
			}
		}
		_, _ = file.WriteString("\n")
	}

	if _, err := file.WriteString("]\n"); err != nil {
		return fmt.Errorf("failed to write closing bracket: %w", err)
	}

	logger.Get().Info(ctx, "records saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final seeding statistics.
func displayFinalStats(stats *Stats) {
	var successRate, gamesPerSecond float64

	if stats.GamesSubmitted > 0 {
		successRate = float64(stats.GamesAccepted) / float64(stats.GamesSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		gamesPerSecond = float64(stats.GamesSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("gamesGenerated", stats.GamesGenerated),
		logger.Int("gamesSubmitted", stats.GamesSubmitted),
		logger.Int("gamesAccepted", stats.GamesAccepted),
		logger.Int("gamesDuplicate", stats.GamesDuplicate),
		logger.Int("gamesFailed", stats.GamesFailed),
		logger.Int("resubmitChecked", stats.ResubmitChecked),
		logger.Int("macrosRetrieved", stats.MacrosRetrieved),
		logger.Int("macrosVerified", stats.MacrosVerified),
		logger.Int("macroMismatches", stats.MacroMismatches),
		logger.Int("subjectsListed", stats.SubjectsListed),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("gamesPerSecond", gamesPerSecond))
}
