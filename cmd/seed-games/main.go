package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/dugout/internal/seedgames"
)

// Default configuration constants.
const (
	defaultNumGames    = 5000
	defaultNumSubjects = 200
	defaultSeason      = 2024
	defaultTopN        = 10
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultRunTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:8080", "Base URL of the service")
		numGames    = flag.Int("games", defaultNumGames, "Number of game records to generate and submit")
		numSubjects = flag.Int("subjects", defaultNumSubjects, "Number of distinct players to spread the games across")
		season      = flag.Int("season", defaultSeason, "Season the generated games belong to")
		topN        = flag.Int("top", defaultTopN, "Number of top hitters to display after verification")
		workers     = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile  = flag.String("output", "", "Output file for generated records (default: generated_games_TIMESTAMP.json)")
		logFile     = flag.String("log", "", "Log file for seeder output (default: seed_log_TIMESTAMP.log)")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seedgames.ShowHelp()
		return
	}

	// Setup logging
	if err := seedgames.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	// Create seeding configuration
	config := &seedgames.Config{
		BaseURL:     *baseURL,
		NumGames:    *numGames,
		NumSubjects: *numSubjects,
		Season:      *season,
		TopN:        *topN,
		Workers:     *workers,
		Timeout:     *timeout,
		OutputFile:  *outputFile,
		LogFile:     *logFile,
		Verbose:     *verbose,
	}

	// Run the seeding
	if err := seedgames.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Seeding failed: " + err.Error() + "\n")
		return
	}
}
