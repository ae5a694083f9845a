package seedgames

import "time"

// Config holds configuration for one seeding run
type Config struct {
	BaseURL     string        // Base URL of the service
	NumGames    int           // Number of game records to generate
	NumSubjects int           // Number of distinct players to spread the games across
	Season      int           // Season the generated games belong to
	TopN        int           // Number of top hitters to display
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	OutputFile  string        // Output file for generated records
	LogFile     string        // Log file for seeder output
	Verbose     bool          // Enable verbose logging
}

// AckResponse represents the response from record submission
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	Subject   string `json:"subject"`
	GameID    string `json:"game_id"`
}

// Stats holds seeding run statistics
type Stats struct {
	GamesGenerated  int
	GamesSubmitted  int
	GamesAccepted   int
	GamesDuplicate  int
	GamesFailed     int
	ResubmitChecked int
	MacrosRetrieved int
	MacrosVerified  int
	MacroMismatches int
	SubjectsListed  int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
