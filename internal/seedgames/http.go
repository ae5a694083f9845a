package seedgames

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/dugout/internal/domain/model"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	jsonData, err := marshalJSON(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// marshalJSON marshals a struct to JSON
func marshalJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}

// unmarshalJSON unmarshals JSON to a struct
func unmarshalJSON(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitGames submits game records concurrently using worker pools
func submitGames(ctx context.Context, config *Config, games []model.GameRecord, stats *Stats) error {
	log.Printf("📤 Submitting %d records with %d workers...", len(games), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/games"

	// Counters for statistics
	var (
		accepted  int64
		duplicate int64
		failed    int64
		submitted int64
	)

	// Progress reporting
	var lastReport atomic.Int64
	reportInterval := 1 * time.Second

	// Create worker pool
	gameChan := make(chan model.GameRecord, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for record := range gameChan {
				select {
				case <-ctx.Done():
					return
				default:
					result := submitSingleGame(ctx, client, url, record)

					// Update counters
					atomic.AddInt64(&submitted, 1)
					switch result {
					case "accepted":
						atomic.AddInt64(&accepted, 1)
					case "duplicate":
						atomic.AddInt64(&duplicate, 1)
					case "failed":
						atomic.AddInt64(&failed, 1)
					}

					// Progress reporting
					if now := time.Now(); now.UnixNano()-lastReport.Load() >= int64(reportInterval) {
						lastReport.Store(now.UnixNano())
						total := atomic.LoadInt64(&submitted)
						acc := atomic.LoadInt64(&accepted)
						dup := atomic.LoadInt64(&duplicate)
						fail := atomic.LoadInt64(&failed)

						if config.Verbose {
							log.Printf("📊 Progress: %d/%d submitted (accepted: %d, duplicate: %d, failed: %d)",
								total, len(games), acc, dup, fail)
						} else {
							fmt.Printf("\r📤 Submitted: %d/%d (accepted: %d, duplicate: %d, failed: %d)",
								total, len(games), acc, dup, fail)
						}
					}
				}
			}
		}(i)
	}

	// Send records to workers
	go func() {
		defer close(gameChan)
		for _, record := range games {
			select {
			case <-ctx.Done():
				return
			case gameChan <- record:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()

	// Final progress report
	if !config.Verbose {
		fmt.Println() // New line after progress indicator
	}

	// Update stats
	stats.GamesSubmitted = int(atomic.LoadInt64(&submitted))
	stats.GamesAccepted = int(atomic.LoadInt64(&accepted))
	stats.GamesDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.GamesFailed = int(atomic.LoadInt64(&failed))

	log.Printf(`✅ Record submission completed:
   Accepted: %d
   Duplicate: %d
   Failed: %d
`, stats.GamesAccepted, stats.GamesDuplicate, stats.GamesFailed)

	return nil
}

// submitSingleGame submits a single record and returns the result
func submitSingleGame(ctx context.Context, client *HTTPClient, url string, record model.GameRecord) string {
	resp, err := client.Post(ctx, url, record)
	if err != nil {
		return "failed"
	}

	// Read response body
	body, err := readResponseBody(resp)
	if err != nil {
		return "failed"
	}

	// Parse response based on status code
	switch resp.StatusCode {
	case StatusAccepted:
		// Accepted - new record
		var ack AckResponse
		if err := unmarshalJSON(body, &ack); err == nil && ack.Status == "accepted" {
			return "accepted"
		}
		return "accepted" // Assume accepted for 202 even if parsing fails
	case StatusOK:
		// OK - duplicate record
		var ack AckResponse
		if err := unmarshalJSON(body, &ack); err == nil && ack.Duplicate {
			return "duplicate"
		}
		return "duplicate" // Assume duplicate for 200 even if parsing fails
	default:
		// Error
		return "failed"
	}
}

// resubmitSample re-posts a sample of already-stored records and checks
// every one is acknowledged as a duplicate rather than stored again.
func resubmitSample(ctx context.Context, config *Config, games []model.GameRecord, stats *Stats) error {
	sample := minInt(ResubmitSampleSize, len(games))
	if sample == 0 {
		return nil
	}
	log.Printf("🔁 Re-submitting %d records to check duplicate handling...", sample)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/games"

	duplicates, accepted, failed := 0, 0, 0
	for i := 0; i < sample; i++ {
		switch submitSingleGame(ctx, client, url, games[i]) {
		case "duplicate":
			duplicates++
		case "accepted":
			accepted++
		default:
			failed++
		}
	}

	stats.ResubmitChecked = sample
	stats.GamesDuplicate += duplicates

	if accepted > 0 {
		return fmt.Errorf("%d re-submitted records were stored again instead of being deduplicated", accepted)
	}
	if failed > 0 {
		log.Printf("⚠️  %d re-submissions failed outright", failed)
	}
	log.Printf("✅ Duplicate handling verified on %d records", duplicates)
	return nil
}
