package seedgames

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/dugout/internal/domain/split"
	"github.com/okian/dugout/internal/domain/types"
)

// retrieveMacros retrieves the macro tree of every seeded subject concurrently.
func retrieveMacros(ctx context.Context, config *Config, subjects []string, stats *Stats) (map[string]*split.Tree, error) {
	log.Printf("🌳 Retrieving macros for %d subjects with %d workers...", len(subjects), config.Workers)

	client := newHTTPClient(config.Timeout)

	// Results storage
	trees := make([]*split.Tree, len(subjects))
	var (
		retrieved int64
		failed    int64
	)

	// Progress reporting
	var lastReport atomic.Int64
	reportInterval := 1 * time.Second

	// Create worker pool
	subjectChan := make(chan int, config.Workers*WorkerChannelMultiplier) // Send indices instead of ids
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for index := range subjectChan {
				select {
				case <-ctx.Done():
					return
				default:
					subjectID := subjects[index]
					tree, err := retrieveSingleMacro(ctx, client, config.BaseURL, subjectID, config.Season)

					if err != nil {
						atomic.AddInt64(&failed, 1)
						if config.Verbose {
							log.Printf("⚠️  Failed to get macro for %s: %v", subjectID, err)
						}
					} else {
						trees[index] = tree
						atomic.AddInt64(&retrieved, 1)
					}

					// Progress reporting
					if now := time.Now(); now.UnixNano()-lastReport.Load() >= int64(reportInterval) {
						lastReport.Store(now.UnixNano())
						ret := atomic.LoadInt64(&retrieved)
						fail := atomic.LoadInt64(&failed)

						if config.Verbose {
							log.Printf("📊 Macro progress: %d/%d retrieved (success: %d, failed: %d)",
								ret+fail, len(subjects), ret, fail)
						} else {
							fmt.Printf("\r🌳 Macros: %d/%d retrieved (success: %d, failed: %d)",
								ret+fail, len(subjects), ret, fail)
						}
					}
				}
			}
		}(i)
	}

	// Send subject indices to workers
	go func() {
		defer close(subjectChan)
		for i := range subjects {
			select {
			case <-ctx.Done():
				return
			case subjectChan <- i:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()

	// Final progress report
	if !config.Verbose {
		fmt.Println() // New line after progress indicator
	}

	// Index retrieved trees by subject, skipping failed retrievals
	macros := make(map[string]*split.Tree, len(subjects))
	for i, tree := range trees {
		if tree != nil {
			macros[subjects[i]] = tree
		}
	}

	// Update stats
	stats.MacrosRetrieved = len(macros)

	log.Printf(`✅ Macro retrieval completed:
   Retrieved: %d
   Failed: %d
`, len(macros), int(atomic.LoadInt64(&failed)))

	return macros, nil
}

// retrieveSingleMacro retrieves the macro tree for a single subject.
func retrieveSingleMacro(ctx context.Context, client *HTTPClient, baseURL, subjectID string, season int) (*split.Tree, error) {
	requestURL := fmt.Sprintf("%s/macro/player/%s/%d", baseURL, url.PathEscape(subjectID), season)

	resp, err := client.Get(ctx, requestURL)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var tree split.Tree
	if err := unmarshalJSON(body, &tree); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &tree, nil
}

// listSubjects retrieves the discovery listing for the seeded season.
func listSubjects(ctx context.Context, config *Config, stats *Stats) ([]types.Descriptor, error) {
	log.Printf("📇 Listing persisted subjects for season %d...", config.Season)

	client := newHTTPClient(config.Timeout)
	requestURL := fmt.Sprintf("%s/subjects?kind=player&season=%d", config.BaseURL, config.Season)

	resp, err := client.Get(ctx, requestURL)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var listed []types.Descriptor
	if err := unmarshalJSON(body, &listed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	stats.SubjectsListed = len(listed)
	log.Printf("✅ Retrieved %d subject descriptors", len(listed))

	return listed, nil
}
