package seedgames

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/okian/dugout/internal/domain/model"
	"github.com/okian/dugout/internal/domain/split"
	"github.com/okian/dugout/internal/domain/subject"
	"github.com/okian/dugout/internal/domain/types"
)

// verifyMacros compares every retrieved macro against a local fold of the
// records submitted for that subject. The fold is deterministic, so the
// two encodings must match byte for byte.
func verifyMacros(ctx context.Context, config *Config, games []model.GameRecord, macros map[string]*split.Tree, listed []types.Descriptor, stats *Stats) error {
	log.Println("🔍 Verifying macros...")

	if len(macros) == 0 {
		return fmt.Errorf("no macros to verify")
	}

	bySubject := groupBySubject(games)
	client := newHTTPClient(config.Timeout)

	verified, mismatched := 0, 0
	for subjectID, recs := range bySubject {
		want, err := marshalJSON(expectedTree(subjectID, config.Season, recs))
		if err != nil {
			return fmt.Errorf("failed to fold expectation for %s: %w", subjectID, err)
		}

		tree, ok := macros[subjectID]
		if !ok {
			mismatched++
			log.Printf("⚠️  No macro retrieved for %s", subjectID)
			continue
		}
		got, err := marshalJSON(tree)
		if err != nil {
			return fmt.Errorf("failed to marshal macro for %s: %w", subjectID, err)
		}

		if !bytes.Equal(want, got) {
			// A rebuild may still have been in flight during retrieval;
			// fetch once more before calling it a mismatch.
			time.Sleep(ReverifyDelay)
			refetched, err := retrieveSingleMacro(ctx, client, config.BaseURL, subjectID, config.Season)
			if err == nil {
				tree = refetched
				got, err = marshalJSON(refetched)
			}
			if err != nil || !bytes.Equal(want, got) {
				mismatched++
				logMismatch(subjectID, recs, tree, config.Verbose)
				continue
			}
		}
		verified++
	}

	// Update stats
	stats.MacrosVerified = verified
	stats.MacroMismatches = mismatched

	verifySubjectListing(bySubject, listed, config.Season)
	displayTopHitters(macros, config.TopN)

	if config.Verbose {
		log.Printf("📊 League batting average across seeded records: %.3f", leagueAverage(games))
	}

	if mismatched > 0 {
		return fmt.Errorf("%d of %d macros did not match the local fold", mismatched, len(bySubject))
	}

	log.Printf("✅ Verified %d macros against local folds", verified)
	return nil
}

// groupBySubject groups records by canonical subject id, canonicalizing
// names the same way ingestion does so the local fold matches the stored
// records.
func groupBySubject(games []model.GameRecord) map[string][]model.GameRecord {
	bySubject := make(map[string][]model.GameRecord)
	for _, g := range games {
		g.SubjectID = subject.Canonical(g.SubjectID)
		if g.OppPitcher != "" {
			g.OppPitcher = subject.Canonical(g.OppPitcher)
		}
		bySubject[g.SubjectID] = append(bySubject[g.SubjectID], g)
	}
	return bySubject
}

// seededSubjects returns the sorted canonical subject ids the generated
// records cover.
func seededSubjects(games []model.GameRecord) []string {
	seen := make(map[string]struct{})
	subjects := make([]string, 0, len(games))
	for _, g := range games {
		id := subject.Canonical(g.SubjectID)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		subjects = append(subjects, id)
	}
	sort.Strings(subjects)
	return subjects
}

// expectedTree folds one subject's records locally.
func expectedTree(subjectID string, season int, recs []model.GameRecord) *split.Tree {
	tree := split.New(model.KindPlayer, subjectID, season)
	for _, rec := range recs {
		tree.Fold(rec)
	}
	return tree
}

// verifySubjectListing checks the discovery listing covers every seeded
// subject.
func verifySubjectListing(bySubject map[string][]model.GameRecord, listed []types.Descriptor, season int) {
	known := make(map[string]struct{}, len(listed))
	for _, d := range listed {
		if d.Kind == model.KindPlayer && d.Season == season {
			known[d.Subject] = struct{}{}
		}
	}

	missing := 0
	for subjectID := range bySubject {
		if _, ok := known[subjectID]; !ok {
			missing++
			log.Printf("⚠️  Subject %s missing from discovery listing", subjectID)
		}
	}
	if missing == 0 {
		log.Println("✅ Discovery listing covers all seeded subjects")
	}
}

// displayTopHitters shows the best batting averages among the retrieved
// macros.
func displayTopHitters(macros map[string]*split.Tree, topN int) {
	type hitter struct {
		subjectID string
		avg       float64
		ab        int
	}

	hitters := make([]hitter, 0, len(macros))
	for subjectID, tree := range macros {
		line := tree.Root.Stats.Batting
		if line.AB < MinQualifyingAB {
			continue
		}
		hitters = append(hitters, hitter{subjectID: subjectID, avg: line.AVG, ab: line.AB})
	}

	sort.Slice(hitters, func(i, j int) bool {
		if hitters[i].avg != hitters[j].avg {
			return hitters[i].avg > hitters[j].avg
		}
		return hitters[i].subjectID < hitters[j].subjectID
	})

	if topN > len(hitters) {
		topN = len(hitters)
	}

	log.Printf("🏆 Top %d hitters by batting average:", topN)
	for i := 0; i < topN; i++ {
		h := hitters[i]
		log.Printf("   %d. %s - AVG: %.3f (AB: %d)", i+1, h.subjectID, h.avg, h.ab)
	}
}

// logMismatch reports one subject whose macro differs from the local fold.
func logMismatch(subjectID string, recs []model.GameRecord, tree *split.Tree, verbose bool) {
	log.Printf("⚠️  Macro for %s does not match the local fold", subjectID)
	if verbose && tree != nil {
		log.Printf("   submitted %d records, macro folded %d games", len(recs), tree.GameCount)
	}
}

// leagueAverage computes the batting average across all generated records.
func leagueAverage(games []model.GameRecord) float64 {
	atBats, hits := 0, 0
	for _, g := range games {
		atBats += g.Batting.AB
		hits += g.Batting.H
	}
	if atBats == 0 {
		return 0
	}
	return float64(hits) / float64(atBats)
}
