package seedgames

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okian/dugout/internal/domain/model"
	"github.com/okian/dugout/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	percentDivisor     = 100
	profileCaseCount   = 8
)

// Constants for game distribution.
const (
	homeGamePercent     = 49 // 49..97 is away, the remainder has no location
	awayGamePercent     = 98
	upperCaseOneIn      = 12 // odd spellings like "HOME" that fold case-insensitively
	pitcherKnownPercent = 95
	divisionOneIn       = 2
	divisionTeamCount   = 5
	rotationSize        = 3
	leftyPercent        = 30
	seasonDaySpread     = 180
	minAtBats           = 3
	atBatSpread         = 3
)

// Constants for batting outcome probabilities.
const (
	doublePerHit  = 0.22
	triplePerHit  = 0.03
	walkPerGame   = 0.32
	runPerHit     = 0.30
	rbiPerHit     = 0.35
	maxStrikeouts = 2
	hbpPercent    = 2
	sfPercent     = 3
	caughtOneIn   = 4
)

// Constants for hitter profile cases.
const (
	caseEliteHitter   = 0
	caseContactHitter = 1
	casePowerHitter   = 2
	caseSpeedster     = 3
	caseAverageHitter = 4
	casePlatoonBat    = 5
	caseBenchBat      = 6
	caseWideRange     = 7
)

// Constants for hitter profile probabilities.
const (
	eliteAVG     = 0.330
	elitePower   = 0.08
	eliteSpeed   = 0.06
	contactAVG   = 0.305
	contactPower = 0.03
	contactSpeed = 0.12
	powerAVG     = 0.265
	powerPower   = 0.20
	powerSpeed   = 0.02
	speedAVG     = 0.280
	speedPower   = 0.04
	speedSpeed   = 0.30
	averageAVG   = 0.260
	averagePower = 0.06
	averageSpeed = 0.06
	platoonAVG   = 0.245
	platoonPower = 0.07
	platoonSpeed = 0.04
	benchAVG     = 0.215
	benchPower   = 0.05
	benchSpeed   = 0.03
	wideAVGMin   = 0.200
	wideAVGRange = 0.100
	widePower    = 0.06
	wideSpeed    = 0.05
)

// Opponent pool. The leading teams double as the subject's division and
// show up twice as often.
var teamCodes = []string{
	"NYY", "BOS", "TB", "TOR", "BAL",
	"HOU", "TEX", "SEA", "LAA", "OAK",
	"ATL", "PHI", "NYM", "MIA", "WSH",
	"LAD", "SD", "SF", "ARI", "COL",
}

// Name pools. Diacritics and apostrophes are deliberate: submitted names
// go through the same canonicalization the service applies.
var firstNames = []string{
	"Jose", "Aaron", "Mookie", "Freddie", "Ronald",
	"Juan", "Shohei", "Vladimir", "Bo", "Julio",
	"Adley", "Gunnar", "Marcus", "Rafael", "Trea",
	"Yordan", "Kyle", "Corbin", "Bobby", "Elly",
}

var lastNames = []string{
	"Altuve", "Judge", "Betts", "Freeman", "Acuña",
	"Soto", "Ohtani", "Guerrero", "Bichette", "Rodríguez",
	"Rutschman", "Henderson", "Semien", "Devers", "Turner",
	"Alvarez", "Tucker", "Carroll", "Witt", "De La Cruz",
	"O'Neill", "Peña", "Díaz", "D'Arnaud", "Seager",
}

var pitcherFirstNames = []string{
	"Gerrit", "Jacob", "Max", "Justin", "Zack",
	"Corbin", "Shane", "Luis", "Framber", "Logan",
	"Spencer", "Pablo",
}

var pitcherLastNames = []string{
	"Cole", "deGrom", "Scherzer", "Verlander", "Wheeler",
	"Burnes", "Bieber", "Castillo", "Valdez", "Webb",
	"Strider", "López", "Gilbert", "Cease", "Gausman",
}

// hitterProfile carries the per-at-bat hit probability, the per-hit home
// run probability, and the per-game steal probability of one player.
type hitterProfile struct {
	avg   float64
	power float64
	speed float64
}

type seedPlayer struct {
	name    string
	profile hitterProfile
}

type seedPitcher struct {
	name string
	hand string
}

// roster is the fixed cast of one seeding run: the players games are
// generated for and each opponent's pitching rotation. It is built once
// and read-only afterwards.
type roster struct {
	players  []seedPlayer
	pitchers map[string][]seedPitcher
}

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// randIndex returns a random int in [0, n) using crypto/rand.
func randIndex(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

func randPercent() int {
	return randIndex(percentDivisor)
}

// generateGames creates the configured number of game records spread
// across the roster's players.
func generateGames(ctx context.Context, config *Config, stats *Stats) ([]model.GameRecord, error) {
	if config.NumGames < 1 {
		return nil, fmt.Errorf("number of games must be positive, got %d", config.NumGames)
	}
	if config.NumSubjects < 1 {
		return nil, fmt.Errorf("number of subjects must be positive, got %d", config.NumSubjects)
	}

	logger.Get().Info(ctx, "generating game records",
		logger.Int("numGames", config.NumGames),
		logger.Int("numSubjects", config.NumSubjects),
		logger.Int("season", config.Season))

	r := buildRoster(config.NumSubjects)
	games := make([]model.GameRecord, config.NumGames)

	// Generate records concurrently
	type gameResult struct {
		index  int
		record model.GameRecord
		err    error
	}

	resultChan := make(chan gameResult, config.NumGames)

	// Use worker pool for record generation
	workerCount := minInt(config.Workers, config.NumGames)
	gamesPerWorker := config.NumGames / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * gamesPerWorker
		end := start + gamesPerWorker
		if worker == workerCount-1 {
			end = config.NumGames // Last worker gets remaining games
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- gameResult{index: i, err: ctx.Err()}
					return
				default:
					player := r.players[i%len(r.players)]
					record := generateSingleGame(player, config.Season, r)
					resultChan <- gameResult{index: i, record: record}
				}
			}
		}(start, end)
	}

	// Collect results
	for i := 0; i < config.NumGames; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during record generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to generate record %d: %w", result.index, result.err)
			}
			games[result.index] = result.record
		}
	}

	stats.GamesGenerated = len(games)
	logger.Get().Info(ctx, "generated game records successfully", logger.Int("count", len(games)))

	return games, nil
}

// buildRoster assembles the player list and each opponent's rotation.
func buildRoster(numSubjects int) *roster {
	r := &roster{
		players:  make([]seedPlayer, numSubjects),
		pitchers: make(map[string][]seedPitcher, len(teamCodes)),
	}

	for i := 0; i < numSubjects; i++ {
		r.players[i] = seedPlayer{name: playerName(i), profile: rollProfile()}
	}

	for t, team := range teamCodes {
		rotation := make([]seedPitcher, rotationSize)
		for slot := 0; slot < rotationSize; slot++ {
			hand := "R"
			if randPercent() < leftyPercent {
				hand = "L"
			}
			rotation[slot] = seedPitcher{name: pitcherName(t*rotationSize + slot), hand: hand}
		}
		r.pitchers[team] = rotation
	}

	return r
}

// playerName derives a unique display name from the player's index.
func playerName(i int) string {
	first := firstNames[i%len(firstNames)]
	last := lastNames[(i/len(firstNames))%len(lastNames)]
	name := first + " " + last
	if n := i / (len(firstNames) * len(lastNames)); n > 0 {
		name += " " + strconv.Itoa(n+1)
	}
	return name
}

// pitcherName derives a unique display name from the rotation slot index.
func pitcherName(i int) string {
	first := pitcherFirstNames[i%len(pitcherFirstNames)]
	last := pitcherLastNames[(i/len(pitcherFirstNames))%len(pitcherLastNames)]
	return first + " " + last
}

// rollProfile draws a hitter profile with varied distribution.
func rollProfile() hitterProfile {
	switch randIndex(profileCaseCount) {
	case caseEliteHitter:
		// Elite bats - rare
		return hitterProfile{avg: eliteAVG, power: elitePower, speed: eliteSpeed}
	case caseContactHitter:
		// Contact hitters with little power
		return hitterProfile{avg: contactAVG, power: contactPower, speed: contactSpeed}
	case casePowerHitter:
		// Power hitters trading average for homers
		return hitterProfile{avg: powerAVG, power: powerPower, speed: powerSpeed}
	case caseSpeedster:
		// Speedsters running on contact
		return hitterProfile{avg: speedAVG, power: speedPower, speed: speedSpeed}
	case caseAverageHitter:
		// League-average regulars - most common
		return hitterProfile{avg: averageAVG, power: averagePower, speed: averageSpeed}
	case casePlatoonBat:
		// Platoon bats
		return hitterProfile{avg: platoonAVG, power: platoonPower, speed: platoonSpeed}
	case caseBenchBat:
		// Bench bats
		return hitterProfile{avg: benchAVG, power: benchPower, speed: benchSpeed}
	case caseWideRange:
		// Random across the full range
		return hitterProfile{avg: wideAVGMin + getRandomFloat()*wideAVGRange, power: widePower, speed: wideSpeed}
	default:
		return hitterProfile{avg: averageAVG, power: averagePower, speed: averageSpeed}
	}
}

// generateSingleGame creates one game record for the given player.
func generateSingleGame(player seedPlayer, season int, r *roster) model.GameRecord {
	opponent := pickOpponent()
	pitcher, hand := pickPitcher(r, opponent)
	date := time.Date(season, time.April, 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, randIndex(seasonDaySpread)).Format("2006-01-02")

	return model.GameRecord{
		SubjectID:      player.name,
		SubjectKind:    model.KindPlayer,
		Season:         season,
		GameID:         uuid.New().String(),
		Date:           date,
		Location:       pickLocation(),
		Opponent:       opponent,
		OppPitcher:     pitcher,
		OppPitcherHand: model.Hand(hand),
		Batting:        generateBattingLine(player.profile),
	}
}

// pickOpponent draws an opposing team, weighted toward the division.
func pickOpponent() string {
	if randIndex(divisionOneIn) == 0 {
		return teamCodes[randIndex(divisionTeamCount)]
	}
	return teamCodes[randIndex(len(teamCodes))]
}

// pickLocation draws a game location. A small share of records carry odd
// spellings or no location at all, matching what scraped feeds produce.
func pickLocation() model.Location {
	p := randPercent()
	loc := model.LocationHome
	switch {
	case p < homeGamePercent:
	case p < awayGamePercent:
		loc = model.LocationAway
	default:
		return "" // no recorded location; folds under "unknown"
	}
	if randIndex(upperCaseOneIn) == 0 {
		return model.Location(strings.ToUpper(string(loc)))
	}
	return loc
}

// pickPitcher draws the opposing starter from the team's rotation. A small
// share of records have no recorded starter.
func pickPitcher(r *roster, opponent string) (string, string) {
	if randPercent() >= pitcherKnownPercent {
		return "", ""
	}
	p := r.pitchers[opponent][randIndex(rotationSize)]
	return p.name, p.hand
}

// generateBattingLine rolls one game's batting outcomes from the player's
// profile. Hits never exceed at-bats and extra-base hits never exceed hits.
func generateBattingLine(profile hitterProfile) model.BattingLine {
	line := model.BattingLine{AB: minAtBats + randIndex(atBatSpread)}

	for i := 0; i < line.AB; i++ {
		if getRandomFloat() >= profile.avg {
			continue
		}
		line.H++
		switch {
		case getRandomFloat() < profile.power:
			line.HR++
		case getRandomFloat() < doublePerHit:
			line.Doubles++
		case getRandomFloat() < triplePerHit:
			line.Triples++
		}
	}

	if getRandomFloat() < walkPerGame {
		line.BB++
	}
	if so := randIndex(maxStrikeouts + 1); so <= line.AB-line.H {
		line.SO = so
	}
	if randPercent() < hbpPercent {
		line.HBP = 1
	}
	if randPercent() < sfPercent {
		line.SF = 1
	}
	if getRandomFloat() < profile.speed {
		line.SB = 1
		if randIndex(caughtOneIn) == 0 {
			line.CS = 1
		}
	}

	line.R = line.HR
	if line.H > line.HR && getRandomFloat() < runPerHit {
		line.R++
	}
	line.RBI = line.HR
	if line.H > line.HR && getRandomFloat() < rbiPerHit {
		line.RBI++
	}

	return line
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
