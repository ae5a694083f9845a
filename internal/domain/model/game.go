// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
)

// SubjectKind distinguishes player records from team records.
type SubjectKind string

// Subject kinds.
const (
	KindPlayer SubjectKind = "player"
	KindTeam   SubjectKind = "team"
)

// Valid reports whether the kind is one of the known subject kinds.
func (k SubjectKind) Valid() bool {
	return k == KindPlayer || k == KindTeam
}

// Location is where a game was played from the subject's perspective.
type Location string

// Game locations. Records with an unrecognized location fold under
// LocationUnknown rather than being rejected.
const (
	LocationHome    Location = "home"
	LocationAway    Location = "away"
	LocationUnknown Location = "unknown"
)

// ParseLocation maps a raw location string onto the known set.
func ParseLocation(s string) Location {
	switch Location(strings.ToLower(s)) {
	case LocationHome:
		return LocationHome
	case LocationAway:
		return LocationAway
	default:
		return LocationUnknown
	}
}

// Hand is a throwing hand. Unknown hands fold under HandUnknown.
type Hand string

// Throwing hands.
const (
	HandLeft    Hand = "L"
	HandRight   Hand = "R"
	HandUnknown Hand = "unknown"
)

// ParseHand maps a raw handedness string onto the known set.
func ParseHand(s string) Hand {
	switch strings.ToUpper(s) {
	case "L":
		return HandLeft
	case "R":
		return HandRight
	default:
		return HandUnknown
	}
}

// BattingLine holds one batting counting bundle. All fields are
// non-negative and additive across games.
type BattingLine struct {
	AB      int `json:"ab"`
	R       int `json:"r"`
	H       int `json:"h"`
	Doubles int `json:"2b"`
	Triples int `json:"3b"`
	HR      int `json:"hr"`
	RBI     int `json:"rbi"`
	BB      int `json:"bb"`
	SO      int `json:"so"`
	HBP     int `json:"hbp"`
	SF      int `json:"sf"`
	SB      int `json:"sb"`
	CS      int `json:"cs"`
}

// Add accumulates another line into this one.
func (b *BattingLine) Add(o BattingLine) {
	b.AB += o.AB
	b.R += o.R
	b.H += o.H
	b.Doubles += o.Doubles
	b.Triples += o.Triples
	b.HR += o.HR
	b.RBI += o.RBI
	b.BB += o.BB
	b.SO += o.SO
	b.HBP += o.HBP
	b.SF += o.SF
	b.SB += o.SB
	b.CS += o.CS
}

// PitchingLine holds one pitching counting bundle. Innings pitched uses
// "W.O" notation on the wire and outs internally.
type PitchingLine struct {
	IP Innings `json:"ip"`
	H  int     `json:"h"`
	R  int     `json:"r"`
	ER int     `json:"er"`
	BB int     `json:"bb"`
	SO int     `json:"so"`
	HR int     `json:"hr"`
	BF int     `json:"bf"`
	W  int     `json:"w"`
	L  int     `json:"l"`
	SV int     `json:"sv"`
}

// Add accumulates another line into this one. Innings are summed in outs.
func (p *PitchingLine) Add(o PitchingLine) {
	p.IP = p.IP.Add(o.IP)
	p.H += o.H
	p.R += o.R
	p.ER += o.ER
	p.BB += o.BB
	p.SO += o.SO
	p.HR += o.HR
	p.BF += o.BF
	p.W += o.W
	p.L += o.L
	p.SV += o.SV
}

// GameRecord is one subject's performance in one game. Records are written
// by the raw ingestion side and are immutable afterwards; everything here
// reads them only.
type GameRecord struct {
	SubjectID      string       `json:"subject_id"`
	SubjectKind    SubjectKind  `json:"subject_kind"`
	Season         int          `json:"season"`
	GameID         string       `json:"game_id"`
	Date           string       `json:"date,omitempty"` // YYYY-MM-DD
	Location       Location     `json:"location"`
	Opponent       string       `json:"opponent"`
	OppPitcher     string       `json:"opp_pitcher,omitempty"`
	OppPitcherHand Hand         `json:"opp_pitcher_hand,omitempty"`
	Batting        BattingLine  `json:"batting"`
	Pitching       PitchingLine `json:"pitching"`
}

// Earliest season with recorded professional play; used as a sanity bound.
const (
	minSeason = 1871
	maxSeason = 2100
)

// Validate checks the record before it is accepted into raw storage.
// All failures wrap ErrInvalidRecord.
func (g *GameRecord) Validate() error {
	if g.SubjectID == "" {
		return fmt.Errorf("%w: missing subject id", ErrInvalidRecord)
	}
	if strings.Contains(g.SubjectID, ":") {
		return fmt.Errorf("%w: subject id %q contains a reserved character", ErrInvalidRecord, g.SubjectID)
	}
	if !g.SubjectKind.Valid() {
		return fmt.Errorf("%w: unknown subject kind %q", ErrInvalidRecord, g.SubjectKind)
	}
	if g.Season < minSeason || g.Season > maxSeason {
		return fmt.Errorf("%w: season %d out of range", ErrInvalidRecord, g.Season)
	}
	if g.GameID == "" {
		return fmt.Errorf("%w: missing game id", ErrInvalidRecord)
	}
	if strings.Contains(g.GameID, ":") {
		return fmt.Errorf("%w: game id %q contains a reserved character", ErrInvalidRecord, g.GameID)
	}
	if g.Opponent == "" {
		return fmt.Errorf("%w: missing opponent", ErrInvalidRecord)
	}
	if err := nonNegative("batting",
		g.Batting.AB, g.Batting.R, g.Batting.H, g.Batting.Doubles, g.Batting.Triples,
		g.Batting.HR, g.Batting.RBI, g.Batting.BB, g.Batting.SO, g.Batting.HBP,
		g.Batting.SF, g.Batting.SB, g.Batting.CS); err != nil {
		return err
	}
	if err := nonNegative("pitching",
		g.Pitching.IP.Outs(), g.Pitching.H, g.Pitching.R, g.Pitching.ER, g.Pitching.BB,
		g.Pitching.SO, g.Pitching.HR, g.Pitching.BF, g.Pitching.W, g.Pitching.L,
		g.Pitching.SV); err != nil {
		return err
	}
	if g.Batting.H > g.Batting.AB {
		return fmt.Errorf("%w: hits exceed at-bats", ErrInvalidRecord)
	}
	return nil
}

func nonNegative(bundle string, counts ...int) error {
	for _, c := range counts {
		if c < 0 {
			return fmt.Errorf("%w: negative %s count", ErrInvalidRecord, bundle)
		}
	}
	return nil
}
