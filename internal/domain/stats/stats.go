// Package stats turns counting totals into finalized rate statistics.
package stats

import (
	"math"

	"github.com/okian/dugout/internal/domain/model"
)

// Serialized rates are rounded to a fixed precision so that encoding a tree
// built from the same games always yields the same bytes.
const (
	battingPrecision  = 3 // avg, obp, slg, ops, k_rate, bb_rate
	pitchingPrecision = 2 // era, whip, k9, bb9
)

// Batting is the finalized view of a batting bundle: the counting totals
// plus the rates derived from them. A zero denominator yields a zero rate,
// never NaN or Inf.
type Batting struct {
	model.BattingLine
	AVG float64 `json:"avg"`
	OBP float64 `json:"obp"`
	SLG float64 `json:"slg"`
	OPS float64 `json:"ops"`
}

// Pitching is the finalized view of a pitching bundle.
type Pitching struct {
	model.PitchingLine
	ERA    float64 `json:"era"`
	WHIP   float64 `json:"whip"`
	K9     float64 `json:"k9"`
	BB9    float64 `json:"bb9"`
	KRate  float64 `json:"k_rate"`
	BBRate float64 `json:"bb_rate"`
}

// TotalBases derives total bases from a batting line. H already includes
// the extra-base hits, so each doubles/triples/homer adds only its bases
// beyond the first.
func TotalBases(line model.BattingLine) int {
	return line.H + line.Doubles + 2*line.Triples + 3*line.HR
}

// FinalizeBatting computes the rate view of a batting line. OPS is derived
// from the unrounded on-base and slugging values before its own rounding.
func FinalizeBatting(line model.BattingLine) Batting {
	b := Batting{BattingLine: line}
	var obp, slg float64
	if line.AB > 0 {
		b.AVG = round(float64(line.H)/float64(line.AB), battingPrecision)
		slg = float64(TotalBases(line)) / float64(line.AB)
	}
	if den := line.AB + line.BB + line.HBP + line.SF; den > 0 {
		obp = float64(line.H+line.BB+line.HBP) / float64(den)
	}
	b.OBP = round(obp, battingPrecision)
	b.SLG = round(slg, battingPrecision)
	b.OPS = round(obp+slg, battingPrecision)
	return b
}

// FinalizePitching computes the rate view of a pitching line. Innings-based
// rates use the true innings value (outs divided by three), never the "W.O"
// notation read as a decimal.
func FinalizePitching(line model.PitchingLine) Pitching {
	p := Pitching{PitchingLine: line}
	if ip := line.IP.Float(); ip > 0 {
		p.ERA = round(9*float64(line.ER)/ip, pitchingPrecision)
		p.WHIP = round(float64(line.BB+line.H)/ip, pitchingPrecision)
		p.K9 = round(9*float64(line.SO)/ip, pitchingPrecision)
		p.BB9 = round(9*float64(line.BB)/ip, pitchingPrecision)
	}
	if line.BF > 0 {
		p.KRate = round(float64(line.SO)/float64(line.BF), battingPrecision)
		p.BBRate = round(float64(line.BB)/float64(line.BF), battingPrecision)
	}
	return p
}

func round(v float64, places int) float64 {
	scale := math.Pow10(places)
	return math.Round(v*scale) / scale
}
