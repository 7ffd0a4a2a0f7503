package classify

import (
	"fmt"
	"strconv"
	"strings"
)

// Factor names one scoring dimension.
type Factor string

const (
	FactorDuration Factor = "duration"
	FactorTempo    Factor = "tempo"
	FactorBeats    Factor = "beats"
	FactorHarmonic Factor = "harmonic"
	FactorSpectral Factor = "spectral"
)

// Factors lists every factor in reporting order.
var Factors = []Factor{FactorDuration, FactorTempo, FactorBeats, FactorHarmonic, FactorSpectral}

// MaxScore caps each side's total.
const MaxScore = 100

// Weight returns the fixed point value of a factor.
func Weight(f Factor) int {
	switch f {
	case FactorDuration:
		return 30
	case FactorTempo:
		return 25
	case FactorBeats:
		return 20
	case FactorHarmonic:
		return 15
	case FactorSpectral:
		return 10
	}
	return 0
}

// Award is the points one factor gave to each side. At most one side is
// non-zero. Skipped marks a factor whose input was unavailable.
type Award struct {
	Song    int
	Effect  int
	Skipped bool
}

// Breakdown records each factor's award for auditing.
type Breakdown map[Factor]Award

// Totals sums the awards per side, capping each at MaxScore.
func (b Breakdown) Totals() (song, effect int) {
	for _, award := range b {
		song += award.Song
		effect += award.Effect
	}
	return min(song, MaxScore), min(effect, MaxScore)
}

// Decide applies the decisiveness margin to the summed awards. A side wins
// only when it leads by strictly more than margin points. Ambiguous confidence
// is capped strictly below the margin.
func (b Breakdown) Decide(margin int) (Category, float64) {
	song, effect := b.Totals()
	switch {
	case song-effect > margin:
		return Song, float64(song) / MaxScore
	case effect-song > margin:
		return SoundEffect, float64(effect) / MaxScore
	}
	return Ambiguous, float64(max(min(max(song, effect), margin-1), 0)) / MaxScore
}

// String renders the breakdown as "factor=song/effect" pairs in factor order;
// skipped factors render as "factor=-".
func (b Breakdown) String() string {
	parts := make([]string, 0, len(Factors))
	for _, f := range Factors {
		award, ok := b[f]
		if !ok {
			continue
		}
		if award.Skipped {
			parts = append(parts, string(f)+"=-")
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%d/%d", f, award.Song, award.Effect))
	}
	return strings.Join(parts, " ")
}

// ParseBreakdown is the inverse of Breakdown.String.
func ParseBreakdown(value string) (Breakdown, error) {
	out := Breakdown{}
	for _, field := range strings.Fields(value) {
		name, points, ok := strings.Cut(field, "=")
		if !ok {
			return nil, fmt.Errorf("breakdown field %q: missing '='", field)
		}
		factor := Factor(name)
		if Weight(factor) == 0 {
			return nil, fmt.Errorf("breakdown field %q: unknown factor", field)
		}
		if points == "-" {
			out[factor] = Award{Skipped: true}
			continue
		}
		songText, effectText, ok := strings.Cut(points, "/")
		if !ok {
			return nil, fmt.Errorf("breakdown field %q: missing '/'", field)
		}
		song, err := strconv.Atoi(songText)
		if err != nil {
			return nil, fmt.Errorf("breakdown field %q: %w", field, err)
		}
		effect, err := strconv.Atoi(effectText)
		if err != nil {
			return nil, fmt.Errorf("breakdown field %q: %w", field, err)
		}
		out[factor] = Award{Song: song, Effect: effect}
	}
	return out, nil
}
