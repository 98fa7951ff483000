package priority

import (
	"fmt"
	"math"
)

// DefaultFactorMax is the display scale of a single factor.
const DefaultFactorMax = 20

const (
	FactorSeverity  = "severity"
	FactorLocation  = "location"
	FactorCommunity = "community"
	FactorAge       = "age"
	FactorSafety    = "safety"
)

var factorDescriptions = map[string]string{
	FactorSeverity:  "Based on issue category impact",
	FactorLocation:  "Proximity to critical areas",
	FactorCommunity: "Community support (upvotes)",
	FactorAge:       "Time since reported",
	FactorSafety:    "Safety concerns detected",
}

// Color returns the display color for the level.
func (l Level) Color() string {
	switch l {
	case LevelHigh:
		return "#e74c3c"
	case LevelMedium:
		return "#f39c12"
	case LevelLow:
		return "#3498db"
	default:
		return "#95a5a6"
	}
}

// Emoji returns the display glyph for the level.
func (l Level) Emoji() string {
	switch l {
	case LevelHigh:
		return "🔴"
	case LevelMedium:
		return "🟡"
	case LevelLow:
		return "🔵"
	default:
		return "⚪"
	}
}

// ScorePercentage expresses score as a rounded percentage of max. A non-positive
// max falls back to DefaultFactorMax.
func ScorePercentage(score, max float64) int {
	if max <= 0 {
		max = DefaultFactorMax
	}
	return int(math.Round(score / max * 100))
}

// FormatScore renders a factor score on the default display scale, e.g. "16/20".
func FormatScore(score float64) string {
	return fmt.Sprintf("%d/%d", int(math.Round(score)), DefaultFactorMax)
}

// FactorView is one row of a score explanation.
type FactorView struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Score       float64 `json:"score"`
	Display     string  `json:"display"`
	Percentage  int     `json:"percentage"`
}

// Explanation is the presentation form of a Result.
type Explanation struct {
	Level   Level        `json:"level"`
	Score   int          `json:"score"`
	Color   string       `json:"color"`
	Emoji   string       `json:"emoji"`
	Factors []FactorView `json:"factors"`
}

// Factor is a named raw factor score.
type Factor struct {
	Name  string
	Score float64
}

// Factors lists the breakdown in display order.
func (b Breakdown) Factors() []Factor {
	return []Factor{
		{FactorSeverity, b.Severity},
		{FactorLocation, b.Location},
		{FactorCommunity, b.Community},
		{FactorAge, b.Age},
		{FactorSafety, b.Safety},
	}
}

// Explain builds the display view of r. It never changes the stored values.
func Explain(r Result) Explanation {
	factors := r.Breakdown.Factors()
	views := make([]FactorView, 0, len(factors))
	for _, f := range factors {
		views = append(views, FactorView{
			Name:        f.Name,
			Description: factorDescriptions[f.Name],
			Score:       f.Score,
			Display:     FormatScore(f.Score),
			Percentage:  ScorePercentage(f.Score, DefaultFactorMax),
		})
	}
	return Explanation{
		Level:   r.Level,
		Score:   r.Score,
		Color:   r.Level.Color(),
		Emoji:   r.Level.Emoji(),
		Factors: views,
	}
}
