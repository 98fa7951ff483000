// Package priority turns an issue snapshot into a priority score, a level bucket
// and a per-factor breakdown. Scoring is pure: no I/O, no state between calls.
package priority

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/satishkumarchandala/clean-India/pkg/utils"
)

// Snapshot is the read-only view of an issue needed for scoring.
type Snapshot struct {
	Category    string
	Title       string
	Description string
	Address     string
	Upvotes     int
	CreatedAt   time.Time
}

// Level is the discrete priority bucket.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

func (l Level) Valid() bool {
	switch l {
	case LevelLow, LevelMedium, LevelHigh:
		return true
	}
	return false
}

// Breakdown holds the raw score of each factor on its own scale.
type Breakdown struct {
	Severity  float64 `json:"severity" yaml:"severity"`
	Location  float64 `json:"location" yaml:"location"`
	Community float64 `json:"community" yaml:"community"`
	Age       float64 `json:"age" yaml:"age"`
	Safety    float64 `json:"safety" yaml:"safety"`
}

// Total sums the five factors.
func (b Breakdown) Total() float64 {
	return b.Severity + b.Location + b.Community + b.Age + b.Safety
}

// Result is the engine output persisted onto an issue.
type Result struct {
	Level     Level     `json:"priorityLevel"`
	Score     int       `json:"priorityScore"`
	Breakdown Breakdown `json:"priorityBreakdown"`
}

const day = 24 * time.Hour

// Engine scores snapshots against a fixed Policy. It is safe for concurrent use.
type Engine struct {
	severityDefault float64
	severity        map[string]float64
	locationBase    float64
	locationBonus   float64
	locationWords   []string
	community       []Tier
	age             []Tier
	safetyWords     []string
	safety          []Tier
	maxScore        float64
	levels          LevelCutoffs
}

// NewEngine validates p and builds an engine from a private copy of it.
func NewEngine(p Policy) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	severity := make(map[string]float64, len(p.Severity.Categories))
	for category, w := range p.Severity.Categories {
		severity[category] = w
	}

	return &Engine{
		severityDefault: p.Severity.Default,
		severity:        severity,
		locationBase:    p.Location.Base,
		locationBonus:   p.Location.Bonus,
		locationWords:   normalizeKeywords(p.Location.Keywords),
		community:       sortTiers(p.Community),
		age:             sortTiers(p.Age),
		safetyWords:     normalizeKeywords(p.Safety.Keywords),
		safety:          sortTiers(p.Safety.Tiers),
		maxScore:        p.MaxScore,
		levels:          p.Levels,
	}, nil
}

// MustNewEngine is like NewEngine but panics on an invalid policy.
func MustNewEngine(p Policy) *Engine {
	e, err := NewEngine(p)
	if err != nil {
		panic(fmt.Sprintf("priority: %v", err))
	}
	return e
}

var defaultEngine = MustNewEngine(DefaultPolicy())

// ComputePriority scores s at instant now using DefaultPolicy.
func ComputePriority(s Snapshot, now time.Time) Result {
	return defaultEngine.Compute(s, now)
}

// Compute scores s at instant now. The same snapshot and instant always yield
// the same result.
func (e *Engine) Compute(s Snapshot, now time.Time) Result {
	b := Breakdown{
		Severity:  e.Severity(s),
		Location:  e.Location(s),
		Community: e.Community(s),
		Age:       e.Age(s, now),
		Safety:    e.Safety(s),
	}

	// Custom policies may let the factor total exceed MaxScore.
	normalized := utils.Clamp(b.Total()/e.maxScore*100, 0, 100)
	score := int(math.Round(normalized))

	return Result{
		Level:     e.Level(float64(score)),
		Score:     score,
		Breakdown: b,
	}
}

// Level buckets a normalized score; cut-offs are inclusive lower bounds.
func (e *Engine) Level(score float64) Level {
	switch {
	case score >= e.levels.High:
		return LevelHigh
	case score >= e.levels.Medium:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Severity looks the category up in the static weight table.
func (e *Engine) Severity(s Snapshot) float64 {
	if w, ok := e.severity[s.Category]; ok {
		return w
	}
	return e.severityDefault
}

// Location adds a single flat bonus when any critical place is mentioned.
func (e *Engine) Location(s Snapshot) float64 {
	text := strings.ToLower(s.Description + " " + s.Title + " " + s.Address)
	if countKeywords(text, e.locationWords) > 0 {
		return e.locationBase + e.locationBonus
	}
	return e.locationBase
}

// Community steps on the upvote count.
func (e *Engine) Community(s Snapshot) float64 {
	return tierScore(e.community, s.Upvotes)
}

// Age steps on whole days elapsed since creation. Future timestamps land in the
// lowest tier.
func (e *Engine) Age(s Snapshot, now time.Time) float64 {
	return tierScore(e.age, ElapsedDays(s.CreatedAt, now))
}

// Safety steps on the number of distinct hazard keywords in title and description.
func (e *Engine) Safety(s Snapshot) float64 {
	text := strings.ToLower(s.Description + " " + s.Title)
	return tierScore(e.safety, countKeywords(text, e.safetyWords))
}

// ElapsedDays returns floor((now - createdAt) / 24h).
func ElapsedDays(createdAt, now time.Time) int {
	return int(math.Floor(float64(now.Sub(createdAt)) / float64(day)))
}

// tierScore returns the first tier (sorted descending) whose Min v reaches, or
// the lowest tier when v is below every threshold.
func tierScore(tiers []Tier, v int) float64 {
	for _, t := range tiers {
		if v >= t.Min {
			return t.Score
		}
	}
	return tiers[len(tiers)-1].Score
}

// countKeywords counts keywords present in text; each keyword counts once.
func countKeywords(text string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			n++
		}
	}
	return n
}

func sortTiers(tiers []Tier) []Tier {
	out := append([]Tier(nil), tiers...)
	sort.Slice(out, func(i, j int) bool { return out[i].Min > out[j].Min })
	return out
}

func normalizeKeywords(keywords []string) []string {
	seen := make(map[string]bool, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	return out
}
