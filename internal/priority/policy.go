package priority

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tier is one row of an ordered threshold table: any input >= Min scores Score.
type Tier struct {
	Min   int     `yaml:"min"`
	Score float64 `yaml:"score"`
}

// SeverityPolicy maps an issue category to its civic impact weight.
type SeverityPolicy struct {
	Default    float64            `yaml:"default"`
	Categories map[string]float64 `yaml:"categories"`
}

// LocationPolicy grants a flat bonus when the issue text names a critical place.
type LocationPolicy struct {
	Base     float64  `yaml:"base"`
	Bonus    float64  `yaml:"bonus"`
	Keywords []string `yaml:"keywords"`
}

// SafetyPolicy scores the number of distinct hazard keywords found in the issue text.
type SafetyPolicy struct {
	Keywords []string `yaml:"keywords"`
	Tiers    []Tier   `yaml:"tiers"`
}

// LevelCutoffs are the minimum normalized scores for the high and medium buckets.
type LevelCutoffs struct {
	High   float64 `yaml:"high"`
	Medium float64 `yaml:"medium"`
}

// Policy is the static rule set the engine scores against.
type Policy struct {
	Severity  SeverityPolicy `yaml:"severity"`
	Location  LocationPolicy `yaml:"location"`
	Community []Tier         `yaml:"community"`
	Age       []Tier         `yaml:"age"`
	Safety    SafetyPolicy   `yaml:"safety"`
	MaxScore  float64        `yaml:"max_score"`
	Levels    LevelCutoffs   `yaml:"levels"`
}

// DefaultPolicy returns the built-in scoring rules. Factor maxima sum to MaxScore.
func DefaultPolicy() Policy {
	return Policy{
		Severity: SeverityPolicy{
			Default: 10,
			Categories: map[string]float64{
				"water":          20,
				"electricity":    18,
				"road":           16,
				"infrastructure": 15,
				"sanitation":     14,
				"transport":      12,
				"environment":    10,
				"others":         8,
			},
		},
		Location: LocationPolicy{
			Base:  10,
			Bonus: 10,
			Keywords: []string{
				"school", "hospital", "clinic", "market", "junction",
				"highway", "main road", "bus stop", "station",
			},
		},
		Community: []Tier{
			{Min: 50, Score: 20},
			{Min: 30, Score: 16},
			{Min: 15, Score: 12},
			{Min: 5, Score: 8},
			{Min: 0, Score: 4},
		},
		Age: []Tier{
			{Min: 30, Score: 20},
			{Min: 14, Score: 15},
			{Min: 7, Score: 10},
			{Min: 3, Score: 6},
			{Min: 0, Score: 3},
		},
		Safety: SafetyPolicy{
			Keywords: []string{
				"danger", "unsafe", "hazard", "accident", "broken", "leak",
				"flooding", "fire", "emergency", "urgent", "critical",
				"exposed", "damaged", "collapse",
			},
			Tiers: []Tier{
				{Min: 3, Score: 20},
				{Min: 2, Score: 15},
				{Min: 1, Score: 10},
				{Min: 0, Score: 5},
			},
		},
		MaxScore: 100,
		Levels:   LevelCutoffs{High: 70, Medium: 40},
	}
}

// LoadPolicy reads a YAML policy file. Fields absent from the file keep their
// DefaultPolicy values; tier and keyword lists are replaced as a whole.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("priority: failed to read policy %q: %w", path, err)
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes a YAML policy on top of DefaultPolicy and validates it.
func ParsePolicy(data []byte) (Policy, error) {
	p := DefaultPolicy()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Policy{}, fmt.Errorf("priority: failed to parse policy: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// Marshal renders the policy as YAML.
func (p Policy) Marshal() ([]byte, error) {
	out, err := yaml.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("priority: failed to marshal policy: %w", err)
	}
	return out, nil
}

// Validate reports every reason the policy cannot be used by an Engine.
func (p Policy) Validate() error {
	var errs []error

	if !validWeight(p.MaxScore) || p.MaxScore == 0 {
		errs = append(errs, fmt.Errorf("max_score must be positive, got %v", p.MaxScore))
	}
	if !validWeight(p.Levels.Medium) || !validWeight(p.Levels.High) || p.Levels.High <= p.Levels.Medium {
		errs = append(errs, fmt.Errorf("levels: need 0 <= medium < high, got medium=%v high=%v", p.Levels.Medium, p.Levels.High))
	}

	if !validWeight(p.Severity.Default) {
		errs = append(errs, fmt.Errorf("severity.default: invalid weight %v", p.Severity.Default))
	}
	for category, w := range p.Severity.Categories {
		if !validWeight(w) {
			errs = append(errs, fmt.Errorf("severity.categories[%s]: invalid weight %v", category, w))
		}
	}

	if !validWeight(p.Location.Base) || !validWeight(p.Location.Bonus) {
		errs = append(errs, errors.New("location: base and bonus must be finite and non-negative"))
	}
	if err := validateKeywords("location.keywords", p.Location.Keywords); err != nil {
		errs = append(errs, err)
	}
	if err := validateKeywords("safety.keywords", p.Safety.Keywords); err != nil {
		errs = append(errs, err)
	}

	for name, tiers := range map[string][]Tier{
		"community":    p.Community,
		"age":          p.Age,
		"safety.tiers": p.Safety.Tiers,
	} {
		if err := validateTiers(name, tiers); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("priority: invalid policy: %w", errors.Join(errs...))
	}
	return nil
}

func validWeight(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

func validateKeywords(name string, keywords []string) error {
	for i, kw := range keywords {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("%s[%d]: empty keyword", name, i)
		}
	}
	return nil
}

func validateTiers(name string, tiers []Tier) error {
	if len(tiers) == 0 {
		return fmt.Errorf("%s: at least one tier is required", name)
	}
	seen := make(map[int]bool, len(tiers))
	for _, t := range tiers {
		if seen[t.Min] {
			return fmt.Errorf("%s: duplicate tier min %d", name, t.Min)
		}
		seen[t.Min] = true
		if !validWeight(t.Score) {
			return fmt.Errorf("%s: tier min %d has invalid score %v", name, t.Min, t.Score)
		}
	}
	return nil
}
