package scoring

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig marks a scoring configuration that must not be used.
var ErrInvalidConfig = errors.New("invalid scoring config")

const weightTolerance = 0.000001

// Default theme names.
const (
	ThemeTrustInLeadership     = "trust-in-leadership"
	ThemePsychologicalSafety   = "psychological-safety"
	ThemeInclusionBelonging    = "inclusion-belonging"
	ThemeMotivationFulfillment = "motivation-fulfillment"
	ThemeMissionAlignment      = "mission-alignment"
	ThemeEngagementContinuity  = "engagement-continuity"
)

// Default category names.
const (
	CategoryEmotionIndex        = "emotion-index"
	CategoryEngagementStability = "engagement-stability"
	CategoryCultureTrust        = "culture-trust"
)

// Scale is the numeric input range of numeric-scale answers.
type Scale struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// CategoryWeight is one category and its share of the overall score.
type CategoryWeight struct {
	Name   string  `json:"name" yaml:"name"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// ThemeMapping assigns a theme to exactly one category.
type ThemeMapping struct {
	Theme    string `json:"theme" yaml:"theme"`
	Category string `json:"category" yaml:"category"`
}

// TierThreshold is the lowest overall score that earns Tier.
type TierThreshold struct {
	Tier     Tier `json:"tier" yaml:"tier"`
	MinScore int  `json:"minScore" yaml:"minScore"`
}

// Config is the versioned scoring configuration passed into the pipeline.
type Config struct {
	Version    string           `json:"version" yaml:"version"`
	Scale      Scale            `json:"scale" yaml:"scale"`
	Categories []CategoryWeight `json:"categories" yaml:"categories"`
	Themes     []ThemeMapping   `json:"themes" yaml:"themes"`
	// Tiers are ordered from highest to lowest MinScore.
	Tiers []TierThreshold `json:"tiers" yaml:"tiers"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Version: "2024-06.1",
		Scale:   Scale{Min: 1, Max: 5},
		Categories: []CategoryWeight{
			{Name: CategoryEmotionIndex, Weight: 0.35},
			{Name: CategoryEngagementStability, Weight: 0.30},
			{Name: CategoryCultureTrust, Weight: 0.35},
		},
		Themes: []ThemeMapping{
			{Theme: ThemeTrustInLeadership, Category: CategoryCultureTrust},
			{Theme: ThemePsychologicalSafety, Category: CategoryCultureTrust},
			{Theme: ThemeInclusionBelonging, Category: CategoryEmotionIndex},
			{Theme: ThemeMotivationFulfillment, Category: CategoryEmotionIndex},
			{Theme: ThemeMissionAlignment, Category: CategoryEngagementStability},
			{Theme: ThemeEngagementContinuity, Category: CategoryEngagementStability},
		},
		Tiers: []TierThreshold{
			{Tier: TierPulseCertified, MinScore: 85},
			{Tier: TierEmergingCulture, MinScore: 70},
			{Tier: TierAtRisk, MinScore: 50},
			{Tier: TierInterventionAdvised, MinScore: 0},
		},
	}
}

// ParseConfig decodes a YAML (or JSON) configuration and validates it.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: decode: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfigFile reads the configuration at path. An empty path yields DefaultConfig.
func LoadConfigFile(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read scoring config %s: %w", path, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration invariants.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Version) == "" {
		return invalid("version is required")
	}
	if math.IsNaN(c.Scale.Min) || math.IsNaN(c.Scale.Max) || c.Scale.Max <= c.Scale.Min {
		return invalid("scale.max must be greater than scale.min, got %v..%v", c.Scale.Min, c.Scale.Max)
	}

	if len(c.Categories) != 3 {
		return invalid("categories must contain exactly 3 items, got %d", len(c.Categories))
	}
	categories := make(map[string]bool, len(c.Categories))
	total := 0.0
	for i, cat := range c.Categories {
		name := cat.Name
		if err := checkName(fmt.Sprintf("categories[%d].name", i), name); err != nil {
			return err
		}
		if categories[name] {
			return invalid("categories[%d].name %q is duplicated", i, name)
		}
		categories[name] = true
		if math.IsNaN(cat.Weight) || cat.Weight < 0 || cat.Weight > 1 {
			return invalid("categories[%d].weight must be between 0 and 1", i)
		}
		total += cat.Weight
	}
	if math.Abs(total-1) > weightTolerance {
		return invalid("category weights must total 1.0, got %.6f", total)
	}

	if len(c.Themes) == 0 {
		return invalid("themes must not be empty")
	}
	themes := make(map[string]bool, len(c.Themes))
	for i, m := range c.Themes {
		theme := m.Theme
		if err := checkName(fmt.Sprintf("themes[%d].theme", i), theme); err != nil {
			return err
		}
		if themes[theme] {
			return invalid("themes[%d].theme %q is mapped more than once", i, theme)
		}
		themes[theme] = true
		if err := checkName(fmt.Sprintf("themes[%d].category", i), m.Category); err != nil {
			return err
		}
		if !categories[m.Category] {
			return invalid("theme %q maps to unknown category %q", theme, m.Category)
		}
	}

	if len(c.Tiers) == 0 {
		return invalid("tiers must not be empty")
	}
	tiers := make(map[Tier]bool, len(c.Tiers))
	for i, t := range c.Tiers {
		if err := checkName(fmt.Sprintf("tiers[%d].tier", i), string(t.Tier)); err != nil {
			return err
		}
		if tiers[t.Tier] {
			return invalid("tiers[%d].tier %q is duplicated", i, t.Tier)
		}
		tiers[t.Tier] = true
		if t.MinScore < 0 || t.MinScore > 100 {
			return invalid("tiers[%d].minScore must be between 0 and 100", i)
		}
		if i > 0 && t.MinScore >= c.Tiers[i-1].MinScore {
			return invalid("tiers must be ordered by strictly descending minScore")
		}
	}
	if last := c.Tiers[len(c.Tiers)-1]; last.MinScore != 0 {
		return invalid("lowest tier %q must start at 0", last.Tier)
	}
	return nil
}

// CategoryOf returns the category a theme rolls up into.
func (c Config) CategoryOf(theme string) (string, bool) {
	for _, m := range c.Themes {
		if m.Theme == theme {
			return m.Category, true
		}
	}
	return "", false
}

// ThemeNames lists configured themes in configuration order.
func (c Config) ThemeNames() []string {
	out := make([]string, 0, len(c.Themes))
	for _, m := range c.Themes {
		out = append(out, m.Theme)
	}
	return out
}

func (c Config) clone() Config {
	out := c
	out.Categories = append([]CategoryWeight(nil), c.Categories...)
	out.Themes = append([]ThemeMapping(nil), c.Themes...)
	out.Tiers = append([]TierThreshold(nil), c.Tiers...)
	return out
}

// checkName rejects empty names and names with surrounding whitespace, since
// lookups during scoring match names exactly.
func checkName(field, name string) error {
	if strings.TrimSpace(name) == "" {
		return invalid("%s is required", field)
	}
	if strings.TrimSpace(name) != name {
		return invalid("%s %q has leading or trailing whitespace", field, name)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
