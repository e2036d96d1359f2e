package insights

import (
	"context"
	"sort"
	"strings"

	"pulsescore-backend/internal/scoring"
)

// Canned produces rule-based insights from a result and the scoring configuration.
type Canned struct {
	cfg          scoring.Config
	categoryRank map[string]int
}

// NewCanned builds a Canned generator. Categories rank by configured weight.
func NewCanned(cfg scoring.Config) *Canned {
	ranked := append([]scoring.CategoryWeight(nil), cfg.Categories...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Weight > ranked[j].Weight
	})
	rank := make(map[string]int, len(ranked))
	for i, c := range ranked {
		rank[c.Name] = len(ranked) - i
	}
	return &Canned{cfg: cfg, categoryRank: rank}
}

// Recommend returns at most seven ordered insights.
func (g *Canned) Recommend(result scoring.Result) []Insight {
	candidates := make([]Insight, 0, 16)
	candidates = append(candidates, fromTier(result.Tier)...)
	candidates = append(candidates, fromCategories(result.CategoryScores)...)
	candidates = append(candidates, g.fromThemes(result.ThemeScores)...)
	candidates = append(candidates, g.fromMissingThemes(result.ThemeScores)...)

	deduped := dedupe(candidates)
	g.sortInsights(deduped)
	if len(deduped) > maxInsights {
		deduped = deduped[:maxInsights]
	}
	for i := range deduped {
		deduped[i].Order = i + 1
	}
	return deduped
}

// Generate implements Generator.
func (g *Canned) Generate(_ context.Context, result scoring.Result) ([]string, error) {
	recs := g.Recommend(result)
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Title+": "+r.Action)
	}
	return out, nil
}

func severityRank(value string) int {
	switch value {
	case severityCritical:
		return 3
	case severityWarning:
		return 2
	default:
		return 1
	}
}

func impactRank(value string) int {
	switch value {
	case impactHigh:
		return 3
	case impactMedium:
		return 2
	default:
		return 1
	}
}

func dedupe(items []Insight) []Insight {
	seen := make(map[string]int, len(items))
	out := make([]Insight, 0, len(items))
	for _, item := range items {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			continue
		}
		if idx, ok := seen[id]; ok {
			out[idx] = merge(out[idx], item)
			continue
		}
		seen[id] = len(out)
		out = append(out, item)
	}
	return out
}

func merge(a, b Insight) Insight {
	if a.Title == "" {
		a.Title = b.Title
	}
	if a.Why == "" {
		a.Why = b.Why
	}
	if a.Action == "" {
		a.Action = b.Action
	}
	if a.Category == "" {
		a.Category = b.Category
	}
	if severityRank(b.Severity) > severityRank(a.Severity) {
		a.Severity = b.Severity
	}
	if impactRank(b.Impact) > impactRank(a.Impact) {
		a.Impact = b.Impact
	}
	return a
}

func (g *Canned) sortInsights(items []Insight) {
	sort.SliceStable(items, func(i, j int) bool {
		a := items[i]
		b := items[j]
		if severityRank(a.Severity) != severityRank(b.Severity) {
			return severityRank(a.Severity) > severityRank(b.Severity)
		}
		if impactRank(a.Impact) != impactRank(b.Impact) {
			return impactRank(a.Impact) > impactRank(b.Impact)
		}
		if g.categoryRank[a.Category] != g.categoryRank[b.Category] {
			return g.categoryRank[a.Category] > g.categoryRank[b.Category]
		}
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	})
}
