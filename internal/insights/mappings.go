package insights

import (
	"fmt"
	"strings"

	"pulsescore-backend/internal/scoring"
	"pulsescore-backend/internal/shared/util"
)

const (
	categoryCriticalBelow = 50
	categoryWarningBelow  = 70
	themeCriticalBelow    = 40
	themeWarningBelow     = 60
)

type themeAdvice struct {
	why    string
	action string
}

var themeActions = map[string]themeAdvice{
	scoring.ThemeTrustInLeadership: {
		why:    "Low trust in leadership slows decisions and raises attrition risk.",
		action: "Share the reasoning behind recent decisions and hold open skip-level sessions each month.",
	},
	scoring.ThemePsychologicalSafety: {
		why:    "People who feel unsafe stop raising problems early.",
		action: "Ask managers to open retros with their own mistakes and thank people publicly for flagging risks.",
	},
	scoring.ThemeInclusionBelonging: {
		why:    "Employees who feel excluded disengage quietly before they leave.",
		action: "Rotate meeting facilitation and review who is invited to key decisions.",
	},
	scoring.ThemeMotivationFulfillment: {
		why:    "Low fulfilment shows up as lower discretionary effort.",
		action: "Pair each person with a growth goal and revisit it in one-on-ones.",
	},
	scoring.ThemeMissionAlignment: {
		why:    "Teams that cannot connect their work to the mission drift in priority.",
		action: "Tie every quarterly goal to a mission statement and review it in all-hands.",
	},
	scoring.ThemeEngagementContinuity: {
		why:    "Weak intent to stay predicts near-term turnover.",
		action: "Run stay interviews with high performers and act on the top two themes raised.",
	},
}

func fromTier(tier scoring.Tier) []Insight {
	switch tier {
	case scoring.TierInterventionAdvised:
		return []Insight{{
			ID:       "TIER_INTERVENTION",
			Severity: severityCritical,
			Impact:   impactHigh,
			Title:    "Plan a culture intervention",
			Why:      "The overall PulseScore is below 50.",
			Action:   "Share results with leadership within two weeks and agree on one owner per weak category.",
		}}
	case scoring.TierAtRisk:
		return []Insight{{
			ID:       "TIER_AT_RISK",
			Severity: severityWarning,
			Impact:   impactHigh,
			Title:    "Stabilize the weakest areas",
			Why:      "The overall PulseScore sits in the at-risk band.",
			Action:   "Pick the two lowest categories and set a 90-day improvement target for each.",
		}}
	case scoring.TierEmergingCulture:
		return []Insight{{
			ID:       "TIER_EMERGING",
			Severity: severityInfo,
			Impact:   impactMedium,
			Title:    "Close the gap to certification",
			Why:      "The organization is within reach of the certified tier.",
			Action:   "Focus on the lowest-scoring theme and re-survey next quarter.",
		}}
	case scoring.TierPulseCertified:
		return []Insight{{
			ID:       "TIER_CERTIFIED",
			Severity: severityInfo,
			Impact:   impactLow,
			Title:    "Maintain certification",
			Why:      "The organization meets the certified threshold.",
			Action:   "Keep a quarterly survey cadence and share what is working across teams.",
		}}
	default:
		return nil
	}
}

func fromCategories(categories []scoring.CategoryScore) []Insight {
	out := make([]Insight, 0, len(categories))
	for _, c := range categories {
		var severity, impact string
		switch {
		case c.Score < categoryCriticalBelow:
			severity, impact = severityCritical, impactHigh
		case c.Score < categoryWarningBelow:
			severity, impact = severityWarning, impactMedium
		default:
			continue
		}
		label := util.Humanize(c.Category)
		out = append(out, Insight{
			ID:       "CATEGORY_" + strings.ToUpper(strings.ReplaceAll(c.Category, "-", "_")),
			Category: c.Category,
			Severity: severity,
			Impact:   impact,
			Title:    "Improve " + label,
			Why:      fmt.Sprintf("%s scored %d and carries %.0f%% of the overall score.", label, c.Score, c.Weight*100),
			Action:   fmt.Sprintf("Review the lowest %s themes with team leads and agree on one change per team.", label),
		})
	}
	return out
}

func (g *Canned) fromThemes(themes []scoring.ThemeScore) []Insight {
	out := make([]Insight, 0, len(themes))
	for _, t := range themes {
		var severity, impact string
		switch {
		case t.Score < themeCriticalBelow:
			severity, impact = severityCritical, impactHigh
		case t.Score < themeWarningBelow:
			severity, impact = severityWarning, impactMedium
		default:
			continue
		}
		category, _ := g.cfg.CategoryOf(t.Theme)
		advice, ok := themeActions[t.Theme]
		if !ok {
			advice = themeAdvice{
				why:    "This theme is well below the rest of the survey.",
				action: "Run a short follow-up conversation to understand the low answers.",
			}
		}
		out = append(out, Insight{
			ID:       "THEME_" + strings.ToUpper(strings.ReplaceAll(t.Theme, "-", "_")),
			Category: category,
			Severity: severity,
			Impact:   impact,
			Title:    fmt.Sprintf("Address %s (%d)", util.Humanize(t.Theme), t.Score),
			Why:      advice.why,
			Action:   advice.action,
		})
	}
	return out
}

func (g *Canned) fromMissingThemes(themes []scoring.ThemeScore) []Insight {
	present := make(map[string]bool, len(themes))
	for _, t := range themes {
		present[t.Theme] = true
	}
	var missing []string
	for _, name := range g.cfg.ThemeNames() {
		if !present[name] {
			missing = append(missing, util.Humanize(name))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return []Insight{{
		ID:       "THEMES_NO_DATA",
		Severity: severityInfo,
		Impact:   impactLow,
		Title:    "Collect answers for unmeasured themes",
		Why:      "Unanswered themes are left out, and a category with no answered themes scores zero.",
		Action:   "Add scored questions for: " + strings.Join(missing, ", ") + ".",
	}}
}
