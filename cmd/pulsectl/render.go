package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"pulsescore-backend/internal/scoring"
	"pulsescore-backend/internal/shared/util"
)

var tierColors = map[scoring.Tier]lipgloss.Color{
	scoring.TierPulseCertified:      lipgloss.Color("#8BC34A"),
	scoring.TierEmergingCulture:     lipgloss.Color("#2196F3"),
	scoring.TierAtRisk:              lipgloss.Color("#FFC107"),
	scoring.TierInterventionAdvised: lipgloss.Color("#E53935"),
}

type textStyles struct {
	title  lipgloss.Style
	label  lipgloss.Style
	muted  lipgloss.Style
	box    lipgloss.Style
	render *lipgloss.Renderer
}

func newTextStyles(w io.Writer) textStyles {
	r := lipgloss.NewRenderer(w)
	return textStyles{
		title:  r.NewStyle().Bold(true),
		label:  r.NewStyle().Width(26),
		muted:  r.NewStyle().Faint(true),
		box:    r.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
		render: r,
	}
}

func (s textStyles) tier(t scoring.Tier) string {
	return s.render.NewStyle().Bold(true).Foreground(tierColors[t]).Render(util.Humanize(string(t)))
}

// renderText formats a score run for a terminal. Colors are dropped when w is not a TTY.
func renderText(w io.Writer, out scoreOutput) string {
	s := newTextStyles(w)
	var b strings.Builder

	heading := strings.TrimSpace(out.OrganizationName + " " + out.Title)
	if heading != "" {
		b.WriteString(s.title.Render(heading))
		b.WriteString("\n")
	}
	b.WriteString(s.muted.Render("scoring config " + out.ConfigVersion))
	b.WriteString("\n")

	for _, rep := range out.Reports {
		var body strings.Builder
		fmt.Fprintf(&body, "%s\n", s.title.Render(filepath.Base(rep.Responses)))
		fmt.Fprintf(&body, "%s%d/100  %s\n", s.label.Render("Overall"), rep.Result.OverallScore, s.tier(rep.Result.Tier))
		for _, c := range rep.Result.CategoryScores {
			fmt.Fprintf(&body, "%s%3d  %s\n", s.label.Render(util.Humanize(c.Category)), c.Score, s.muted.Render(fmt.Sprintf("weight %.2f", c.Weight)))
		}
		for _, t := range rep.Result.ThemeScores {
			fmt.Fprintf(&body, "  %s%3d  %s\n", s.label.Render(util.Humanize(t.Theme)), t.Score, s.muted.Render(fmt.Sprintf("%d answers", t.SampleCount)))
		}
		b.WriteString(s.box.Render(strings.TrimRight(body.String(), "\n")))
		b.WriteString("\n")
	}
	return b.String()
}
