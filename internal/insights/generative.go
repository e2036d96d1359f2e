package insights

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"pulsescore-backend/internal/llm"
	"pulsescore-backend/internal/scoring"
)

var (
	bulletLine = regexp.MustCompile(`^\s*(?:[-*•]|\d{1,2}[.)])\s+(.+?)\s*$`)
	emphasis   = regexp.MustCompile(`\*\*|__`)
)

// ErrEmptyReply is returned when the model reply contains no usable lines.
var ErrEmptyReply = errors.New("model reply contained no insights")

// Generative forwards the result to a language model and parses its reply into lines.
type Generative struct {
	Client llm.TextClient
}

// Generate implements Generator.
func (g *Generative) Generate(ctx context.Context, result scoring.Result) ([]string, error) {
	reply, err := g.Client.Complete(ctx, buildPrompt(result))
	if err != nil {
		return nil, err
	}
	lines := ParseLines(reply)
	if len(lines) == 0 {
		return nil, ErrEmptyReply
	}
	return lines, nil
}

func buildPrompt(result scoring.Result) string {
	var b strings.Builder
	b.WriteString("You are an organizational culture advisor. Based on the employee pulse survey result below, ")
	fmt.Fprintf(&b, "write at most %d short, concrete recommendations as a bulleted list. ", maxInsights)
	b.WriteString("One recommendation per line, no preamble.\n\n")
	fmt.Fprintf(&b, "Overall score: %d/100\nTier: %s\n", result.OverallScore, result.Tier)
	b.WriteString("Categories:\n")
	for _, c := range result.CategoryScores {
		fmt.Fprintf(&b, "- %s: %d (weight %.2f)\n", c.Category, c.Score, c.Weight)
	}
	if len(result.ThemeScores) > 0 {
		b.WriteString("Themes:\n")
		for _, t := range result.ThemeScores {
			fmt.Fprintf(&b, "- %s: %d (%d answers)\n", t.Theme, t.Score, t.SampleCount)
		}
	}
	return b.String()
}

// ParseLines extracts bullet or numbered items from a model reply. A reply
// without list markers is split into its non-empty lines.
func ParseLines(reply string) []string {
	raw := strings.Split(strings.ReplaceAll(reply, "\r\n", "\n"), "\n")
	var bullets, plain []string
	for _, line := range raw {
		if m := bulletLine.FindStringSubmatch(line); m != nil {
			if item := clean(m[1]); item != "" {
				bullets = append(bullets, item)
			}
			continue
		}
		if item := clean(line); item != "" {
			plain = append(plain, item)
		}
	}
	out := bullets
	if len(out) == 0 {
		out = plain
	}
	if len(out) > maxInsights {
		out = out[:maxInsights]
	}
	return out
}

func clean(s string) string {
	return strings.TrimSpace(emphasis.ReplaceAllString(s, ""))
}
