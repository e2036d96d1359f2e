package scoring

import "math"

type themeAccumulator struct {
	weightedSum float64
	weightSum   float64
	count       int
}

// ScoreThemes reduces responses to one normalized score per theme.
// Items that cannot be scored are returned as exclusions instead of failing the call.
// Text answers to free-text questions are expected and skipped without an exclusion.
// Themes without contributing items are omitted. Output follows the first
// occurrence of each theme in questions.
func (e *Engine) ScoreThemes(questions []Question, responses []Response) ([]ThemeScore, []Exclusion) {
	byID := make(map[string]Question, len(questions))
	order := make([]string, 0, len(questions))
	seenTheme := make(map[string]bool, len(questions))
	for _, q := range questions {
		if _, dup := byID[q.ID]; !dup {
			byID[q.ID] = q
		}
		if !seenTheme[q.Theme] {
			seenTheme[q.Theme] = true
			order = append(order, q.Theme)
		}
	}

	acc := make(map[string]*themeAccumulator, len(order))
	var excluded []Exclusion
	for _, resp := range responses {
		if resp == nil {
			continue
		}
		id := resp.QuestionRef()
		q, ok := byID[id]
		if !ok {
			excluded = append(excluded, Exclusion{QuestionID: id, Reason: ReasonUnknownQuestion})
			continue
		}
		if _, text := resp.(TextResponse); text && q.ResponseType == ResponseFreeText {
			continue
		}
		value, reason, ok := e.scoreItem(q, resp)
		if !ok {
			excluded = append(excluded, Exclusion{QuestionID: id, Reason: reason})
			continue
		}
		a := acc[q.Theme]
		if a == nil {
			a = &themeAccumulator{}
			acc[q.Theme] = a
		}
		w := q.EffectiveWeight()
		a.weightedSum += value * w
		a.weightSum += w
		a.count++
	}

	out := make([]ThemeScore, 0, len(acc))
	for _, theme := range order {
		a := acc[theme]
		if a == nil || a.count == 0 || a.weightSum <= 0 {
			continue
		}
		out = append(out, ThemeScore{
			Theme:       theme,
			Score:       e.normalize(a.weightedSum / a.weightSum),
			SampleCount: a.count,
		})
	}
	return out, excluded
}

// scoreItem validates one response against its question and returns the
// value on the configured scale.
func (e *Engine) scoreItem(q Question, resp Response) (float64, ExclusionReason, bool) {
	if !q.ResponseType.Valid() {
		return 0, ReasonInvalidQuestion, false
	}
	if !q.Scored() {
		return 0, ReasonNotScored, false
	}
	if w := q.EffectiveWeight(); w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
		return 0, ReasonInvalidQuestion, false
	}
	if _, ok := e.themeCategory[q.Theme]; !ok {
		return 0, ReasonUnknownTheme, false
	}

	numeric, ok := resp.(NumericResponse)
	if !ok {
		return 0, ReasonNonNumeric, false
	}
	v := numeric.Value
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ReasonOutOfRange, false
	}

	scale := e.cfg.Scale
	switch q.ResponseType {
	case ResponseBinary:
		switch v {
		case 0:
			return scale.Min, "", true
		case 1:
			return scale.Max, "", true
		default:
			return 0, ReasonOutOfRange, false
		}
	default:
		if v < scale.Min || v > scale.Max {
			return 0, ReasonOutOfRange, false
		}
		return v, "", true
	}
}

// normalize rescales a value on the input scale onto 0..100.
func (e *Engine) normalize(avg float64) int {
	scale := e.cfg.Scale
	return clampScore(roundHalfUp((avg - scale.Min) / (scale.Max - scale.Min) * 100))
}

// roundHalfUp rounds to the nearest integer with .5 going up. The epsilon
// absorbs float drift such as 84.49999999999999 for an exact 84.5.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5 + 1e-9))
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
