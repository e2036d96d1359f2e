package scoring

// AggregateCategories rolls theme scores up into the configured categories.
// Each category is the sample-count weighted average of its themes. A category
// with no themes scores 0 and keeps its weight, so the output always holds
// every configured category in configuration order.
func (e *Engine) AggregateCategories(themes []ThemeScore) []CategoryScore {
	type bucket struct {
		sum   float64
		count int
	}
	buckets := make(map[string]*bucket, len(e.cfg.Categories))
	for _, cat := range e.cfg.Categories {
		buckets[cat.Name] = &bucket{}
	}
	for _, ts := range themes {
		if ts.SampleCount <= 0 {
			continue
		}
		category, ok := e.themeCategory[ts.Theme]
		if !ok {
			continue
		}
		b := buckets[category]
		b.sum += float64(clampScore(ts.Score) * ts.SampleCount)
		b.count += ts.SampleCount
	}

	out := make([]CategoryScore, 0, len(e.cfg.Categories))
	for _, cat := range e.cfg.Categories {
		b := buckets[cat.Name]
		score := 0
		if b.count > 0 {
			score = clampScore(roundHalfUp(b.sum / float64(b.count)))
		}
		out = append(out, CategoryScore{Category: cat.Name, Score: score, Weight: cat.Weight})
	}
	return out
}
