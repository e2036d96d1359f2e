package scoring

// ClassifyTier maps an overall score to the first tier whose threshold it meets.
func (e *Engine) ClassifyTier(score int) Tier {
	for _, t := range e.cfg.Tiers {
		if score >= t.MinScore {
			return t.Tier
		}
	}
	return e.cfg.Tiers[len(e.cfg.Tiers)-1].Tier
}

// TierRank returns the position of tier in the configured order, 0 being the
// highest. Unknown tiers rank last.
func (e *Engine) TierRank(tier Tier) int {
	for i, t := range e.cfg.Tiers {
		if t.Tier == tier {
			return i
		}
	}
	return len(e.cfg.Tiers)
}
