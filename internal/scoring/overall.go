package scoring

import "fmt"

// CalculateOverallScore returns Σ(score·weight)/Σweight rounded half-up.
// Dividing by the actual weight total keeps the result on 0..100 even when the
// weights drift from 1.0. A zero weight total yields 0.
func (e *Engine) CalculateOverallScore(categories []CategoryScore) int {
	var weighted, total float64
	for _, c := range categories {
		if c.Weight <= 0 {
			continue
		}
		weighted += float64(c.Score) * c.Weight
		total += c.Weight
	}
	if total == 0 {
		return 0
	}
	score := roundHalfUp(weighted / total)
	if score < 0 || score > 100 {
		panic(fmt.Sprintf("scoring: overall score %d out of range; category scores must be within 0..100", score))
	}
	return score
}
