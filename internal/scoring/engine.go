package scoring

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pulsescore-backend/internal/shared/metrics"
)

// Engine runs the PulseScore pipeline against one validated configuration.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	cfg           Config
	themeCategory map[string]string
	logger        *zap.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger sets the logger used to report excluded response items.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine validates cfg and builds an engine. An invalid configuration is
// returned as an error wrapping ErrInvalidConfig.
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:           cfg.clone(),
		themeCategory: make(map[string]string, len(cfg.Themes)),
		logger:        zap.NewNop(),
	}
	for _, m := range cfg.Themes {
		e.themeCategory[m.Theme] = m.Category
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg.clone()
}

// Evaluation is a pipeline result together with the items left out of it.
type Evaluation struct {
	Result     Result      `json:"result"`
	Exclusions []Exclusion `json:"exclusions,omitempty"`
}

// Evaluate runs all four stages without side effects.
func (e *Engine) Evaluate(questions []Question, responses []Response) Evaluation {
	themes, excluded := e.ScoreThemes(questions, responses)
	categories := e.AggregateCategories(themes)
	overall := e.CalculateOverallScore(categories)
	return Evaluation{
		Result: Result{
			OverallScore:   overall,
			CategoryScores: categories,
			ThemeScores:    themes,
			Tier:           e.ClassifyTier(overall),
		},
		Exclusions: excluded,
	}
}

// Run evaluates the pipeline and reports excluded items through the logger and metrics.
func (e *Engine) Run(questions []Question, responses []Response) Evaluation {
	start := time.Now()
	ev := e.Evaluate(questions, responses)
	e.report(ev)
	metrics.ObserveScoringDurationMs(float64(time.Since(start).Microseconds()) / 1000.0)
	return ev
}

// Score is Run without the exclusion list.
func (e *Engine) Score(questions []Question, responses []Response) Result {
	return e.Run(questions, responses).Result
}

func (e *Engine) report(ev Evaluation) {
	metrics.IncScoringRun(string(ev.Result.Tier))
	if len(ev.Exclusions) == 0 {
		return
	}
	counts := make(map[ExclusionReason]int)
	for _, x := range ev.Exclusions {
		counts[x.Reason]++
		e.logger.Warn("scoring.item_excluded",
			zap.String("question_id", x.QuestionID),
			zap.String("reason", string(x.Reason)),
		)
	}
	for reason, n := range counts {
		metrics.AddExcludedItems(string(reason), n)
	}
}

// Batch is one independent set of questions and responses.
type Batch struct {
	Key       string
	Questions []Question
	Responses []Response
}

// ScoreBatch scores independent batches in parallel, at most limit at a time
// when limit > 0. Results are returned in input order. Cancelling ctx stops
// batches that have not started yet.
func (e *Engine) ScoreBatch(ctx context.Context, batches []Batch, limit int) ([]Result, error) {
	results := make([]Result, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, b := range batches {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.Score(b.Questions, b.Responses)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
