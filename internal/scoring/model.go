package scoring

// ResponseType declares how a question is answered.
type ResponseType string

const (
	ResponseNumericScale ResponseType = "numeric-scale"
	ResponseFreeText     ResponseType = "free-text"
	ResponseBinary       ResponseType = "binary"
)

// Valid reports whether t is a known response type.
func (t ResponseType) Valid() bool {
	switch t {
	case ResponseNumericScale, ResponseFreeText, ResponseBinary:
		return true
	default:
		return false
	}
}

// Question is a single survey question shown to a respondent.
type Question struct {
	ID           string       `json:"id" yaml:"id"`
	Text         string       `json:"text" yaml:"text"`
	ResponseType ResponseType `json:"responseType" yaml:"responseType"`
	Theme        string       `json:"theme" yaml:"theme"`
	// Weight defaults to 1 when zero.
	Weight float64 `json:"weight,omitempty" yaml:"weight,omitempty"`
}

// Scored reports whether answers to q feed the numeric pipeline.
func (q Question) Scored() bool {
	return q.ResponseType == ResponseNumericScale || q.ResponseType == ResponseBinary
}

// EffectiveWeight returns the weight used in theme averaging.
func (q Question) EffectiveWeight() float64 {
	if q.Weight == 0 {
		return 1
	}
	return q.Weight
}

// Response is one respondent's answer to one question.
// It is either a NumericResponse or a TextResponse.
type Response interface {
	QuestionRef() string
	isResponse()
}

// NumericResponse carries a numeric-scale or binary answer.
type NumericResponse struct {
	QuestionID string
	Value      float64
}

// TextResponse carries a free-text answer. It never contributes to scores.
type TextResponse struct {
	QuestionID string
	Text       string
}

func (r NumericResponse) QuestionRef() string { return r.QuestionID }
func (r TextResponse) QuestionRef() string    { return r.QuestionID }

func (NumericResponse) isResponse() {}
func (TextResponse) isResponse()    {}

// ThemeScore is one theme's normalized aggregate.
type ThemeScore struct {
	Theme       string `json:"theme"`
	Score       int    `json:"score"`
	SampleCount int    `json:"sampleCount"`
}

// CategoryScore is one category's aggregate and its share of the overall score.
type CategoryScore struct {
	Category string  `json:"category"`
	Score    int     `json:"score"`
	Weight   float64 `json:"weight"`
}

// Tier is a named certification bucket.
type Tier string

const (
	TierPulseCertified      Tier = "pulse-certified"
	TierEmergingCulture     Tier = "emerging-culture"
	TierAtRisk              Tier = "at-risk"
	TierInterventionAdvised Tier = "intervention-advised"
)

// Result is the pipeline's final output.
type Result struct {
	OverallScore   int             `json:"overallScore"`
	CategoryScores []CategoryScore `json:"categoryScores"`
	ThemeScores    []ThemeScore    `json:"themeScores"`
	Tier           Tier            `json:"tier"`
}

// Category returns the named category score.
func (r Result) Category(name string) (CategoryScore, bool) {
	for _, c := range r.CategoryScores {
		if c.Category == name {
			return c, true
		}
	}
	return CategoryScore{}, false
}

// ExclusionReason says why a response item was left out of theme scoring.
type ExclusionReason string

const (
	ReasonUnknownQuestion ExclusionReason = "unknown_question"
	ReasonNotScored       ExclusionReason = "not_scored"
	ReasonNonNumeric      ExclusionReason = "non_numeric"
	ReasonOutOfRange      ExclusionReason = "out_of_range"
	ReasonUnknownTheme    ExclusionReason = "unknown_theme"
	ReasonInvalidQuestion ExclusionReason = "invalid_question"
)

// Exclusion records one response item dropped during theme scoring.
type Exclusion struct {
	QuestionID string          `json:"questionId"`
	Reason     ExclusionReason `json:"reason"`
}
