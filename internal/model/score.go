package model

// InsightTier buckets a normalized percentage for the dashboard.
type InsightTier string

const (
	InsightDeveloping InsightTier = "DEVELOPING"
	InsightProficient InsightTier = "PROFICIENT"
	InsightStrength   InsightTier = "STRENGTH"
)

// CompetencyScore is the scored result for one competency.
type CompetencyScore struct {
	Dimension   Competency  `json:"dimension"`
	Score       int         `json:"score"`
	MaxScore    int         `json:"max_score"`
	Percentage  int         `json:"percentage"`
	DisplayName string      `json:"display_name"`
	Color       string      `json:"color"`
	Category    string      `json:"category"`
	Tier        InsightTier `json:"tier,omitempty"`
	Insight     string      `json:"insight,omitempty"`
}

// SkippedAnswer records an answer that did not match the question bank.
type SkippedAnswer struct {
	QuestionID int    `json:"question_id"`
	OptionID   string `json:"option_id"`
	Reason     string `json:"reason"`
}

// Skip reasons.
const (
	SkipUnknownQuestion = "unknown_question"
	SkipUnknownOption   = "unknown_option"
)

// ScoreTuple is the minimal score view handed to the recommendation generator.
type ScoreTuple struct {
	Dimension Competency `json:"dimension"`
	Score     int        `json:"score"`
	MaxScore  int        `json:"max_score"`
}
