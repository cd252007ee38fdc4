package catalog

import "strings"

// ScoreKind tells the calc layer how raw score text maps to a percentage.
type ScoreKind int

const (
	// KindPercentage: the raw text already is a 0-100 percentage.
	KindPercentage ScoreKind = iota + 1
	// KindRawPoints: the raw text is points out of the assignment's max value.
	KindRawPoints
	// KindDiscrete: the raw text is a code looked up in the detail table.
	KindDiscrete
)

// ScoreTypeDetail is one row of a score type's scale. For gradebook score
// types the Score/Value pair maps a code to a numeric value; for report-card
// score types the Low/High band maps a percentage back to a displayable mark.
type ScoreTypeDetail struct {
	Score          string  `json:"score"`
	Value          float64 `json:"value"`
	LowScore       float64 `json:"low_score"`
	HighScore      float64 `json:"high_score"`
	LimitPctMax    float64 `json:"limit_pct_max_value"`
	LimitPctMethod string  `json:"limit_pct_calc_method"` // "MAX" (default) or "FORCE"
}

// ScoreType is a gradebook or report-card scoring scale. Immutable for the
// session once loaded.
type ScoreType struct {
	ID      int               `json:"id"`
	Max     float64           `json:"max"` // ceiling for percentage-to-mark conversion
	Numeric bool              `json:"numeric"`
	Details []ScoreTypeDetail `json:"details"`
}

// Kind derives the tagged score variant from the well-known type ids.
func (st ScoreType) Kind() ScoreKind {
	switch st.ID {
	case 1:
		return KindPercentage
	case 2:
		return KindRawPoints
	default:
		return KindDiscrete
	}
}

// Detail finds the detail row whose Score code matches, case-insensitively.
func (st ScoreType) Detail(code string) (ScoreTypeDetail, bool) {
	for _, d := range st.Details {
		if strings.EqualFold(d.Score, code) {
			return d, true
		}
	}
	return ScoreTypeDetail{}, false
}

// CommentCode is a teacher comment attachable to a score, possibly carrying
// grading side effects (penalty, implicit value, missing-mark flag).
type CommentCode struct {
	Code                     string   `json:"comment_code"`
	Comment                  string   `json:"comment"`
	IsMissingMark            bool     `json:"is_gradebook_missing_mark"`
	PenaltyPct               *float64 `json:"penalty_pct,omitempty"`
	RemoveWhenScored         bool     `json:"remove_when_scored"`
	AssignmentValue          *float64 `json:"assignment_value,omitempty"`
	AssignmentValueIsPercent bool     `json:"assignment_value_is_percent"`
	StandardsValue           *float64 `json:"standards_value,omitempty"`
	StandardsValueIsPercent  bool     `json:"standards_value_is_percent"`
}

// TermWeightingRule says: the calculated period's grade includes the child
// period's grade at the given weight (0-100). A child may itself be a
// calculated period (recursive roll-up).
type TermWeightingRule struct {
	CalculatedPeriodID string  `json:"calculated_period_id"`
	ChildPeriodID      string  `json:"child_period_id"`
	Weight             float64 `json:"weight"`
}

// AnalysisBand labels a percentage range for reporting views.
type AnalysisBand struct {
	Label string  `json:"label"`
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
}
