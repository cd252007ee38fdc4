package engine

import (
	"strconv"
	"time"

	"github.com/mind-engage/gradecalc/internal/catalog"
)

const (
	CategoryPoints  = 1 // assignment graded out of points possible
	CategoryPercent = 2 // assignment graded as a percentage
)

const (
	DropStateDropped     = "Dropped"
	DropStateNotWeighted = "Not Weighted"
)

// MeasureType is a grading bucket ("Homework", "Tests") with its configured
// weight and drop-lowest count.
type MeasureType struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Weight     float64 `json:"weight"`
	DropScores int     `json:"drop_scores"`
}

// Assignment is one student's entry for one gradebook item. Raw fields come
// from the class-data load; everything derived (calc value, points,
// eligibility) is computed on demand, never stored.
type Assignment struct {
	StudentID      string    `json:"student_id"`
	GradeBookID    string    `json:"grade_book_id"`
	MeasureTypeID  string    `json:"measure_type_id"`
	CategoryID     int       `json:"grade_book_category_id"`
	ScoreTypeID    int       `json:"grade_book_score_type_id"`
	PointsPossible float64   `json:"points_possible"`
	MaxValue       float64   `json:"max_value"`
	Score          string    `json:"score"` // raw text; empty means ungraded
	Excused        bool      `json:"excused"`
	IsForGrading   bool      `json:"is_for_grading"`
	CommentCode    string    `json:"comment_code"`
	PenaltyPct     float64   `json:"penalty_pct"`
	DropState      string    `json:"drop_score_text"` // "", "Dropped", "Not Weighted"
	Unit           string    `json:"unit"`
	Category       string    `json:"category"`
	Week           string    `json:"week"`
	DueDate        time.Time `json:"due_date"`
}

// CalcValue is the assignment's 0-100 normalized percentage, penalty applied.
func (a *Assignment) CalcValue(cat *catalog.Catalog) float64 {
	if a.Score == "" {
		return 0
	}
	st, _ := cat.GradebookScoreType(a.ScoreTypeID)
	if st.ID == 0 {
		st.ID = a.ScoreTypeID // unknown type still dispatches by id
	}

	var base float64
	switch st.Kind() {
	case catalog.KindPercentage:
		base = parseScoreFloat(a.Score)
	case catalog.KindRawPoints:
		if a.MaxValue > 0 {
			base = parseScoreFloat(a.Score) / a.MaxValue * 100
		}
	default:
		if d, ok := st.Detail(a.Score); ok {
			if st.Max > 0 {
				base = d.Value / st.Max * 100
			}
		} else if v, err := strconv.ParseFloat(a.Score, 64); err == nil {
			// unknown code, but numeric text still counts
			base = v
		}
	}

	if a.PenaltyPct > 0 {
		base *= (100 - a.PenaltyPct) / 100
	}
	return base
}

// Points is the assignment's contribution toward the measure-type total.
// A zero calc value contributes zero, never a negative or divide artifact.
func (a *Assignment) Points(cat *catalog.Catalog) float64 {
	cv := a.CalcValue(cat)
	if cv <= 0 {
		return 0
	}
	return a.PointsPossible * cv / 100
}

// AffectsClassGrade reports whether the assignment counts toward the class
// grade: graded, for-grading, not excused, not dropped or unweighted, and its
// category carries weightable points.
func (a *Assignment) AffectsClassGrade(cat *catalog.Catalog) bool {
	if !a.IsForGrading || a.Excused || a.Score == "" {
		return false
	}
	if a.DropState == DropStateDropped || a.DropState == DropStateNotWeighted {
		return false
	}
	switch a.CategoryID {
	case CategoryPoints:
		return a.PointsPossible > 0
	case CategoryPercent:
		return a.Points(cat) > 0
	}
	return false
}

// Dropped reports whether the drop policy excluded this assignment.
func (a *Assignment) Dropped() bool { return a.DropState == DropStateDropped }

// IsMissingMark reports whether the attached comment flags the assignment as
// missing work (feeds the incomplete-assignments count).
func (a *Assignment) IsMissingMark(cat *catalog.Catalog) bool {
	if a.CommentCode == "" {
		return false
	}
	cc, ok := cat.CommentCode(a.CommentCode)
	return ok && cc.IsMissingMark
}

func parseScoreFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
