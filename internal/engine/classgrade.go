package engine

import (
	"errors"

	"github.com/mind-engage/gradecalc/internal/catalog"
)

// MarkNotAvailable is shown when a class grade has nothing to grade yet.
const MarkNotAvailable = "N/A"

// ErrScoreNotLocked rejects manual-mark writes while the score is unlocked;
// in that state the manual mark only mirrors the calculated one.
var ErrScoreNotLocked = errors.New("manual mark requires a locked score")

// ClassGrade is one student's overall grade for one grading period. For the
// active gradebook period it aggregates the student's measure-type grades;
// for calculated periods it is produced by term weighting.
type ClassGrade struct {
	StudentID             string  `json:"student_id"`
	PeriodID              string  `json:"period_id"`
	ReportCardScoreTypeID int     `json:"report_card_score_type_id"`
	AssignmentCount       int     `json:"assignment_count"`
	Points                float64 `json:"points"`
	PointsPossible        float64 `json:"points_possible"`
	TotalWeightedPct      float64 `json:"total_weighted_percentage"`
	TotalAssignmentWeight float64 `json:"total_assignment_weight"`
	IncompleteAssignments int     `json:"incomplete_assignments"`
	ForceUseWeighting     bool    `json:"force_use_weighting"`
	LockScore             bool    `json:"lock_score"`

	// Set when this grade is the product of a term-weighting roll-up; such
	// grades always use the raw points ratio, never re-apply area weighting.
	CalculatedFromTermWeighting bool `json:"calculated_from_term_weighting"`

	manualMark string
}

func (g *ClassGrade) usesWeighting(opts Options) bool {
	return (opts.AssignmentWeightingOn || g.ForceUseWeighting) && !g.CalculatedFromTermWeighting
}

// WeightedPercentageBase100 is the grade's percentage on a 0-100 scale:
// the weight-normalized sum when area weighting applies, the raw points ratio
// otherwise. Empty grades are 0, never a division artifact.
func (g *ClassGrade) WeightedPercentageBase100(opts Options) float64 {
	if g.usesWeighting(opts) && g.TotalAssignmentWeight > 0 {
		return g.TotalWeightedPct / g.TotalAssignmentWeight * 100
	}
	if g.PointsPossible > 0 {
		return g.Points / g.PointsPossible * 100
	}
	return 0
}

// WeightedPercentage scales the base-100 percentage into the report-card
// score type's max.
func (g *ClassGrade) WeightedPercentage(cat *catalog.Catalog, opts Options) (float64, error) {
	st, err := cat.ReportCardScoreType(g.ReportCardScoreTypeID)
	if err != nil {
		return 0, err
	}
	return g.WeightedPercentageBase100(opts) * st.Max / 100, nil
}

// CalculatedMark resolves the grade's percentage into a displayable mark,
// or MarkNotAvailable when there is nothing graded yet.
func (g *ClassGrade) CalculatedMark(cat *catalog.Catalog, opts Options) (string, error) {
	if g.PointsPossible == 0 {
		return MarkNotAvailable, nil
	}
	return cat.GetMark(g.WeightedPercentageBase100(opts), g.ReportCardScoreTypeID, opts.MarkRounding)
}

// ManualMark returns the teacher's locked override when the score is locked,
// otherwise it mirrors the calculated mark.
func (g *ClassGrade) ManualMark(cat *catalog.Catalog, opts Options) (string, error) {
	if g.LockScore {
		return g.manualMark, nil
	}
	return g.CalculatedMark(cat, opts)
}

// SetManualMark stores a teacher override. Writes while unlocked are
// rejected, keeping the mirror invariant intact.
func (g *ClassGrade) SetManualMark(mark string) error {
	if !g.LockScore {
		return ErrScoreNotLocked
	}
	g.manualMark = mark
	return nil
}

// rebuild re-aggregates the active period's class grade from the student's
// measure-type grades. Groups without assignments contribute only their
// incomplete count.
func (g *ClassGrade) rebuild(groups []*MeasureTypeGrade) {
	g.AssignmentCount = 0
	g.Points = 0
	g.PointsPossible = 0
	g.TotalWeightedPct = 0
	g.TotalAssignmentWeight = 0
	g.IncompleteAssignments = 0
	for _, mtg := range groups {
		g.IncompleteAssignments += mtg.IncompleteAssignments
		if mtg.AssignmentCount == 0 {
			continue
		}
		g.AssignmentCount += mtg.AssignmentCount
		g.Points += mtg.Points
		g.PointsPossible += mtg.PointsPossible
		g.TotalWeightedPct += mtg.WeightedPercentage()
		g.TotalAssignmentWeight += mtg.MeasureTypeWeight
	}
}
