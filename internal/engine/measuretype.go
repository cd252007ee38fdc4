package engine

import "github.com/mind-engage/gradecalc/internal/catalog"

// MeasureTypeGrade aggregates one student's eligible assignments within one
// measure type. Rebuilt in place whenever the group's assignment set changes.
type MeasureTypeGrade struct {
	StudentID             string  `json:"student_id"`
	MeasureTypeID         string  `json:"measure_type_id"`
	MeasureTypeWeight     float64 `json:"measure_type_weight"`
	AssignmentCount       int     `json:"assignment_count"`
	Points                float64 `json:"points"`
	PointsPossible        float64 `json:"points_possible"`
	IncompleteAssignments int     `json:"incomplete_assignments"`
	ReportCardScoreTypeID int     `json:"report_card_score_type_id"`
}

// weightedAreaPercentage scales earned/possible points by a weight. Zero over
// zero is 0, not NaN; nonzero points with zero possible counts as full credit.
func weightedAreaPercentage(points, possible, weight float64) float64 {
	if points == 0 && possible == 0 {
		return 0
	}
	if possible == 0 {
		return 100
	}
	return points / possible * weight
}

// WeightedPercentage is the group's points ratio scaled by its measure-type
// weight (the unit that class-grade weighting sums).
func (g *MeasureTypeGrade) WeightedPercentage() float64 {
	return weightedAreaPercentage(g.Points, g.PointsPossible, g.MeasureTypeWeight)
}

// WeightedPercentageBase100 is the same ratio on a 0-100 scale.
func (g *MeasureTypeGrade) WeightedPercentageBase100() float64 {
	return weightedAreaPercentage(g.Points, g.PointsPossible, 100)
}

// MarkPercentage is the displayable percentage, rounded or truncated per the
// session policy.
func (g *MeasureTypeGrade) MarkPercentage(opts Options) float64 {
	return opts.PercentageRounding.Apply(g.WeightedPercentageBase100())
}

// CalculatedMark resolves the group's percentage into a displayable mark.
func (g *MeasureTypeGrade) CalculatedMark(cat *catalog.Catalog, opts Options) (string, error) {
	return cat.GetMark(g.WeightedPercentageBase100(), g.ReportCardScoreTypeID, opts.MarkRounding)
}

// rebuild recomputes the aggregate fields from the group's assignments,
// updating the receiver field by field so lookups keep their identity.
func (g *MeasureTypeGrade) rebuild(group []*Assignment, cat *catalog.Catalog) {
	var count, incomplete int
	var points, possible float64
	for _, a := range group {
		if a.IsMissingMark(cat) {
			incomplete++
		}
		if !a.AffectsClassGrade(cat) {
			continue
		}
		count++
		points += a.Points(cat)
		possible += a.PointsPossible
	}
	g.AssignmentCount = count
	g.Points = points
	g.PointsPossible = possible
	g.IncompleteAssignments = incomplete
}
