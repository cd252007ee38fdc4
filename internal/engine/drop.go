package engine

import (
	"sort"

	"github.com/mind-engage/gradecalc/internal/catalog"
)

// applyDropPolicy re-selects the dropCount lowest-scoring eligible assignments
// in one (student, measure type) group. Drops are recomputed from scratch:
// previous "Dropped" markers are cleared first ("Not Weighted" is a teacher
// setting and survives).
//
// Sort order is a deterministic total order: calc value ascending, points
// possible descending, due date ascending, gradebook id ascending. Only
// graded, non-excused, points-category assignments that count toward the
// class grade are droppable.
func applyDropPolicy(group []*Assignment, dropCount int, cat *catalog.Catalog) {
	for _, a := range group {
		if a.DropState == DropStateDropped {
			a.DropState = ""
		}
	}
	if dropCount <= 0 || len(group) == 0 {
		return
	}

	sorted := make([]*Assignment, len(group))
	copy(sorted, group)
	values := make(map[*Assignment]float64, len(sorted))
	for _, a := range sorted {
		values[a] = a.CalcValue(cat)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		ai, aj := sorted[i], sorted[j]
		if values[ai] != values[aj] {
			return values[ai] < values[aj]
		}
		if ai.PointsPossible != aj.PointsPossible {
			return ai.PointsPossible > aj.PointsPossible
		}
		if !ai.DueDate.Equal(aj.DueDate) {
			return ai.DueDate.Before(aj.DueDate)
		}
		return ai.GradeBookID < aj.GradeBookID
	})

	budget := dropCount
	for _, a := range sorted {
		if budget == 0 {
			break
		}
		if a.Score == "" || a.Excused {
			continue
		}
		if a.CategoryID != CategoryPoints {
			continue
		}
		if !a.AffectsClassGrade(cat) {
			continue
		}
		a.DropState = DropStateDropped
		budget--
	}
}
