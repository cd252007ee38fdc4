package engine

// recomputeTermWeighting rebuilds the calculated period's class grade for one
// student from the term-weighting rules that feed it.
//
// A self-referencing rule (the calculated period includes its own in-progress
// grade) reads from a snapshot taken before the totals are reset. Rigor
// points apply to assignment-backed children only, never to a child that is
// itself a roll-up, so honors bonuses are not compounded. A catalog row
// matching the child's displayed mark with a positive limit caps the child's
// contribution: method "MAX" caps only when exceeded, "FORCE" clamps
// unconditionally.
func (e *Engine) recomputeTermWeighting(studentID, calcPeriodID string) error {
	cg := e.ensureClassGrade(studentID, calcPeriodID)
	snapshot := *cg

	cg.AssignmentCount = 0
	cg.Points = 0
	cg.PointsPossible = 0
	cg.TotalWeightedPct = 0
	cg.TotalAssignmentWeight = 0
	cg.IncompleteAssignments = 0
	cg.CalculatedFromTermWeighting = true

	for _, rule := range e.cat.RulesFor(calcPeriodID) {
		child := e.classGrades[classKey{studentID, rule.ChildPeriodID}]
		if rule.ChildPeriodID == calcPeriodID {
			child = &snapshot
		}
		if child == nil {
			continue
		}

		st, err := e.cat.ReportCardScoreType(child.ReportCardScoreTypeID)
		if err != nil {
			*cg = snapshot // keep the prior grade, not a half-reset one
			return err
		}

		childPct := child.WeightedPercentageBase100(e.opts)

		childIsRollUp := child.CalculatedFromTermWeighting || e.cat.IsCalculatedPeriod(rule.ChildPeriodID)
		if e.opts.ApplyRigorPoints && !childIsRollUp {
			childPct += e.opts.RigorPoints
		}

		mark, err := child.ManualMark(e.cat, e.opts)
		if err != nil {
			*cg = snapshot
			return err
		}

		if e.opts.UseTeacherOverrideInTermWeighting && child.LockScore {
			if d, ok := st.Detail(mark); ok && st.Max > 0 {
				childPct = d.Value / st.Max * 100
			}
		}

		limitVal, limitMethod := 0.0, ""
		if d, ok := st.Detail(mark); ok && d.LimitPctMax > 0 {
			limitVal = d.LimitPctMax
			limitMethod = d.LimitPctMethod
			if limitMethod == "" {
				limitMethod = "MAX"
			}
		}

		periodPossible := child.PointsPossible
		periodScored := periodPossible * childPct / 100
		periodWeightedPct := childPct * rule.Weight / 100

		if limitVal > 0 && (childPct > limitVal || limitMethod == "FORCE") {
			periodScored = periodPossible * limitVal / 100
			periodWeightedPct = limitVal * rule.Weight / 100
		}

		if periodPossible > 0 {
			cg.Points += periodScored
			cg.PointsPossible += periodPossible
			cg.TotalWeightedPct += periodWeightedPct
			cg.TotalAssignmentWeight += rule.Weight
			cg.AssignmentCount += child.AssignmentCount
			cg.IncompleteAssignments += child.IncompleteAssignments
		}
	}
	return nil
}
