package engine

import (
	"testing"

	"github.com/mind-engage/gradecalc/internal/catalog"
)

// seedOnlyData builds class data with no assignments: the grading periods are
// fully described by server-computed seeds, and the calculated periods are
// derived locally from the term-weighting rules.
func seedOnlyData(rules []catalog.TermWeightingRule, seeds ...ClassGradeSeed) ClassData {
	return ClassData{
		CurrentPeriodID:       "Q1",
		ReportCardScoreTypeID: 10,
		ReportCardScoreTypes:  []catalog.ScoreType{rcLetterType(), rcLimitedType()},
		TermWeightingRules:    rules,
		ClassGrades:           seeds,
	}
}

func seed(studentID, periodID string, points, possible float64) ClassGradeSeed {
	return ClassGradeSeed{
		StudentID:             studentID,
		PeriodID:              periodID,
		ReportCardScoreTypeID: 10,
		AssignmentCount:       4,
		Points:                points,
		PointsPossible:        possible,
	}
}

func semesterRules() []catalog.TermWeightingRule {
	return []catalog.TermWeightingRule{
		{CalculatedPeriodID: "SEM1", ChildPeriodID: "Q1", Weight: 50},
		{CalculatedPeriodID: "SEM1", ChildPeriodID: "Q2", Weight: 50},
	}
}

func loadSeeds(t *testing.T, opts Options, data ClassData) *Engine {
	t.Helper()
	e := New(opts)
	if err := e.Load(data); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return e
}

func TestTermWeightingEvenSplit(t *testing.T) {
	e := loadSeeds(t, testOptions(), seedOnlyData(semesterRules(),
		seed("s1", "Q1", 80, 100),
		seed("s1", "Q2", 90, 100),
	))

	sem, ok := e.ClassGrade("s1", "SEM1")
	if !ok {
		t.Fatalf("no SEM1 grade")
	}
	if !sem.CalculatedFromTermWeighting {
		t.Fatalf("SEM1 should be marked as a roll-up")
	}
	approx(t, "SEM1 pct", sem.WeightedPercentageBase100(e.Options()), 85)
	approx(t, "SEM1 points", sem.Points, 170)
	approx(t, "SEM1 possible", sem.PointsPossible, 200)
	if sem.AssignmentCount != 8 {
		t.Fatalf("SEM1 AssignmentCount = %d; want 8", sem.AssignmentCount)
	}
}

func TestTermWeightingSkipsEmptyChild(t *testing.T) {
	// Q2 has nothing graded yet; its weight must not dilute the semester.
	e := loadSeeds(t, testOptions(), seedOnlyData(semesterRules(),
		seed("s1", "Q1", 80, 100),
		seed("s1", "Q2", 0, 0),
	))

	sem, _ := e.ClassGrade("s1", "SEM1")
	approx(t, "SEM1 pct", sem.WeightedPercentageBase100(e.Options()), 80)
	approx(t, "SEM1 weight", sem.TotalAssignmentWeight, 50)
}

func TestTermWeightingRecursiveRollUp(t *testing.T) {
	rules := append(semesterRules(),
		catalog.TermWeightingRule{CalculatedPeriodID: "YEAR", ChildPeriodID: "SEM1", Weight: 100},
	)
	e := loadSeeds(t, testOptions(), seedOnlyData(rules,
		seed("s1", "Q1", 80, 100),
		seed("s1", "Q2", 90, 100),
	))

	year, ok := e.ClassGrade("s1", "YEAR")
	if !ok {
		t.Fatalf("no YEAR grade")
	}
	approx(t, "YEAR pct", year.WeightedPercentageBase100(e.Options()), 85)
}

// Two calculated children under one parent: the year must see both semesters
// fresh no matter which quarter the walk starts from.
func TestTermWeightingDiamondRollUp(t *testing.T) {
	rules := []catalog.TermWeightingRule{
		{CalculatedPeriodID: "SEM1", ChildPeriodID: "Q1", Weight: 100},
		{CalculatedPeriodID: "SEM2", ChildPeriodID: "Q2", Weight: 100},
		{CalculatedPeriodID: "YEAR", ChildPeriodID: "SEM1", Weight: 50},
		{CalculatedPeriodID: "YEAR", ChildPeriodID: "SEM2", Weight: 50},
	}
	e := loadSeeds(t, testOptions(), seedOnlyData(rules,
		seed("s1", "Q1", 80, 100),
		seed("s1", "Q2", 90, 100),
	))

	sem1, _ := e.ClassGrade("s1", "SEM1")
	approx(t, "SEM1 pct", sem1.WeightedPercentageBase100(e.Options()), 80)
	sem2, _ := e.ClassGrade("s1", "SEM2")
	approx(t, "SEM2 pct", sem2.WeightedPercentageBase100(e.Options()), 90)

	year, ok := e.ClassGrade("s1", "YEAR")
	if !ok {
		t.Fatalf("no YEAR grade")
	}
	approx(t, "YEAR possible", year.PointsPossible, 200)
	approx(t, "YEAR pct", year.WeightedPercentageBase100(e.Options()), 85)
}

// A self-referencing rule reads the period's own pre-reset totals, and the
// roll-up must run exactly once per pass or its result would feed back in.
func TestTermWeightingSelfReference(t *testing.T) {
	rules := []catalog.TermWeightingRule{
		{CalculatedPeriodID: "SEM1", ChildPeriodID: "SEM1", Weight: 20},
		{CalculatedPeriodID: "SEM1", ChildPeriodID: "Q1", Weight: 80},
	}
	e := loadSeeds(t, testOptions(), seedOnlyData(rules,
		seed("s1", "SEM1", 50, 100),
		seed("s1", "Q1", 90, 100),
	))

	sem, _ := e.ClassGrade("s1", "SEM1")
	// 50 at weight 20 plus 90 at weight 80, by points: (50+90)/200.
	approx(t, "SEM1 pct", sem.WeightedPercentageBase100(e.Options()), 70)
}

func TestTermWeightingRigorPoints(t *testing.T) {
	opts := testOptions()
	opts.ApplyRigorPoints = true
	opts.RigorPoints = 2

	rules := []catalog.TermWeightingRule{
		{CalculatedPeriodID: "SEM1", ChildPeriodID: "Q1", Weight: 100},
		{CalculatedPeriodID: "YEAR", ChildPeriodID: "SEM1", Weight: 100},
	}
	e := loadSeeds(t, opts, seedOnlyData(rules, seed("s1", "Q1", 80, 100)))

	sem, _ := e.ClassGrade("s1", "SEM1")
	approx(t, "SEM1 pct with rigor", sem.WeightedPercentageBase100(opts), 82)

	// The semester is itself a roll-up, so the year adds no second bonus.
	year, _ := e.ClassGrade("s1", "YEAR")
	approx(t, "YEAR pct with rigor", year.WeightedPercentageBase100(opts), 82)
}

func TestTermWeightingScoreCapMax(t *testing.T) {
	// Q2 displays a C on the limited scale, capping its contribution at 70.
	q2 := seed("s1", "Q2", 75, 100)
	q2.ReportCardScoreTypeID = 13
	e := loadSeeds(t, testOptions(), seedOnlyData(semesterRules(),
		seed("s1", "Q1", 80, 100), q2,
	))

	sem, _ := e.ClassGrade("s1", "SEM1")
	// (80 + 70) / 200, not (80 + 75) / 200.
	approx(t, "SEM1 capped pct", sem.WeightedPercentageBase100(e.Options()), 75)
}

func TestTermWeightingCapOnlyWhenMarkHasLimit(t *testing.T) {
	// A B on the limited scale has no limit row; it passes through untouched.
	q2 := seed("s1", "Q2", 85, 100)
	q2.ReportCardScoreTypeID = 13
	e := loadSeeds(t, testOptions(), seedOnlyData(semesterRules(),
		seed("s1", "Q1", 80, 100), q2,
	))
	sem, _ := e.ClassGrade("s1", "SEM1")
	approx(t, "SEM1 uncapped pct", sem.WeightedPercentageBase100(e.Options()), 82.5)
}

func TestTermWeightingScoreCapForce(t *testing.T) {
	// D on the limited scale forces the contribution to 65 even from below.
	q1 := seed("s1", "Q1", 62, 100)
	q1.ReportCardScoreTypeID = 13
	rules := []catalog.TermWeightingRule{
		{CalculatedPeriodID: "SEM1", ChildPeriodID: "Q1", Weight: 100},
	}
	e := loadSeeds(t, testOptions(), seedOnlyData(rules, q1))

	sem, _ := e.ClassGrade("s1", "SEM1")
	approx(t, "SEM1 forced pct", sem.WeightedPercentageBase100(e.Options()), 65)
}

// A roll-up that fails mid-pass must keep the period's prior grade rather
// than leave the half-reset totals behind.
func TestTermWeightingFailureKeepsPriorGrade(t *testing.T) {
	bad := seed("s1", "Q2", 90, 100)
	bad.ReportCardScoreTypeID = 99 // not configured
	data := seedOnlyData(semesterRules(),
		seed("s1", "Q1", 80, 100),
		bad,
		seed("s1", "SEM1", 75, 100),
	)

	e := New(testOptions())
	if err := e.Load(data); err == nil {
		t.Fatalf("expected error for unconfigured report card score type")
	}

	sem, ok := e.ClassGrade("s1", "SEM1")
	if !ok {
		t.Fatalf("no SEM1 grade")
	}
	approx(t, "SEM1 points", sem.Points, 75)
	approx(t, "SEM1 possible", sem.PointsPossible, 100)
	if sem.CalculatedFromTermWeighting {
		t.Fatalf("failed roll-up should restore the seeded grade")
	}
}

func TestTermWeightingTeacherOverride(t *testing.T) {
	opts := testOptions()
	opts.UseTeacherOverrideInTermWeighting = true

	q1 := seed("s1", "Q1", 95, 100)
	q1.LockScore = true
	q1.ManualMark = "B" // catalog value 85
	rules := []catalog.TermWeightingRule{
		{CalculatedPeriodID: "SEM1", ChildPeriodID: "Q1", Weight: 100},
	}
	e := loadSeeds(t, opts, seedOnlyData(rules, q1))

	sem, _ := e.ClassGrade("s1", "SEM1")
	approx(t, "SEM1 overridden pct", sem.WeightedPercentageBase100(opts), 85)

	// Without the option the computed percentage wins.
	e2 := loadSeeds(t, testOptions(), seedOnlyData(rules, q1))
	sem2, _ := e2.ClassGrade("s1", "SEM1")
	approx(t, "SEM1 computed pct", sem2.WeightedPercentageBase100(testOptions()), 95)
}
