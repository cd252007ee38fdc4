package engine

import (
	"math"
	"testing"
	"time"

	"github.com/mind-engage/gradecalc/internal/catalog"
)

func f64(v float64) *float64 { return &v }

func rcLetterType() catalog.ScoreType {
	return catalog.ScoreType{
		ID:  10,
		Max: 100,
		Details: []catalog.ScoreTypeDetail{
			{Score: "A", Value: 95, LowScore: 90, HighScore: 100},
			{Score: "B", Value: 85, LowScore: 80, HighScore: 89.99},
			{Score: "C", Value: 75, LowScore: 70, HighScore: 79.99},
			{Score: "D", Value: 65, LowScore: 60, HighScore: 69.99},
			{Score: "F", Value: 50, LowScore: 0, HighScore: 59.99},
		},
	}
}

// rcLimitedType is a letter scale whose C caps contributions at 70 and whose
// D forces them to 65.
func rcLimitedType() catalog.ScoreType {
	return catalog.ScoreType{
		ID:  13,
		Max: 100,
		Details: []catalog.ScoreTypeDetail{
			{Score: "A", Value: 95, LowScore: 90, HighScore: 100},
			{Score: "B", Value: 85, LowScore: 80, HighScore: 89.99},
			{Score: "C", Value: 75, LowScore: 70, HighScore: 79.99, LimitPctMax: 70},
			{Score: "D", Value: 65, LowScore: 60, HighScore: 69.99, LimitPctMax: 65, LimitPctMethod: "FORCE"},
			{Score: "F", Value: 50, LowScore: 0, HighScore: 59.99},
		},
	}
}

func testCommentCodes() []catalog.CommentCode {
	return []catalog.CommentCode{
		{Code: "LATE", Comment: "Turned in late", PenaltyPct: f64(10)},
		{Code: "MI", Comment: "Missing", IsMissingMark: true, AssignmentValue: f64(0)},
		{Code: "ABS", Comment: "Absent", IsMissingMark: true, RemoveWhenScored: true},
		{Code: "EC", Comment: "Extra credit", AssignmentValue: f64(100), AssignmentValueIsPercent: true,
			StandardsValue: f64(50), StandardsValueIsPercent: true},
	}
}

func testCatalog() *catalog.Catalog {
	return catalog.New(
		[]catalog.ScoreType{
			{ID: 1, Max: 100},
			{ID: 2, Max: 100},
			{ID: 5, Max: 4, Details: []catalog.ScoreTypeDetail{
				{Score: "E", Value: 4},
				{Score: "S", Value: 3},
				{Score: "P", Value: 2},
				{Score: "U", Value: 1},
			}},
		},
		[]catalog.ScoreType{rcLetterType(), rcLimitedType()},
		testCommentCodes(),
		nil, nil,
	)
}

func testOptions() Options {
	return Options{
		PercentageRounding: catalog.RoundPolicy{Enabled: true, Places: 2},
		MarkRounding:       catalog.RoundPolicy{Enabled: true, Places: 2},
	}
}

func dueOn(day int) time.Time {
	return time.Date(2026, time.March, day, 0, 0, 0, 0, time.UTC)
}

// rawAsn is a points-category assignment on the raw-points score type.
func rawAsn(studentID, gradeBookID, measureTypeID string, possible float64, score string) Assignment {
	return Assignment{
		StudentID:      studentID,
		GradeBookID:    gradeBookID,
		MeasureTypeID:  measureTypeID,
		CategoryID:     CategoryPoints,
		ScoreTypeID:    2,
		PointsPossible: possible,
		MaxValue:       possible,
		Score:          score,
		IsForGrading:   true,
		DueDate:        dueOn(1),
	}
}

func baseClassData() ClassData {
	return ClassData{
		CurrentPeriodID:       "Q1",
		ReportCardScoreTypeID: 10,
		GradebookScoreTypes: []catalog.ScoreType{
			{ID: 1, Max: 100},
			{ID: 2, Max: 100},
		},
		ReportCardScoreTypes: []catalog.ScoreType{rcLetterType(), rcLimitedType()},
		CommentCodes:         testCommentCodes(),
		TermWeightingRules: []catalog.TermWeightingRule{
			{CalculatedPeriodID: "SEM1", ChildPeriodID: "Q1", Weight: 50},
			{CalculatedPeriodID: "SEM1", ChildPeriodID: "Q2", Weight: 50},
		},
		AnalysisBands: []catalog.AnalysisBand{
			{Label: "High", Low: 80, High: 100},
			{Label: "Middle", Low: 60, High: 79.99},
			{Label: "Low", Low: 0, High: 59.99},
		},
		MeasureTypes: []MeasureType{
			{ID: "hw", Name: "Homework", Weight: 40, DropScores: 1},
			{ID: "test", Name: "Tests", Weight: 60},
		},
		Assignments: []Assignment{
			rawAsn("s1", "hw1", "hw", 100, "85"),
			rawAsn("s1", "hw2", "hw", 100, ""),
			rawAsn("s1", "hw3", "hw", 100, "70"),
			rawAsn("s1", "t1", "test", 50, "45"),
		},
		ClassGrades: []ClassGradeSeed{
			{StudentID: "s1", PeriodID: "Q2", ReportCardScoreTypeID: 10,
				AssignmentCount: 5, Points: 90, PointsPossible: 100},
		},
	}
}

func loadedEngine(t *testing.T) *Engine {
	t.Helper()
	e := New(testOptions())
	if err := e.Load(baseClassData()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return e
}

func approx(t *testing.T, what string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v; want %v", what, got, want)
	}
}
