package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mind-engage/gradecalc/internal/catalog"
	"github.com/mind-engage/gradecalc/internal/engine"
)

// SQLStore loads class data from sqlite or postgres.
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

// LoadClassData performs the bulk class fetch in one pass per table.
func (s *SQLStore) LoadClassData(ctx context.Context, classID string) (engine.ClassData, error) {
	var data engine.ClassData

	row := s.db.QueryRowContext(ctx,
		`SELECT current_period_id, report_card_score_type_id FROM classes WHERE id=$1`, classID)
	if err := row.Scan(&data.CurrentPeriodID, &data.ReportCardScoreTypeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return engine.ClassData{}, errors.New("class not found")
		}
		return engine.ClassData{}, err
	}

	var err error
	if data.GradebookScoreTypes, err = s.scoreTypes(ctx, "gradebook"); err != nil {
		return engine.ClassData{}, err
	}
	if data.ReportCardScoreTypes, err = s.scoreTypes(ctx, "reportcard"); err != nil {
		return engine.ClassData{}, err
	}
	if data.CommentCodes, err = s.commentCodes(ctx); err != nil {
		return engine.ClassData{}, err
	}
	if data.MeasureTypes, err = s.measureTypes(ctx, classID); err != nil {
		return engine.ClassData{}, err
	}
	if data.Assignments, err = s.assignments(ctx, classID); err != nil {
		return engine.ClassData{}, err
	}
	if data.ClassGrades, err = s.classGrades(ctx, classID); err != nil {
		return engine.ClassData{}, err
	}
	if data.TermWeightingRules, err = s.termWeightingRules(ctx, classID); err != nil {
		return engine.ClassData{}, err
	}
	if data.AnalysisBands, err = s.analysisBands(ctx, classID); err != nil {
		return engine.ClassData{}, err
	}
	return data, nil
}

func (s *SQLStore) scoreTypes(ctx context.Context, kind string) ([]catalog.ScoreType, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, max, numeric_marks FROM score_types WHERE kind=$1 ORDER BY id`, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.ScoreType
	for rows.Next() {
		var st catalog.ScoreType
		if err := rows.Scan(&st.ID, &st.Max, &st.Numeric); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if out[i].Details, err = s.scoreTypeDetails(ctx, kind, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *SQLStore) scoreTypeDetails(ctx context.Context, kind string, scoreTypeID int) ([]catalog.ScoreTypeDetail, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT score, value, low_score, high_score, limit_pct_max, limit_pct_method
		 FROM score_type_details WHERE kind=$1 AND score_type_id=$2 ORDER BY seq`, kind, scoreTypeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.ScoreTypeDetail
	for rows.Next() {
		var d catalog.ScoreTypeDetail
		if err := rows.Scan(&d.Score, &d.Value, &d.LowScore, &d.HighScore, &d.LimitPctMax, &d.LimitPctMethod); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLStore) commentCodes(ctx context.Context) ([]catalog.CommentCode, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT code, comment, is_missing_mark, penalty_pct, remove_when_scored,
		        assignment_value, assignment_value_is_percent,
		        standards_value, standards_value_is_percent
		 FROM comment_codes ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.CommentCode
	for rows.Next() {
		var cc catalog.CommentCode
		var penalty, assignVal, stdVal sql.NullFloat64
		if err := rows.Scan(&cc.Code, &cc.Comment, &cc.IsMissingMark, &penalty, &cc.RemoveWhenScored,
			&assignVal, &cc.AssignmentValueIsPercent, &stdVal, &cc.StandardsValueIsPercent); err != nil {
			return nil, err
		}
		if penalty.Valid {
			cc.PenaltyPct = &penalty.Float64
		}
		if assignVal.Valid {
			cc.AssignmentValue = &assignVal.Float64
		}
		if stdVal.Valid {
			cc.StandardsValue = &stdVal.Float64
		}
		out = append(out, cc)
	}
	return out, rows.Err()
}

func (s *SQLStore) measureTypes(ctx context.Context, classID string) ([]engine.MeasureType, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, weight, drop_scores FROM measure_types WHERE class_id=$1 ORDER BY id`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.MeasureType
	for rows.Next() {
		var mt engine.MeasureType
		if err := rows.Scan(&mt.ID, &mt.Name, &mt.Weight, &mt.DropScores); err != nil {
			return nil, err
		}
		out = append(out, mt)
	}
	return out, rows.Err()
}

func (s *SQLStore) assignments(ctx context.Context, classID string) ([]engine.Assignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT student_id, grade_book_id, measure_type_id, category_id, score_type_id,
		        points_possible, max_value, score, excused, is_for_grading,
		        comment_code, penalty_pct, drop_state, unit, category, week, due_date
		 FROM assignments WHERE class_id=$1 ORDER BY student_id, grade_book_id`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.Assignment
	for rows.Next() {
		var a engine.Assignment
		var due int64
		if err := rows.Scan(&a.StudentID, &a.GradeBookID, &a.MeasureTypeID, &a.CategoryID, &a.ScoreTypeID,
			&a.PointsPossible, &a.MaxValue, &a.Score, &a.Excused, &a.IsForGrading,
			&a.CommentCode, &a.PenaltyPct, &a.DropState, &a.Unit, &a.Category, &a.Week, &due); err != nil {
			return nil, err
		}
		a.DueDate = time.Unix(due, 0).UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) classGrades(ctx context.Context, classID string) ([]engine.ClassGradeSeed, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT student_id, period_id, report_card_score_type_id, assignment_count,
		        points, points_possible, total_weighted_pct, total_assignment_weight,
		        incomplete_assignments, force_use_weighting, lock_score, manual_mark
		 FROM class_grades WHERE class_id=$1 ORDER BY student_id, period_id`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.ClassGradeSeed
	for rows.Next() {
		var g engine.ClassGradeSeed
		if err := rows.Scan(&g.StudentID, &g.PeriodID, &g.ReportCardScoreTypeID, &g.AssignmentCount,
			&g.Points, &g.PointsPossible, &g.TotalWeightedPct, &g.TotalAssignmentWeight,
			&g.IncompleteAssignments, &g.ForceUseWeighting, &g.LockScore, &g.ManualMark); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *SQLStore) termWeightingRules(ctx context.Context, classID string) ([]catalog.TermWeightingRule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT calculated_period_id, child_period_id, weight
		 FROM term_weighting_rules WHERE class_id=$1 ORDER BY calculated_period_id, child_period_id`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.TermWeightingRule
	for rows.Next() {
		var r catalog.TermWeightingRule
		if err := rows.Scan(&r.CalculatedPeriodID, &r.ChildPeriodID, &r.Weight); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) analysisBands(ctx context.Context, classID string) ([]catalog.AnalysisBand, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT label, low, high FROM analysis_bands WHERE class_id=$1 ORDER BY low`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.AnalysisBand
	for rows.Next() {
		var b catalog.AnalysisBand
		if err := rows.Scan(&b.Label, &b.Low, &b.High); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
