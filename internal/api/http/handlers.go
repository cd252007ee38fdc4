package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/gradecalc/internal/catalog"
	"github.com/mind-engage/gradecalc/internal/engine"
)

type setScoreReq struct {
	StudentID   string `json:"student_id"`
	GradeBookID string `json:"grade_book_id"`
	Input       string `json:"input"`
}

type setScoreResp struct {
	Validation       engine.ValidationResult `json:"validation"`
	Assignment       *engine.Assignment      `json:"assignment,omitempty"`
	MeasureTypeGrade *measureTypeGradeView   `json:"measure_type_grade,omitempty"`
	ClassGrade       *classGradeView         `json:"class_grade,omitempty"`
}

// POST /classes/{classID}/scores
func SetScoreHandler(reg *EngineRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		classID := strings.TrimSpace(chi.URLParam(r, "classID"))
		var req setScoreReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		e, err := reg.Engine(r.Context(), classID)
		if err != nil {
			http.Error(w, "class data: "+err.Error(), http.StatusInternalServerError)
			return
		}
		vr, err := e.SetScore(req.StudentID, req.GradeBookID, req.Input)
		if err != nil {
			if errors.Is(err, engine.ErrLoading) {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			http.Error(w, "set score: "+err.Error(), http.StatusInternalServerError)
			return
		}
		resp := setScoreResp{Validation: vr}
		if vr.Valid {
			if a, ok := e.Assignment(req.StudentID, req.GradeBookID); ok {
				resp.Assignment = &a
				if mtg, ok := e.MeasureTypeGrade(req.StudentID, a.MeasureTypeID); ok {
					if v, err := newMeasureTypeGradeView(mtg, e.Catalog(), e.Options()); err == nil {
						resp.MeasureTypeGrade = &v
					}
				}
			}
			if cg, ok := e.ClassGrade(req.StudentID, e.CurrentPeriodID()); ok {
				v, err := newClassGradeView(cg, e.Catalog(), e.Options())
				if err != nil {
					http.Error(w, "grade view: "+err.Error(), http.StatusInternalServerError)
					return
				}
				resp.ClassGrade = &v
			}
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// GET /classes/{classID}/students/{studentID}/grades
func GetGradeCardHandler(reg *EngineRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		classID := strings.TrimSpace(chi.URLParam(r, "classID"))
		studentID := strings.TrimSpace(chi.URLParam(r, "studentID"))
		e, err := reg.Engine(r.Context(), classID)
		if err != nil {
			http.Error(w, "class data: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeGradeCard(w, e, studentID, e.CurrentPeriodID())
	}
}

// GET /classes/{classID}/students/{studentID}/periods/{periodID}/grade
func GetPeriodGradeHandler(reg *EngineRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		classID := strings.TrimSpace(chi.URLParam(r, "classID"))
		studentID := strings.TrimSpace(chi.URLParam(r, "studentID"))
		periodID := strings.TrimSpace(chi.URLParam(r, "periodID"))
		e, err := reg.Engine(r.Context(), classID)
		if err != nil {
			http.Error(w, "class data: "+err.Error(), http.StatusInternalServerError)
			return
		}
		cg, ok := e.ClassGrade(studentID, periodID)
		if !ok {
			http.Error(w, "no grade for period", http.StatusNotFound)
			return
		}
		v, err := newClassGradeView(cg, e.Catalog(), e.Options())
		if err != nil {
			http.Error(w, "grade view: "+err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(v)
	}
}

type lockMarkReq struct {
	StudentID  string `json:"student_id"`
	PeriodID   string `json:"period_id"`
	Lock       bool   `json:"lock"`
	ManualMark string `json:"manual_mark"`
}

// POST /classes/{classID}/marks/lock
func LockMarkHandler(reg *EngineRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		classID := strings.TrimSpace(chi.URLParam(r, "classID"))
		var req lockMarkReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		e, err := reg.Engine(r.Context(), classID)
		if err != nil {
			http.Error(w, "class data: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if err := e.SetScoreLock(req.StudentID, req.PeriodID, req.Lock, req.ManualMark); err != nil {
			http.Error(w, "lock mark: "+err.Error(), http.StatusInternalServerError)
			return
		}
		cg, _ := e.ClassGrade(req.StudentID, req.PeriodID)
		v, err := newClassGradeView(cg, e.Catalog(), e.Options())
		if err != nil {
			http.Error(w, "grade view: "+err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(v)
	}
}

// POST /classes/{classID}/reload
func ReloadClassHandler(reg *EngineRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		classID := strings.TrimSpace(chi.URLParam(r, "classID"))
		if err := reg.Reload(r.Context(), classID); err != nil {
			http.Error(w, "reload: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

/* ---------------- views ---------------- */

type classGradeView struct {
	StudentID             string  `json:"student_id"`
	PeriodID              string  `json:"period_id"`
	WeightedPercentage    float64 `json:"weighted_percentage"`
	CalculatedMark        string  `json:"calculated_mark"`
	ManualMark            string  `json:"manual_mark"`
	LockScore             bool    `json:"lock_score"`
	Points                float64 `json:"points"`
	PointsPossible        float64 `json:"points_possible"`
	AssignmentCount       int     `json:"assignment_count"`
	IncompleteAssignments int     `json:"incomplete_assignments"`
	Band                  string  `json:"band,omitempty"`
}

func newClassGradeView(cg engine.ClassGrade, cat *catalog.Catalog, opts engine.Options) (classGradeView, error) {
	pct, err := cg.WeightedPercentage(cat, opts)
	if err != nil {
		return classGradeView{}, err
	}
	mark, err := cg.CalculatedMark(cat, opts)
	if err != nil {
		return classGradeView{}, err
	}
	manual, err := cg.ManualMark(cat, opts)
	if err != nil {
		return classGradeView{}, err
	}
	v := classGradeView{
		StudentID:             cg.StudentID,
		PeriodID:              cg.PeriodID,
		WeightedPercentage:    opts.PercentageRounding.Apply(pct),
		CalculatedMark:        mark,
		ManualMark:            manual,
		LockScore:             cg.LockScore,
		Points:                cg.Points,
		PointsPossible:        cg.PointsPossible,
		AssignmentCount:       cg.AssignmentCount,
		IncompleteAssignments: cg.IncompleteAssignments,
	}
	if b, ok := cat.BandFor(cg.WeightedPercentageBase100(opts)); ok {
		v.Band = b.Label
	}
	return v, nil
}

type measureTypeGradeView struct {
	StudentID             string  `json:"student_id"`
	MeasureTypeID         string  `json:"measure_type_id"`
	Weight                float64 `json:"weight"`
	AssignmentCount       int     `json:"assignment_count"`
	Points                float64 `json:"points"`
	PointsPossible        float64 `json:"points_possible"`
	IncompleteAssignments int     `json:"incomplete_assignments"`
	MarkPercentage        float64 `json:"mark_percentage"`
	CalculatedMark        string  `json:"calculated_mark"`
}

func newMeasureTypeGradeView(mtg engine.MeasureTypeGrade, cat *catalog.Catalog, opts engine.Options) (measureTypeGradeView, error) {
	mark, err := mtg.CalculatedMark(cat, opts)
	if err != nil {
		return measureTypeGradeView{}, err
	}
	return measureTypeGradeView{
		StudentID:             mtg.StudentID,
		MeasureTypeID:         mtg.MeasureTypeID,
		Weight:                mtg.MeasureTypeWeight,
		AssignmentCount:       mtg.AssignmentCount,
		Points:                mtg.Points,
		PointsPossible:        mtg.PointsPossible,
		IncompleteAssignments: mtg.IncompleteAssignments,
		MarkPercentage:        mtg.MarkPercentage(opts),
		CalculatedMark:        mark,
	}, nil
}

type gradeCardResp struct {
	ClassGrade        *classGradeView        `json:"class_grade,omitempty"`
	MeasureTypeGrades []measureTypeGradeView `json:"measure_type_grades"`
	Assignments       []engine.Assignment    `json:"assignments"`
}

func writeGradeCard(w http.ResponseWriter, e *engine.Engine, studentID, periodID string) {
	resp := gradeCardResp{Assignments: e.AssignmentsFor(studentID)}
	for _, mtg := range e.MeasureTypeGradesFor(studentID) {
		v, err := newMeasureTypeGradeView(mtg, e.Catalog(), e.Options())
		if err != nil {
			http.Error(w, "grade view: "+err.Error(), http.StatusInternalServerError)
			return
		}
		resp.MeasureTypeGrades = append(resp.MeasureTypeGrades, v)
	}
	if cg, ok := e.ClassGrade(studentID, periodID); ok {
		v, err := newClassGradeView(cg, e.Catalog(), e.Options())
		if err != nil {
			http.Error(w, "grade view: "+err.Error(), http.StatusInternalServerError)
			return
		}
		resp.ClassGrade = &v
	}
	_ = json.NewEncoder(w).Encode(resp)
}
