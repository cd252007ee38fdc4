package engine

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/mind-engage/gradecalc/internal/catalog"
)

// ErrLoading is returned while a class-data reload is replacing the
// collections; in-flight edits are invalidated rather than interleaved.
var ErrLoading = errors.New("class data reload in progress")

type assignmentKey struct{ studentID, gradeBookID string }
type groupKey struct{ studentID, measureTypeID string }
type classKey struct{ studentID, periodID string }

// ScoreChange is published to subscribers after a successful edit and its
// recompute pass. Subscribers get derived values through the lookup
// accessors, decoupled from the internal scheduler.
type ScoreChange struct {
	StudentID     string `json:"student_id"`
	GradeBookID   string `json:"grade_book_id"`
	MeasureTypeID string `json:"measure_type_id"`
	PeriodID      string `json:"period_id"`
}

// ClassData is the bulk payload the engine loads once per session: catalog
// tables, per-class configuration, raw assignments and seed class grades for
// every grading period the class reports on.
type ClassData struct {
	CurrentPeriodID       string                      `json:"current_period_id"`
	ReportCardScoreTypeID int                         `json:"report_card_score_type_id"`
	GradebookScoreTypes   []catalog.ScoreType         `json:"gradebook_score_types"`
	ReportCardScoreTypes  []catalog.ScoreType         `json:"report_card_score_types"`
	CommentCodes          []catalog.CommentCode       `json:"comment_codes"`
	TermWeightingRules    []catalog.TermWeightingRule `json:"term_weighting_rules"`
	AnalysisBands         []catalog.AnalysisBand      `json:"analysis_bands"`
	MeasureTypes          []MeasureType               `json:"measure_types"`
	Assignments           []Assignment                `json:"assignments"`
	ClassGrades           []ClassGradeSeed            `json:"class_grades"`
}

// ClassGradeSeed carries a server-computed class grade for a grading period.
// The active period's seed is replaced by a local recompute on load; other
// periods keep their seeded values until term weighting folds them in.
type ClassGradeSeed struct {
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
	ManualMark            string  `json:"manual_mark"`
}

// Engine owns the mutable grade state for one class and is its sole mutator.
// All recomputation is synchronous and bottom-up: assignment, drop policy,
// measure-type grade, class grade, then any term-weighted roll-ups that
// include the affected period.
type Engine struct {
	mu   sync.RWMutex
	cat  *catalog.Catalog
	opts Options

	currentPeriodID       string
	reportCardScoreTypeID int

	measureTypes  map[string]MeasureType
	assignments   map[assignmentKey]*Assignment
	order         []assignmentKey // load order, for stable listings
	measureGrades map[groupKey]*MeasureTypeGrade
	classGrades   map[classKey]*ClassGrade

	subs    []func(ScoreChange)
	loading bool
}

func New(opts Options) *Engine {
	return &Engine{
		opts:          opts,
		measureTypes:  map[string]MeasureType{},
		assignments:   map[assignmentKey]*Assignment{},
		measureGrades: map[groupKey]*MeasureTypeGrade{},
		classGrades:   map[classKey]*ClassGrade{},
	}
}

// Catalog exposes the read-only lookup tables loaded with the class data.
func (e *Engine) Catalog() *catalog.Catalog {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cat
}

// Loading reports whether a reload is in progress; consumers must not read
// derived values until it clears.
func (e *Engine) Loading() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loading
}

// Subscribe registers a callback for score-change notifications. Callbacks
// run synchronously at the end of a successful SetScore.
func (e *Engine) Subscribe(fn func(ScoreChange)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subs = append(e.subs, fn)
}

// Load replaces all collections with a fresh class-data pull and runs a full
// recompute. The replacement is prepared with the loading flag raised, so
// concurrent edits get ErrLoading instead of interleaving with the reload;
// local edits made before the reload are discarded either way.
func (e *Engine) Load(data ClassData) error {
	e.setLoading(true)
	defer e.setLoading(false)

	cat := catalog.New(data.GradebookScoreTypes, data.ReportCardScoreTypes,
		data.CommentCodes, data.TermWeightingRules, data.AnalysisBands)

	measureTypes := make(map[string]MeasureType, len(data.MeasureTypes))
	for _, mt := range data.MeasureTypes {
		measureTypes[mt.ID] = mt
	}

	assignments := make(map[assignmentKey]*Assignment, len(data.Assignments))
	order := make([]assignmentKey, 0, len(data.Assignments))
	for i := range data.Assignments {
		a := data.Assignments[i]
		k := assignmentKey{a.StudentID, a.GradeBookID}
		if _, dup := assignments[k]; dup {
			return fmt.Errorf("duplicate assignment for student %s gradebook item %s", a.StudentID, a.GradeBookID)
		}
		assignments[k] = &a
		order = append(order, k)
	}

	classGrades := make(map[classKey]*ClassGrade, len(data.ClassGrades))
	for _, seed := range data.ClassGrades {
		k := classKey{seed.StudentID, seed.PeriodID}
		classGrades[k] = &ClassGrade{
			StudentID:             seed.StudentID,
			PeriodID:              seed.PeriodID,
			ReportCardScoreTypeID: seed.ReportCardScoreTypeID,
			AssignmentCount:       seed.AssignmentCount,
			Points:                seed.Points,
			PointsPossible:        seed.PointsPossible,
			TotalWeightedPct:      seed.TotalWeightedPct,
			TotalAssignmentWeight: seed.TotalAssignmentWeight,
			IncompleteAssignments: seed.IncompleteAssignments,
			ForceUseWeighting:     seed.ForceUseWeighting,
			LockScore:             seed.LockScore,
			manualMark:            seed.ManualMark,
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.cat = cat
	e.currentPeriodID = data.CurrentPeriodID
	e.reportCardScoreTypeID = data.ReportCardScoreTypeID
	e.measureTypes = measureTypes
	e.assignments = assignments
	e.order = order
	e.classGrades = classGrades
	e.measureGrades = map[groupKey]*MeasureTypeGrade{}
	return e.recomputeAll()
}

func (e *Engine) setLoading(v bool) {
	e.mu.Lock()
	e.loading = v
	e.mu.Unlock()
}

// SetScore parses, validates and applies a free-text score edit for one
// student's gradebook item, then recomputes the affected aggregation chain.
// Invalid input leaves all state untouched and reports the diagnostics.
func (e *Engine) SetScore(studentID, gradeBookID, rawInput string) (ValidationResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loading {
		return ValidationResult{}, ErrLoading
	}
	a, ok := e.assignments[assignmentKey{studentID, gradeBookID}]
	if !ok {
		return ValidationResult{}, fmt.Errorf("no assignment for student %s gradebook item %s", studentID, gradeBookID)
	}

	parsed := ParseScoreInput(rawInput, e.cat)
	vr := ValidateInput(parsed, a, e.cat)
	if !vr.Valid {
		return vr, nil
	}

	e.applyParsed(a, parsed)
	if err := e.recomputeGroup(studentID, a.MeasureTypeID); err != nil {
		return vr, err
	}

	change := ScoreChange{
		StudentID:     studentID,
		GradeBookID:   gradeBookID,
		MeasureTypeID: a.MeasureTypeID,
		PeriodID:      e.currentPeriodID,
	}
	for _, fn := range e.subs {
		fn(change)
	}
	return vr, nil
}

// applyParsed mutates the assignment with the validated edit, including the
// comment-driven side effects: penalty, remove-when-scored and implicit
// score substitution for an empty score text.
func (e *Engine) applyParsed(a *Assignment, p ParsedInput) {
	if p.HasScore {
		a.Score = p.ScoreText
	}

	var applied *catalog.CommentCode
	if p.HasComment {
		if p.ClearsComment() {
			a.CommentCode = ""
			a.PenaltyPct = 0
		} else if cc, ok := e.cat.CommentCode(p.CommentText); ok {
			a.CommentCode = cc.Code
			a.PenaltyPct = 0
			if cc.PenaltyPct != nil {
				a.PenaltyPct = *cc.PenaltyPct
			}
			applied = &cc
		}
	} else if a.Score != "" && a.CommentCode != "" {
		if cc, ok := e.cat.CommentCode(a.CommentCode); ok && cc.RemoveWhenScored {
			a.CommentCode = ""
			a.PenaltyPct = 0
		}
	}

	if p.HasExcused && p.ExcusedText != "" {
		a.Excused = p.ExcusedValue()
	}

	if applied != nil && a.Score == "" {
		if v, ok := e.implicitScore(*applied, a.MaxValue); ok {
			a.Score = v
		}
	}
}

// implicitScore derives a score from a comment code's configured value,
// percent-relative to the assignment max or absolute.
func (e *Engine) implicitScore(cc catalog.CommentCode, maxValue float64) (string, bool) {
	val := cc.AssignmentValue
	isPct := cc.AssignmentValueIsPercent
	if e.opts.StandardsScorePreference == PreferStandardsValue && cc.StandardsValue != nil {
		val = cc.StandardsValue
		isPct = cc.StandardsValueIsPercent
	}
	if val == nil {
		return "", false
	}
	v := *val
	if isPct {
		v = maxValue * v / 100
	}
	return strconv.FormatFloat(v, 'f', -1, 64), true
}

// recomputeAll runs the full bottom-up pass over every group, then every
// calculated period. Used on load/reload.
func (e *Engine) recomputeAll() error {
	groups := map[groupKey][]*Assignment{}
	students := map[string]bool{}
	for _, k := range e.order {
		a := e.assignments[k]
		gk := groupKey{a.StudentID, a.MeasureTypeID}
		groups[gk] = append(groups[gk], a)
		students[a.StudentID] = true
	}
	for gk, group := range groups {
		mt := e.measureTypes[gk.measureTypeID]
		applyDropPolicy(group, mt.DropScores, e.cat)
		e.rebuildMeasureGrade(gk, group)
	}

	// Each calculated (student, period) is rolled up at most once per pass;
	// re-running a self-referencing roll-up would fold its own result back in.
	visited := map[classKey]bool{}
	for studentID := range students {
		e.rebuildClassGrade(studentID)
		if err := e.rollUpFrom(studentID, e.currentPeriodID, visited); err != nil {
			return err
		}
	}
	// Seeded-only periods (students or periods with no loaded assignments)
	// still feed roll-ups.
	seeded := make([]classKey, 0, len(e.classGrades))
	for k := range e.classGrades {
		seeded = append(seeded, k)
	}
	for _, k := range seeded {
		if err := e.rollUpFrom(k.studentID, k.periodID, visited); err != nil {
			return err
		}
	}
	return nil
}

// recomputeGroup is the targeted pass for one (student, measure type) group:
// drops, measure-type grade, class grade, then affected roll-ups. Unaffected
// students and groups are untouched.
func (e *Engine) recomputeGroup(studentID, measureTypeID string) error {
	gk := groupKey{studentID, measureTypeID}
	group := e.groupAssignments(gk)
	mt := e.measureTypes[measureTypeID]
	applyDropPolicy(group, mt.DropScores, e.cat)
	e.rebuildMeasureGrade(gk, group)
	e.rebuildClassGrade(studentID)
	return e.rollUpFrom(studentID, e.currentPeriodID, map[classKey]bool{})
}

func (e *Engine) groupAssignments(gk groupKey) []*Assignment {
	var out []*Assignment
	for _, k := range e.order {
		a := e.assignments[k]
		if a.StudentID == gk.studentID && a.MeasureTypeID == gk.measureTypeID {
			out = append(out, a)
		}
	}
	return out
}

func (e *Engine) rebuildMeasureGrade(gk groupKey, group []*Assignment) {
	mtg, ok := e.measureGrades[gk]
	if !ok {
		mt := e.measureTypes[gk.measureTypeID]
		mtg = &MeasureTypeGrade{
			StudentID:             gk.studentID,
			MeasureTypeID:         gk.measureTypeID,
			MeasureTypeWeight:     mt.Weight,
			ReportCardScoreTypeID: e.reportCardScoreTypeID,
		}
		e.measureGrades[gk] = mtg
	}
	mtg.rebuild(group, e.cat)
}

func (e *Engine) rebuildClassGrade(studentID string) {
	cg := e.ensureClassGrade(studentID, e.currentPeriodID)
	var groups []*MeasureTypeGrade
	for gk, mtg := range e.measureGrades {
		if gk.studentID == studentID {
			groups = append(groups, mtg)
		}
	}
	cg.rebuild(groups)
}

func (e *Engine) ensureClassGrade(studentID, periodID string) *ClassGrade {
	k := classKey{studentID, periodID}
	cg, ok := e.classGrades[k]
	if !ok {
		cg = &ClassGrade{
			StudentID:             studentID,
			PeriodID:              periodID,
			ReportCardScoreTypeID: e.reportCardScoreTypeID,
		}
		e.classGrades[k] = cg
	}
	return cg
}

// rollUpFrom recomputes every calculated period that (transitively) includes
// the given period, in dependency order.
func (e *Engine) rollUpFrom(studentID, periodID string, visited map[classKey]bool) error {
	for _, parent := range e.cat.ParentsOf(periodID) {
		if visited[classKey{studentID, parent}] {
			continue
		}
		if err := e.computeCalculatedPeriod(studentID, parent, visited); err != nil {
			return err
		}
		if err := e.rollUpFrom(studentID, parent, visited); err != nil {
			return err
		}
	}
	return nil
}

// computeCalculatedPeriod rolls up one calculated period, first rolling up any
// calculated child not yet computed this pass. A period with two calculated
// children (YEAR over two semesters) must see both of them fresh, whichever
// quarter the walk started from.
func (e *Engine) computeCalculatedPeriod(studentID, periodID string, visited map[classKey]bool) error {
	k := classKey{studentID, periodID}
	if visited[k] {
		return nil
	}
	visited[k] = true
	for _, rule := range e.cat.RulesFor(periodID) {
		if rule.ChildPeriodID == periodID || !e.cat.IsCalculatedPeriod(rule.ChildPeriodID) {
			continue
		}
		if err := e.computeCalculatedPeriod(studentID, rule.ChildPeriodID, visited); err != nil {
			return err
		}
	}
	return e.recomputeTermWeighting(studentID, periodID)
}

// SetScoreLock locks or unlocks a teacher override mark on a period's class
// grade, then refreshes any roll-ups the period feeds. Unlocking clears the
// stored override; the manual mark goes back to mirroring the calculated one.
func (e *Engine) SetScoreLock(studentID, periodID string, lock bool, manualMark string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loading {
		return ErrLoading
	}
	cg := e.ensureClassGrade(studentID, periodID)
	cg.LockScore = lock
	cg.manualMark = ""
	if lock {
		if err := cg.SetManualMark(manualMark); err != nil {
			return err
		}
	}
	return e.rollUpFrom(studentID, periodID, map[classKey]bool{})
}

/* ---------------- lookup accessors (copies, engine stays sole mutator) ---------------- */

// Assignment returns the live state of one student's gradebook item.
func (e *Engine) Assignment(studentID, gradeBookID string) (Assignment, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	a, ok := e.assignments[assignmentKey{studentID, gradeBookID}]
	if !ok {
		return Assignment{}, false
	}
	return *a, true
}

// AssignmentsFor lists a student's assignments in load order.
func (e *Engine) AssignmentsFor(studentID string) []Assignment {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []Assignment
	for _, k := range e.order {
		if k.studentID == studentID {
			out = append(out, *e.assignments[k])
		}
	}
	return out
}

// MeasureTypeGrade returns the aggregate for one (student, measure type).
func (e *Engine) MeasureTypeGrade(studentID, measureTypeID string) (MeasureTypeGrade, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	mtg, ok := e.measureGrades[groupKey{studentID, measureTypeID}]
	if !ok {
		return MeasureTypeGrade{}, false
	}
	return *mtg, true
}

// MeasureTypeGradesFor lists a student's measure-type aggregates.
func (e *Engine) MeasureTypeGradesFor(studentID string) []MeasureTypeGrade {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []MeasureTypeGrade
	for _, mt := range e.measureTypes {
		if mtg, ok := e.measureGrades[groupKey{studentID, mt.ID}]; ok {
			out = append(out, *mtg)
		}
	}
	return out
}

// ClassGrade returns a student's grade for one grading period.
func (e *Engine) ClassGrade(studentID, periodID string) (ClassGrade, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	cg, ok := e.classGrades[classKey{studentID, periodID}]
	if !ok {
		return ClassGrade{}, false
	}
	return *cg, true
}

// CurrentPeriodID is the grading period the loaded assignments belong to.
func (e *Engine) CurrentPeriodID() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.currentPeriodID
}

// Options returns the session calculation configuration.
func (e *Engine) Options() Options {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.opts
}

// Clone deep-copies the engine for what-if projections. The catalog is
// shared (read-only); subscribers are not carried over.
func (e *Engine) Clone() *Engine {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c := New(e.opts)
	c.cat = e.cat
	c.currentPeriodID = e.currentPeriodID
	c.reportCardScoreTypeID = e.reportCardScoreTypeID
	for id, mt := range e.measureTypes {
		c.measureTypes[id] = mt
	}
	c.order = append([]assignmentKey(nil), e.order...)
	for k, a := range e.assignments {
		cp := *a
		c.assignments[k] = &cp
	}
	for k, mtg := range e.measureGrades {
		cp := *mtg
		c.measureGrades[k] = &cp
	}
	for k, cg := range e.classGrades {
		cp := *cg
		c.classGrades[k] = &cp
	}
	return c
}
