package engine

import "github.com/mind-engage/gradecalc/internal/catalog"

// ScorePreference picks which comment-implied value substitutes for an empty
// score in standards mode.
type ScorePreference int

const (
	PreferAssignmentValue ScorePreference = iota
	PreferStandardsValue
)

// Options is the session-wide calculation configuration. Loaded once, read
// only for the life of the engine.
type Options struct {
	AssignmentWeightingOn bool

	ApplyRigorPoints bool
	RigorPoints      float64

	// Substitute a teacher-locked mark's catalog value for the computed
	// percentage during term weighting.
	UseTeacherOverrideInTermWeighting bool

	PercentageRounding catalog.RoundPolicy
	MarkRounding       catalog.RoundPolicy

	StandardsScorePreference ScorePreference
}
