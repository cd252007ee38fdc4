package catalog

import (
	"fmt"
	"strings"
)

// Catalog is the read-only lookup context shared by every calc component:
// score types, comment codes, term-weighting rules and analysis bands.
// Loaded once per session; never mutated by the engine.
type Catalog struct {
	gradebookTypes  map[int]ScoreType
	reportCardTypes map[int]ScoreType
	comments        map[string]CommentCode // keyed by upper-cased code
	rules           []TermWeightingRule
	bands           []AnalysisBand
}

func New(gradebook, reportCard []ScoreType, comments []CommentCode, rules []TermWeightingRule, bands []AnalysisBand) *Catalog {
	c := &Catalog{
		gradebookTypes:  make(map[int]ScoreType, len(gradebook)),
		reportCardTypes: make(map[int]ScoreType, len(reportCard)),
		comments:        make(map[string]CommentCode, len(comments)),
		rules:           rules,
		bands:           bands,
	}
	for _, st := range gradebook {
		c.gradebookTypes[st.ID] = st
	}
	for _, st := range reportCard {
		c.reportCardTypes[st.ID] = st
	}
	for _, cc := range comments {
		c.comments[strings.ToUpper(cc.Code)] = cc
	}
	return c
}

// GradebookScoreType looks up the scale used to enter assignment scores.
func (c *Catalog) GradebookScoreType(id int) (ScoreType, bool) {
	st, ok := c.gradebookTypes[id]
	return st, ok
}

// ReportCardScoreType looks up the scale used to display marks. A missing id
// is a configuration-integrity failure: callers must propagate the error and
// abort the computation rather than show a silently wrong grade.
func (c *Catalog) ReportCardScoreType(id int) (ScoreType, error) {
	st, ok := c.reportCardTypes[id]
	if !ok {
		return ScoreType{}, fmt.Errorf("report card score type %d not configured", id)
	}
	return st, nil
}

// CommentCode resolves a comment code case-insensitively.
func (c *Catalog) CommentCode(code string) (CommentCode, bool) {
	cc, ok := c.comments[strings.ToUpper(strings.TrimSpace(code))]
	return cc, ok
}

// RulesFor returns the term-weighting rules that feed the given calculated
// period.
func (c *Catalog) RulesFor(calculatedPeriodID string) []TermWeightingRule {
	var out []TermWeightingRule
	for _, r := range c.rules {
		if r.CalculatedPeriodID == calculatedPeriodID {
			out = append(out, r)
		}
	}
	return out
}

// IsCalculatedPeriod reports whether any rule rolls up into the period, i.e.
// the period's grade is derived from term weighting rather than assignments.
func (c *Catalog) IsCalculatedPeriod(periodID string) bool {
	for _, r := range c.rules {
		if r.CalculatedPeriodID == periodID {
			return true
		}
	}
	return false
}

// ParentsOf returns the calculated periods that directly include the child
// period. Used by the scheduler to find roll-ups affected by a score change.
func (c *Catalog) ParentsOf(childPeriodID string) []string {
	var out []string
	seen := map[string]bool{}
	for _, r := range c.rules {
		if r.ChildPeriodID == childPeriodID && r.CalculatedPeriodID != childPeriodID && !seen[r.CalculatedPeriodID] {
			seen[r.CalculatedPeriodID] = true
			out = append(out, r.CalculatedPeriodID)
		}
	}
	return out
}

// BandFor classifies a base-100 percentage into a configured analysis band.
// Bands are inclusive on both ends, first match wins.
func (c *Catalog) BandFor(pct float64) (AnalysisBand, bool) {
	for _, b := range c.bands {
		if b.Low <= pct && pct <= b.High {
			return b, true
		}
	}
	return AnalysisBand{}, false
}
