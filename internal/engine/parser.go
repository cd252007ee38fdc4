package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mind-engage/gradecalc/internal/catalog"
)

// numericScorePattern accepts up to four integer digits and up to two decimal
// places, matching what the grade entry grid allows.
var numericScorePattern = regexp.MustCompile(`^\d{1,4}(\.\d{1,2})?$`)

// ClearCommentToken in the comment position means "remove the comment".
const ClearCommentToken = "!"

// ParsedInput is the free-text cell edit split into its score, comment and
// excused parts. Presence flags distinguish "not mentioned" from "set empty".
type ParsedInput struct {
	ScoreText   string
	HasScore    bool
	CommentText string
	HasComment  bool
	ExcusedText string
	HasExcused  bool
}

// ClearsComment reports whether the comment token is the clear sentinel.
func (p ParsedInput) ClearsComment() bool { return p.CommentText == ClearCommentToken }

// ExcusedValue interprets the excused token: "EX" excuses, "!EX" un-excuses.
func (p ParsedInput) ExcusedValue() bool { return strings.EqualFold(p.ExcusedText, "EX") }

// ValidationResult reports per-field validity of a parsed cell edit plus the
// warning flags the UI surfaces inline. An over-double-max score is invalid;
// a merely over-max score is valid but flagged.
type ValidationResult struct {
	Valid                bool   `json:"valid"`
	ScoreValid           bool   `json:"score_valid"`
	CommentValid         bool   `json:"comment_valid"`
	ExcusedValid         bool   `json:"excused_valid"`
	IsOverMaxValue       bool   `json:"is_over_max_value"`
	IsOverDoubleMaxValue bool   `json:"is_over_double_max_value"`
	Message              string `json:"message,omitempty"`
}

// ParseScoreInput splits a free-text grid edit into up to three
// space-separated tokens covering score, comment code and excused marker.
//
// With three tokens the positions are fixed. With two, an excused marker in
// the second slot leaves the first slot ambiguous between comment and score,
// resolved by a comment-code lookup; otherwise the pair is (score, comment).
// A single token is tried as excused marker, then comment code, then score.
func ParseScoreInput(raw string, cat *catalog.Catalog) ParsedInput {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ParsedInput{HasScore: true}
	}
	parts := strings.Split(raw, " ")

	switch len(parts) {
	case 1:
		tok := parts[0]
		if isExcusedToken(tok) {
			return ParsedInput{ExcusedText: tok, HasExcused: true}
		}
		if isCommentToken(tok, cat) {
			return ParsedInput{CommentText: tok, HasComment: true}
		}
		return ParsedInput{ScoreText: tok, HasScore: true}
	case 2:
		first, second := parts[0], parts[1]
		if isExcusedToken(second) {
			if isCommentToken(first, cat) {
				return ParsedInput{
					CommentText: first, HasComment: true,
					ExcusedText: second, HasExcused: true,
				}
			}
			return ParsedInput{
				ScoreText: first, HasScore: true,
				ExcusedText: second, HasExcused: true,
			}
		}
		return ParsedInput{
			ScoreText: first, HasScore: true,
			CommentText: second, HasComment: true,
		}
	default:
		return ParsedInput{
			ScoreText: parts[0], HasScore: true,
			CommentText: parts[1], HasComment: true,
			ExcusedText: parts[2], HasExcused: true,
		}
	}
}

func isExcusedToken(tok string) bool {
	return strings.EqualFold(tok, "EX") || strings.EqualFold(tok, "!EX")
}

func isCommentToken(tok string, cat *catalog.Catalog) bool {
	if tok == ClearCommentToken {
		return true
	}
	_, ok := cat.CommentCode(tok)
	return ok
}

// ValidateInput checks each parsed part against the assignment's score type
// and the comment-code table.
func ValidateInput(p ParsedInput, a *Assignment, cat *catalog.Catalog) ValidationResult {
	vr := ValidationResult{ScoreValid: true, CommentValid: true, ExcusedValid: true}

	if p.HasScore && p.ScoreText != "" {
		validateScore(&vr, p.ScoreText, a, cat)
	}
	if p.HasComment && !p.ClearsComment() {
		if _, ok := cat.CommentCode(p.CommentText); !ok {
			vr.CommentValid = false
			vr.Message = fmt.Sprintf("%q is not a valid comment code", p.CommentText)
		}
	}
	if p.HasExcused && p.ExcusedText != "" && !isExcusedToken(p.ExcusedText) {
		vr.ExcusedValid = false
		vr.Message = fmt.Sprintf("%q is not a valid excused marker", p.ExcusedText)
	}

	vr.Valid = vr.ScoreValid && vr.CommentValid && vr.ExcusedValid
	return vr
}

func validateScore(vr *ValidationResult, text string, a *Assignment, cat *catalog.Catalog) {
	st, _ := cat.GradebookScoreType(a.ScoreTypeID)
	if st.ID == 0 {
		st.ID = a.ScoreTypeID
	}

	switch st.Kind() {
	case catalog.KindPercentage, catalog.KindRawPoints:
		if !numericScorePattern.MatchString(text) {
			vr.ScoreValid = false
			vr.Message = fmt.Sprintf("%q is not a valid score", text)
			return
		}
		v, _ := strconv.ParseFloat(text, 64)
		limit := a.MaxValue
		if limit <= 0 {
			limit = 100
		}
		if v > 2*limit {
			vr.ScoreValid = false
			vr.IsOverDoubleMaxValue = true
			vr.Message = fmt.Sprintf("score %s is more than double the max value %g", text, limit)
			return
		}
		if v > limit {
			vr.IsOverMaxValue = true
		}
	default:
		if _, ok := st.Detail(text); !ok {
			vr.ScoreValid = false
			vr.Message = fmt.Sprintf("%q is not a valid score for this score type", text)
		}
	}
}
