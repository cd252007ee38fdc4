package catalog

import (
	"math"
	"strconv"
)

// MarkSetup is returned when a percentage falls inside the scale's range but
// no band claims it. It signals a district configuration gap to the UI; it is
// deliberately not an error so the rest of the grade card still renders.
const MarkSetup = "Setup"

// RoundPolicy says whether values round or truncate, and at how many places.
type RoundPolicy struct {
	Enabled bool // round when true, truncate when false
	Places  int
}

// Apply rounds or truncates v per the policy.
func (p RoundPolicy) Apply(v float64) float64 {
	if p.Enabled {
		return RoundPlaces(v, p.Places)
	}
	return TruncPlaces(v, p.Places)
}

func RoundPlaces(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}

func TruncPlaces(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Trunc(v*pow) / pow
}

// GetMark resolves a base-100 percentage into the displayable mark for the
// given report-card score type.
//
// The percentage is scaled into the score type's own max, pre-rounded at two
// places when the scale max differs from 100 (discrete scales expect that
// precision), then rounded or truncated per the session mark policy. The
// detail bands are inclusive on both ends. Overflow above the scale max falls
// back to the raw number (numeric scales) or the top band's label; a value
// inside the range with no matching band yields MarkSetup.
func (c *Catalog) GetMark(pct float64, reportCardScoreTypeID int, policy RoundPolicy) (string, error) {
	st, err := c.ReportCardScoreType(reportCardScoreTypeID)
	if err != nil {
		return "", err
	}
	maxVal := st.Max
	if maxVal > 100 {
		maxVal = 100
	}

	markValue := pct * st.Max / 100
	if maxVal != 100 {
		markValue = RoundPlaces(markValue, 2)
	}
	markValue = policy.Apply(markValue)

	for _, d := range st.Details {
		if d.LowScore <= markValue && markValue <= d.HighScore {
			return d.Score, nil
		}
	}

	if markValue > maxVal {
		if st.Numeric {
			return strconv.Itoa(int(math.Round(markValue))), nil
		}
		top := ""
		high := math.Inf(-1)
		for _, d := range st.Details {
			if d.HighScore > high {
				high = d.HighScore
				top = d.Score
			}
		}
		if top != "" {
			return top, nil
		}
	}
	return MarkSetup, nil
}
