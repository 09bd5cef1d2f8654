package models

import (
	"math"
	"strings"
)

// Label is the categorical sentiment of a headline
type Label string

const (
	LabelPositive Label = "positive"
	LabelNeutral  Label = "neutral"
	LabelNegative Label = "negative"
	LabelUnknown  Label = "unknown"
)

// Labels lists the scored labels in descending score order
var Labels = []Label{LabelPositive, LabelNeutral, LabelNegative}

// ParseLabel maps a textual label to a Label. Matching is case-insensitive
// and exact; anything else is LabelUnknown.
func ParseLabel(s string) Label {
	switch Label(strings.ToLower(strings.TrimSpace(s))) {
	case LabelPositive:
		return LabelPositive
	case LabelNeutral:
		return LabelNeutral
	case LabelNegative:
		return LabelNegative
	}
	return LabelUnknown
}

// Score returns +1, 0 or -1 for the scored labels and NaN for unknown.
func (l Label) Score() float64 {
	switch l {
	case LabelPositive:
		return 1
	case LabelNeutral:
		return 0
	case LabelNegative:
		return -1
	}
	return math.NaN()
}

// LabelFromScore reduces a score in [-1,1] to the nearest scored label.
func LabelFromScore(score float64) Label {
	switch {
	case math.IsNaN(score):
		return LabelUnknown
	case score >= 0.5:
		return LabelPositive
	case score <= -0.5:
		return LabelNegative
	}
	return LabelNeutral
}

// ScoreToPercent rescales a score in [-1,1] to a percentage in [-100,100]
func ScoreToPercent(score float64) float64 {
	return score * 100.0
}

// PercentToScore is the inverse of ScoreToPercent
func PercentToScore(pct float64) float64 {
	return pct / 100.0
}
