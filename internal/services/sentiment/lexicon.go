package sentiment

import (
	"context"
	"math"
	"strings"

	"github.com/bobmcallan/finsent/internal/interfaces"
	"github.com/bobmcallan/finsent/internal/models"
)

// Compound score thresholds
const (
	PositiveThreshold = 0.05
	NegativeThreshold = -0.05
)

const (
	negationScalar = -0.74
	boosterIncr    = 0.293
	normAlpha      = 15.0
)

// valence of headline terms, on a -4..+4 scale
var lexicon = map[string]float64{
	// strong positive
	"surge": 3.0, "soar": 3.0, "skyrocket": 3.2, "breakthrough": 2.9, "blowout": 2.6,
	"bullish": 2.8, "rally": 2.7, "boom": 2.6, "triumph": 2.7, "outperform": 2.6,
	"breakout": 2.5, "record-high": 2.6, "windfall": 2.4,

	// moderate positive
	"beat": 2.3, "beats": 2.3, "exceed": 2.3, "upgrade": 2.4, "upgraded": 2.4, "optimistic": 2.3,
	"profit": 2.4, "profits": 2.4, "profitable": 2.3, "growth": 2.1, "gain": 2.2, "jump": 2.2,
	"strong": 2.1, "boost": 2.1, "success": 2.4, "successful": 2.4, "win": 2.3,
	"improve": 2.0, "rising": 1.9, "advance": 1.9, "climb": 1.9, "expansion": 1.8,
	"momentum": 1.7, "upside": 1.9, "favorable": 2.0, "recover": 1.8, "recovery": 1.8,
	"rebound": 1.9, "outpace": 2.0, "top": 1.4, "tops": 1.4, "raise": 1.5, "raises": 1.5,
	"dividend": 1.2, "buyback": 1.5, "approval": 2.0, "approve": 1.8, "approved": 1.9,

	// mild positive
	"positive": 2.0, "rise": 1.7, "higher": 1.5, "increase": 1.5, "better": 1.9,
	"good": 1.9, "solid": 1.6, "confident": 1.8, "opportunity": 1.6, "promising": 1.7,
	"attractive": 1.7, "resilient": 1.6, "steady": 1.1, "healthy": 1.6, "buy": 1.3,
	"outperformer": 2.0, "innovative": 1.5, "leader": 1.4, "robust": 1.6, "stable": 1.1,
	"up": 0.9, "great": 3.1, "best": 3.2, "excellent": 3.2, "win-win": 2.4,

	// strong negative
	"crash": -3.2, "plunge": -3.0, "collapse": -3.1, "devastate": -3.2, "catastrophic": -3.4,
	"disaster": -3.1, "crisis": -3.0, "bankruptcy": -3.0, "bankrupt": -3.0, "plummet": -3.0,
	"tumble": -2.7, "rout": -2.7, "panic": -2.7, "fraud": -3.0, "scandal": -2.8, "default": -2.3,
	"worst": -3.1,

	// moderate negative
	"bearish": -2.6, "downgrade": -2.4, "downgraded": -2.4, "warning": -2.1, "warn": -2.0,
	"lawsuit": -2.3, "probe": -1.9, "investigation": -1.7, "dispute": -1.8, "miss": -2.1,
	"misses": -2.1, "loss": -2.4, "losses": -2.4, "slump": -2.4, "decline": -2.0,
	"deteriorate": -2.3, "underperform": -2.2, "fail": -2.5, "failure": -2.6, "struggle": -2.0,
	"weak": -2.0, "weakness": -1.9, "drop": -1.9, "fall": -1.9, "sink": -2.1, "slide": -1.8,
	"concern": -1.6, "worry": -1.9, "disappoint": -2.2, "disappointing": -2.2, "uncertain": -1.4,
	"layoff": -2.2, "layoffs": -2.2, "recall": -1.8, "halt": -1.6, "delay": -1.4, "delist": -2.4,
	"selloff": -2.3, "sell-off": -2.3, "short": -1.0, "sue": -2.0, "sued": -2.0,

	// mild negative
	"problem": -1.7, "issue": -1.0, "risk": -1.1, "threat": -2.0, "volatile": -1.3,
	"uncertainty": -1.4, "doubt": -1.5, "pressure": -1.2, "challenge": -0.8, "difficult": -1.5,
	"hurt": -2.1, "lower": -1.2, "negative": -2.1, "poor": -2.1, "slow": -1.1, "slowdown": -1.6,
	"dip": -1.2, "slip": -1.3, "retreat": -1.2, "cautious": -0.9, "downside": -1.5,
	"correction": -1.1, "pullback": -1.2, "cut": -1.4, "cuts": -1.4, "drag": -1.2,
	"headwind": -1.4, "headwinds": -1.4, "down": -1.0, "bad": -2.5, "sell": -1.2,
}

// negation words flip and damp the valence of the next three tokens
var negations = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "none": {}, "nor": {}, "neither": {}, "without": {},
	"cannot": {}, "can't": {}, "don't": {}, "doesn't": {}, "didn't": {}, "isn't": {},
	"aren't": {}, "wasn't": {}, "weren't": {}, "won't": {}, "wouldn't": {}, "fails": {},
	"hardly": {}, "barely": {},
}

// boosters raise (+) or damp (-) the intensity of the following term
var boosters = map[string]float64{
	"very": boosterIncr, "sharply": boosterIncr, "strongly": boosterIncr, "massive": boosterIncr,
	"huge": boosterIncr, "record": boosterIncr, "significantly": boosterIncr, "extremely": boosterIncr,
	"most": boosterIncr, "more": boosterIncr, "steep": boosterIncr, "big": boosterIncr,
	"slightly": -boosterIncr, "somewhat": -boosterIncr, "marginally": -boosterIncr,
	"less": -boosterIncr, "little": -boosterIncr, "modestly": -boosterIncr,
}

// LexiconClassifier labels headlines from a finance valence lexicon.
// It is deterministic and never fails.
type LexiconClassifier struct{}

// NewLexiconClassifier creates a lexicon classifier
func NewLexiconClassifier() *LexiconClassifier {
	return &LexiconClassifier{}
}

// Name identifies the strategy
func (c *LexiconClassifier) Name() string {
	return "lexicon"
}

// Classify thresholds the compound score of title. Empty titles are neutral.
func (c *LexiconClassifier) Classify(ctx context.Context, title string) (models.Label, error) {
	return LabelForCompound(Compound(title)), nil
}

// LabelForCompound applies the positive/negative thresholds
func LabelForCompound(compound float64) models.Label {
	switch {
	case compound >= PositiveThreshold:
		return models.LabelPositive
	case compound <= NegativeThreshold:
		return models.LabelNegative
	}
	return models.LabelNeutral
}

// Compound returns the normalised polarity of text in [-1, 1]
func Compound(text string) float64 {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return 0
	}

	valences := make([]float64, len(tokens))
	for i, tok := range tokens {
		v, ok := valence(tok)
		if !ok {
			continue
		}
		// boosters within the three preceding tokens, fading with distance
		for d := 1; d <= 3 && i-d >= 0; d++ {
			b, ok := boosters[tokens[i-d]]
			if !ok {
				continue
			}
			scaled := b * (1 - 0.05*float64(d-1))
			if v < 0 {
				scaled = -scaled
			}
			v += scaled
		}
		for d := 1; d <= 3 && i-d >= 0; d++ {
			if _, ok := negations[tokens[i-d]]; ok {
				v *= negationScalar
				break
			}
		}
		valences[i] = v
	}

	// contrast: what follows "but" outweighs what precedes it
	for i, tok := range tokens {
		if tok != "but" {
			continue
		}
		for j := range valences {
			switch {
			case j < i:
				valences[j] *= 0.5
			case j > i:
				valences[j] *= 1.5
			}
		}
		break
	}

	sum := 0.0
	for _, v := range valences {
		sum += v
	}
	return normalize(sum)
}

func normalize(score float64) float64 {
	n := score / math.Sqrt(score*score+normAlpha)
	return math.Max(-1, math.Min(1, n))
}

func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, ".,!?\"'()[]{}:;`*$%")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// valence looks a token up, falling back to common inflections
func valence(tok string) (float64, bool) {
	if v, ok := lexicon[tok]; ok {
		return v, true
	}
	for _, suffix := range []string{"s", "es", "ed", "d", "ing"} {
		stem := strings.TrimSuffix(tok, suffix)
		if stem == tok || len(stem) < 3 {
			continue
		}
		if v, ok := lexicon[stem]; ok {
			return v, true
		}
		// rising -> rise, sliding -> slide
		if suffix == "ing" {
			if v, ok := lexicon[stem+"e"]; ok {
				return v, true
			}
		}
	}
	return 0, false
}

// Ensure LexiconClassifier implements Classifier
var _ interfaces.Classifier = (*LexiconClassifier)(nil)
