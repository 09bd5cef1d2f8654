package interfaces

import (
	"context"

	"github.com/bobmcallan/finsent/internal/models"
)

// Classifier labels a single headline.
//
// A non-nil error means the label could not be obtained (for example a
// failed API call); the returned label is then models.LabelUnknown and the
// caller may retry. Unparseable replies are not errors: they classify as unknown.
type Classifier interface {
	// Classify returns the sentiment label of title
	Classify(ctx context.Context, title string) (models.Label, error)

	// Name identifies the strategy, e.g. "gemini" or "lexicon"
	Name() string
}
