package sentiment

import (
	"context"

	"github.com/bobmcallan/finsent/internal/interfaces"
	"github.com/bobmcallan/finsent/internal/models"
)

// SystemPrompt instructs the model to rate one headline
const SystemPrompt = "You are a precise financial headline sentiment rater. " +
	"For each given title, return STRICT JSON with fields: " +
	"{\"label\": \"positive|neutral|negative\"}. " +
	"Base the label on the likely short-term price reaction for the mentioned stock."

// Prompt formats the user turn for a headline
func Prompt(title string) string {
	return "Title:\n- " + title
}

// RemoteClassifier labels headlines with a hosted language model
type RemoteClassifier struct {
	client interfaces.LLMClient
	name   string
}

// NewRemoteClassifier wraps client; name identifies the provider, e.g. "gemini"
func NewRemoteClassifier(client interfaces.LLMClient, name string) *RemoteClassifier {
	return &RemoteClassifier{
		client: client,
		name:   name,
	}
}

// Name identifies the strategy
func (c *RemoteClassifier) Name() string {
	return c.name
}

// Classify asks the model for a label. A failed call returns LabelUnknown and
// the error; an unreadable reply returns LabelUnknown and no error.
func (c *RemoteClassifier) Classify(ctx context.Context, title string) (models.Label, error) {
	reply, err := c.client.GenerateJSON(ctx, SystemPrompt, Prompt(title))
	if err != nil {
		return models.LabelUnknown, err
	}
	return ParseReply(reply), nil
}

// Ensure RemoteClassifier implements Classifier
var _ interfaces.Classifier = (*RemoteClassifier)(nil)
