package sentiment

import (
	"testing"

	"github.com/bobmcallan/finsent/internal/models"
)

func TestParseReply(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  models.Label
	}{
		{"object", `{"label": "positive"}`, models.LabelPositive},
		{"object with whitespace", "  \n{\"label\": \" Negative \"}\n", models.LabelNegative},
		{"object prefix only", `{"label": "neutralish"}`, models.LabelNeutral},
		{"array first element", `[{"label": "negative"}, {"label": "positive"}]`, models.LabelNegative},
		{"raw text", "Positive.", models.LabelPositive},
		{"raw text negative", "neg", models.LabelNegative},
		{"empty", "", models.LabelUnknown},
		{"whitespace", "   ", models.LabelUnknown},
		{"malformed json", `{"label": "positive"`, models.LabelUnknown},
		{"empty array", `[]`, models.LabelUnknown},
		{"array of strings", `["positive"]`, models.LabelUnknown},
		{"missing label", `{"sentiment": "positive"}`, models.LabelUnknown},
		{"null label", `{"label": null}`, models.LabelUnknown},
		{"numeric label", `{"label": 1}`, models.LabelUnknown},
		{"unrecognised label", `{"label": "bullish"}`, models.LabelUnknown},
		{"unrecognised text", "I cannot rate this", models.LabelUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseReply(tt.reply); got != tt.want {
				t.Errorf("ParseReply(%q) = %q, want %q", tt.reply, got, tt.want)
			}
		})
	}
}

func TestPrompt(t *testing.T) {
	if got := Prompt("Apple beats estimates"); got != "Title:\n- Apple beats estimates" {
		t.Errorf("Prompt = %q", got)
	}
}
