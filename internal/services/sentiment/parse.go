package sentiment

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bobmcallan/finsent/internal/models"
)

// ParseReply reads a model reply permissively. Text that opens like JSON
// must decode as an object with a label field or an array whose first
// element is one; any other text is taken as the label itself. Anything
// that cannot be read yields LabelUnknown.
func ParseReply(reply string) models.Label {
	trimmed := strings.TrimSpace(reply)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return NormalizeLabel(reply)
	}

	var parsed interface{}
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		return models.LabelUnknown
	}

	switch v := parsed.(type) {
	case map[string]interface{}:
		return NormalizeLabel(labelField(v))
	case []interface{}:
		if len(v) == 0 {
			return models.LabelUnknown
		}
		first, ok := v[0].(map[string]interface{})
		if !ok {
			return models.LabelUnknown
		}
		return NormalizeLabel(labelField(first))
	}
	return models.LabelUnknown
}

func labelField(obj map[string]interface{}) string {
	raw, ok := obj["label"]
	if !ok || raw == nil {
		return ""
	}
	if s, ok := raw.(string); ok {
		return s
	}
	return fmt.Sprint(raw)
}

// NormalizeLabel maps a free-form label onto the label set by prefix:
// pos, neg or neu. Anything else is LabelUnknown.
func NormalizeLabel(label string) models.Label {
	label = strings.ToLower(strings.TrimSpace(label))
	switch {
	case strings.HasPrefix(label, "pos"):
		return models.LabelPositive
	case strings.HasPrefix(label, "neg"):
		return models.LabelNegative
	case strings.HasPrefix(label, "neu"):
		return models.LabelNeutral
	}
	return models.LabelUnknown
}
