package gemini

import (
	"context"
	"testing"

	"google.golang.org/genai"
)

func TestExtractTextFromResponse_JoinsParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: `{"label":`},
				{Text: `"positive"}`},
			}},
		}},
	}

	text := extractTextFromResponse(resp)
	if text != `{"label":"positive"}` {
		t.Errorf("text = %q, want joined parts", text)
	}
}

func TestExtractTextFromResponse_Empty(t *testing.T) {
	cases := map[string]*genai.GenerateContentResponse{
		"nil":           nil,
		"no candidates": {},
		"nil content":   {Candidates: []*genai.Candidate{{}}},
		"no parts":      {Candidates: []*genai.Candidate{{Content: &genai.Content{}}}},
	}
	for name, resp := range cases {
		if text := extractTextFromResponse(resp); text != "" {
			t.Errorf("%s: text = %q, want empty", name, text)
		}
	}
}

func TestNewClient_Options(t *testing.T) {
	c, err := NewClient(context.Background(), "test-key",
		WithModel("gemini-test"),
		WithRateLimit(120),
		WithBaseURL("http://127.0.0.1:1"),
	)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if c.Model() != "gemini-test" {
		t.Errorf("Model() = %q, want gemini-test", c.Model())
	}

	// empty model keeps the default
	d, err := NewClient(context.Background(), "test-key", WithModel(""))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if d.Model() != DefaultModel {
		t.Errorf("Model() = %q, want %q", d.Model(), DefaultModel)
	}
}
