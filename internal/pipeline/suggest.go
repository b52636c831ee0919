package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// SuggestModelName is the model used for header-mapping suggestions.
const SuggestModelName = "gemini-2.0-flash"

// SuggestAliases asks the model which export headers likely correspond
// to the given unresolved logical fields. It is an offline helper for
// operators facing a new export schema: the suggested aliases are
// reviewed by a human and added to the alias table by hand. The
// deterministic parse path never calls this.
func SuggestAliases(ctx context.Context, headers, missing []string) (map[string]string, error) {
	if len(missing) == 0 {
		return map[string]string{}, nil
	}

	prompt :=
		"You are helping map CSV export headers from a property accounting system\n" +
			"to known logical fields.\n\n" +
			"Logical fields that could not be resolved:\n" +
			"- " + strings.Join(missing, "\n- ") + "\n\n" +
			"Headers present in the export file:\n" +
			"- " + strings.Join(headers, "\n- ") + "\n\n" +
			"Return STRICT JSON only: a single object mapping each logical field to\n" +
			"the most plausible header, omitting fields with no plausible header.\n" +
			"Do NOT wrap the response in code fences or Markdown.\n"

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("SuggestAliases: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, SuggestModelName, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("SuggestAliases: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("SuggestAliases: empty response from model")
	}

	clean := cleanModelJSON(rawText)

	var mapping map[string]string
	if err := json.Unmarshal([]byte(clean), &mapping); err != nil {
		return nil, fmt.Errorf("SuggestAliases: unmarshal JSON: %w\nraw response: %s", err, rawText)
	}
	return mapping, nil
}

// cleanModelJSON strips Markdown fences and surrounding junk when the
// model ignores the formatting instructions.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
