package sentiment

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"review_insights/internal/domain"
)

const systemPrompt = `You are a sentiment classifier for mobile banking app reviews.
For every review you receive, decide whether it is POSITIVE or NEGATIVE and
how confident you are, as a number between 0 and 1.
Respond with JSON only: {"results":[{"index":0,"label":"POSITIVE","confidence":0.97}, ...]}
with exactly one result per review and the same indexes you were given.`

// llmResult is the structured output both LLM providers are asked for.
type llmResult struct {
	Index      int     `json:"index" jsonschema:"required,description=Zero-based index of the review"`
	Label      string  `json:"label" jsonschema:"required,enum=POSITIVE,enum=NEGATIVE"`
	Confidence float64 `json:"confidence" jsonschema:"required,minimum=0,maximum=1"`
}

type llmResponse struct {
	Results []llmResult `json:"results" jsonschema:"required"`
}

func buildUserPrompt(texts []string) string {
	var b strings.Builder
	b.WriteString("Classify these reviews:\n")
	for i, t := range texts {
		b.WriteString(strconv.Itoa(i))
		b.WriteString(": ")
		b.WriteString(strings.ReplaceAll(strings.TrimSpace(t), "\n", " "))
		b.WriteByte('\n')
	}
	return b.String()
}

var fenceRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// parseLLMResponse decodes a model answer into predictions ordered by index.
// It tolerates markdown fences around the JSON but requires every index once.
func parseLLMResponse(raw string, n int) ([]domain.Prediction, error) {
	s := strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	var resp llmResponse
	if err := json.Unmarshal([]byte(s), &resp); err != nil {
		return nil, fmt.Errorf("decode llm response: %w", err)
	}
	if len(resp.Results) != n {
		return nil, fmt.Errorf("llm returned %d results for %d texts", len(resp.Results), n)
	}
	out := make([]domain.Prediction, n)
	seen := make([]bool, n)
	for _, r := range resp.Results {
		if r.Index < 0 || r.Index >= n || seen[r.Index] {
			return nil, fmt.Errorf("llm result has bad or repeated index %d", r.Index)
		}
		seen[r.Index] = true
		out[r.Index] = domain.Prediction{Label: normalizeLabel(r.Label), Confidence: r.Confidence}
	}
	return out, nil
}
