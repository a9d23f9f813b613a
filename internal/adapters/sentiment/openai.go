package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"review_insights/internal/adapters/observability"
	"review_insights/internal/domain"
)

const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIClassifier uses the Responses API with a strict JSON schema so the
// answer always decodes into llmResponse.
type OpenAIClassifier struct {
	client *openai.Client
	model  string
	schema map[string]any
}

func NewOpenAIClassifier(apiKey, model string, opts ...option.RequestOption) (*OpenAIClassifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	schema, err := responseSchema()
	if err != nil {
		return nil, err
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	client := openai.NewClient(opts...)
	return &OpenAIClassifier{client: &client, model: model, schema: schema}, nil
}

// responseSchema reflects llmResponse into the strict form OpenAI expects:
// every object closed and every property required.
func responseSchema() (map[string]any, error) {
	r := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	b, err := json.Marshal(r.Reflect(&llmResponse{}))
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	delete(m, "$schema")
	delete(m, "$id")
	strictify(m)
	return m, nil
}

func strictify(node map[string]any) {
	if props, ok := node["properties"].(map[string]any); ok {
		node["additionalProperties"] = false
		req := make([]string, 0, len(props))
		for name, p := range props {
			req = append(req, name)
			if pm, ok := p.(map[string]any); ok {
				strictify(pm)
			}
		}
		node["required"] = req
	}
	if items, ok := node["items"].(map[string]any); ok {
		strictify(items)
	}
}

func (c *OpenAIClassifier) Classify(ctx context.Context, texts []string) ([]domain.Prediction, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	params := responses.ResponseNewParams{
		Model:           c.model,
		MaxOutputTokens: openai.Int(int64(64 + 48*len(texts))),
		Instructions:    openai.String(systemPrompt),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(buildUserPrompt(texts), responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:        "review_sentiment",
					Description: openai.String("Sentiment label and confidence per review"),
					Schema:      c.schema,
					Strict:      openai.Bool(true),
					Type:        "json_schema",
				},
			},
		},
	}

	start := time.Now()
	resp, err := c.client.Responses.New(ctx, params)
	if err != nil {
		observability.ObserveExternal("openai", "responses", 0, time.Since(start))
		return nil, fmt.Errorf("openai: %w", err)
	}
	observability.ObserveExternal("openai", "responses", 200, time.Since(start))
	return parseLLMResponse(resp.OutputText(), len(texts))
}
