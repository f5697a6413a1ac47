package extract

import (
	"context"
	"encoding/json"
	"fmt"

	"ftsomon/app/internal/models"

	openai "github.com/sashabaranov/go-openai"
)

const extractionInstruction = `You are given the text content of an FTSO provider monitoring page.
Identify these six quantities and return them as a JSON object with exactly these keys,
each a number between 0 and 100 (percent, without the % sign):
"availability_6h", "availability_24h",
"success_rate_6h_primary", "success_rate_6h_secondary",
"success_rate_24h_primary", "success_rate_24h_secondary".
Omit any key you cannot find. Return JSON only.`

// maxSemanticContent bounds how much page text is sent to the model.
const maxSemanticContent = 24000

// OpenAIClient implements SemanticClient on top of the OpenAI chat API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a semantic extraction client.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	if model == "" {
		model = openai.GPT4o
	}
	return &OpenAIClient{client: openai.NewClient(apiKey), model: model}
}

// semanticResponse tolerates both the flat key layout the instruction asks
// for and the nested success_rate objects the dashboard's own JSON uses.
type semanticResponse struct {
	Availability6h  *float64 `json:"availability_6h"`
	Availability24h *float64 `json:"availability_24h"`
	Success6hPri    *float64 `json:"success_rate_6h_primary"`
	Success6hSec    *float64 `json:"success_rate_6h_secondary"`
	Success24hPri   *float64 `json:"success_rate_24h_primary"`
	Success24hSec   *float64 `json:"success_rate_24h_secondary"`
	SuccessRate6h   *struct {
		Primary   *float64 `json:"primary"`
		Secondary *float64 `json:"secondary"`
	} `json:"success_rate_6h"`
	SuccessRate24h *struct {
		Primary   *float64 `json:"primary"`
		Secondary *float64 `json:"secondary"`
	} `json:"success_rate_24h"`
}

// ExtractFields asks the model for the six named quantities.
func (c *OpenAIClient) ExtractFields(ctx context.Context, content string) (map[string]float64, error) {
	if len(content) > maxSemanticContent {
		content = content[:maxSemanticContent]
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: extractionInstruction},
			{Role: openai.ChatMessageRoleUser, Content: content},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("semantic extraction request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("semantic extraction: empty response")
	}

	var parsed semanticResponse
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &parsed); err != nil {
		return nil, fmt.Errorf("semantic extraction response: %w", err)
	}

	fields := make(map[string]float64)
	put := func(name string, v *float64) {
		if v != nil {
			fields[name] = *v
		}
	}
	put(models.MetricAvailability6h, parsed.Availability6h)
	put(models.MetricAvailability24h, parsed.Availability24h)
	put(models.MetricSuccess6hPri, parsed.Success6hPri)
	put(models.MetricSuccess6hSec, parsed.Success6hSec)
	put(models.MetricSuccess24hPri, parsed.Success24hPri)
	put(models.MetricSuccess24hSec, parsed.Success24hSec)
	if parsed.SuccessRate6h != nil {
		put(models.MetricSuccess6hPri, parsed.SuccessRate6h.Primary)
		put(models.MetricSuccess6hSec, parsed.SuccessRate6h.Secondary)
	}
	if parsed.SuccessRate24h != nil {
		put(models.MetricSuccess24hPri, parsed.SuccessRate24h.Primary)
		put(models.MetricSuccess24hSec, parsed.SuccessRate24h.Secondary)
	}
	return fields, nil
}
