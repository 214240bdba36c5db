package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/tidwall/gjson"

	"github.com/yourorg/wanderplan/internal/apperr"
	"github.com/yourorg/wanderplan/internal/models"
)

const defaultModel = "gpt-4o-mini"

const systemPrompt = `You plan walking and driving days for travellers.
You receive one day of a trip as JSON: a list of stops with id, title, lat, lng, type and optional start_at.
Reorder the stops to minimise total travel while keeping meal and event times plausible.
Answer with a single JSON object and nothing else:
{"optimizedOrder": [<every id exactly once>], "explanation": "<two sentences for the traveller>"}`

// OpenAI asks a chat-completion model for an order.
type OpenAI struct {
	client openai.Client
	model  string
}

// NewOpenAI builds the provider. baseURL may be empty for the public API.
// The SDK's own retries are disabled.
func NewOpenAI(apiKey, model, baseURL string, opts ...option.RequestOption) *OpenAI {
	if model == "" {
		model = defaultModel
	}
	all := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(45 * time.Second),
	}
	if baseURL != "" {
		all = append(all, option.WithBaseURL(baseURL))
	}
	all = append(all, opts...)
	return &OpenAI{client: openai.NewClient(all...), model: model}
}

func (o *OpenAI) Suggest(ctx context.Context, req Request) (models.OptimizationSuggestion, error) {
	stops := Stops(req.Items)
	if len(stops) == 0 {
		return models.OptimizationSuggestion{}, apperr.Invalid("items", "no item has valid coordinates")
	}
	located := make([]Item, 0, len(stops))
	for _, it := range req.Items {
		if it.Located() {
			located = append(located, it)
		}
	}
	payload, err := json.Marshal(Request{Items: located, DayDate: req.DayDate})
	if err != nil {
		return models.OptimizationSuggestion{}, &apperr.OptimizerError{Err: err}
	}

	start := time.Now()
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(string(payload)),
		},
		Temperature: openai.Float(0.2),
	})
	if err != nil {
		return models.OptimizationSuggestion{}, mapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return models.OptimizationSuggestion{}, &apperr.OptimizerError{Message: "model returned no choices"}
	}
	log.Printf("[ADVISOR] openai model=%s stops=%d in %dms", o.model, len(stops), time.Since(start).Milliseconds())

	order, explanation, err := parseAnswer(resp.Choices[0].Message.Content)
	if err != nil {
		return models.OptimizationSuggestion{}, &apperr.OptimizerError{Message: "unusable model answer", Err: err}
	}
	savings, err := Estimate(stops, order)
	if err != nil {
		return models.OptimizationSuggestion{}, &apperr.OptimizerError{Message: "unusable model answer", Err: err}
	}
	return models.OptimizationSuggestion{
		OptimizedOrder: order,
		Explanation:    explanation,
		Savings:        savings,
	}, nil
}

// parseAnswer extracts the JSON object from the model output, tolerating
// code fences and surrounding prose.
func parseAnswer(content string) ([]string, string, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, "", errors.New("no JSON object in answer")
	}
	raw := content[start : end+1]
	if !gjson.Valid(raw) {
		return nil, "", errors.New("answer is not valid JSON")
	}
	ids := gjson.Get(raw, "optimizedOrder")
	if !ids.IsArray() {
		return nil, "", errors.New("answer has no optimizedOrder array")
	}
	order := make([]string, 0, len(ids.Array()))
	for _, v := range ids.Array() {
		order = append(order, v.String())
	}
	return order, strings.TrimSpace(gjson.Get(raw, "explanation").String()), nil
}

// mapOpenAIError turns SDK errors into advisor outcomes. OpenAI reports an
// exhausted quota as 429 with code insufficient_quota.
func mapOpenAIError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return &apperr.OptimizerError{Err: err}
	}
	log.Printf("⚠️ [ADVISOR] openai status=%d code=%s", apiErr.StatusCode, apiErr.Code)
	switch {
	case apiErr.StatusCode == http.StatusPaymentRequired || apiErr.Code == "insufficient_quota" ||
		strings.Contains(apiErr.Error(), "insufficient_quota"):
		return &apperr.QuotaExceededError{Message: apiErr.Message}
	case apiErr.StatusCode == http.StatusTooManyRequests:
		return &apperr.RateLimitedError{Message: apiErr.Message}
	default:
		return &apperr.OptimizerError{Status: apiErr.StatusCode, Message: fmt.Sprintf("openai: %s", apiErr.Message)}
	}
}
