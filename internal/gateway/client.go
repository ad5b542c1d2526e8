package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4.1-mini"

// Completer sends a system prompt and user text to a chat model and returns the reply text.
// An empty apiKey means the completer's own key.
type Completer interface {
	Complete(ctx context.Context, system, user, apiKey string) (string, error)
}

type chatCompletions interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// OpenAIConfig configures the OpenAI chat completions client.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// OpenAICompleter calls the OpenAI chat completions API at temperature 0 without retries.
type OpenAICompleter struct {
	completions chatCompletions
	model       string
	apiKey      string
}

// NewOpenAICompleter builds a completer. The server key may be empty when every call supplies its own.
func NewOpenAICompleter(cfg OpenAIConfig) *OpenAICompleter {
	opts := []option.RequestOption{
		option.WithMaxRetries(0),
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	client := openai.NewClient(opts...)
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	return &OpenAICompleter{
		completions: &client.Chat.Completions,
		model:       model,
		apiKey:      apiKey,
	}
}

// Complete implements Completer.
func (c *OpenAICompleter) Complete(ctx context.Context, system, user, apiKey string) (string, error) {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		key = c.apiKey
	}
	if key == "" {
		return "", ErrGatewayDisabled
	}

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(0),
	}
	completion, err := c.completions.New(ctx, params, option.WithAPIKey(key))
	if err != nil {
		return "", providerError(err)
	}
	if completion == nil || len(completion.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}

func providerError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		message := strings.TrimSpace(apiErr.Message)
		if message == "" {
			message = http.StatusText(apiErr.StatusCode)
		}
		return &ProviderError{StatusCode: apiErr.StatusCode, Message: message, Err: err}
	}
	return &ProviderError{Message: err.Error(), Err: err}
}
