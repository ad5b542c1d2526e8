package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

const (
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	defaultChatModel     = "gemini-1.5-flash"
	defaultProbeModel    = "gemini-pro"
	noResponseText       = "No response received."
)

// GeminiAPIError is a non-2xx answer from the Gemini API.
type GeminiAPIError struct {
	StatusCode int
	Message    string
}

func (e *GeminiAPIError) Error() string {
	return e.Message
}

// GeminiClient calls the Gemini generateContent and model endpoints with a caller-supplied key.
type GeminiClient struct {
	BaseURL    string
	ChatModel  string
	ProbeModel string
	client     *http.Client
}

// NewGeminiClient creates a Gemini client; a nil httpClient uses http.DefaultClient.
func NewGeminiClient(baseURL string, httpClient *http.Client) *GeminiClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &GeminiClient{
		BaseURL:    baseURL,
		ChatModel:  defaultChatModel,
		ProbeModel: defaultProbeModel,
		client:     httpClient,
	}
}

// sdkClient builds a genai client per call because every request carries the operator's own key.
func (c *GeminiClient) sdkClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  c.client,
		HTTPOptions: genai.HTTPOptions{BaseURL: c.BaseURL + "/"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return client, nil
}

// GenerateContent sends one user message and returns the first candidate's text.
func (c *GeminiClient) GenerateContent(ctx context.Context, apiKey, message string) (string, error) {
	client, err := c.sdkClient(ctx, apiKey)
	if err != nil {
		return "", err
	}
	resp, err := client.Models.GenerateContent(ctx, c.ChatModel, genai.Text(message), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.7),
		TopK:            genai.Ptr[float32](40),
		TopP:            genai.Ptr[float32](0.95),
		MaxOutputTokens: 1024,
	})
	if err != nil {
		return "", translateGeminiError(err)
	}
	text := resp.Text()
	if text == "" {
		return noResponseText, nil
	}
	return text, nil
}

// CheckModel fetches the probe model's metadata to verify the key.
func (c *GeminiClient) CheckModel(ctx context.Context, apiKey string) error {
	client, err := c.sdkClient(ctx, apiKey)
	if err != nil {
		return err
	}
	if _, err := client.Models.Get(ctx, c.ProbeModel, nil); err != nil {
		return translateGeminiError(err)
	}
	return nil
}

// translateGeminiError turns SDK API errors into GeminiAPIError and leaves transport failures wrapped.
func translateGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return newGeminiAPIError(apiErr)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return newGeminiAPIError(*apiErrPtr)
	}
	return fmt.Errorf("failed to send request: %w", err)
}

func newGeminiAPIError(apiErr genai.APIError) *GeminiAPIError {
	message := strings.TrimSpace(apiErr.Message)
	if message == "" {
		message = http.StatusText(apiErr.Code)
	}
	return &GeminiAPIError{StatusCode: apiErr.Code, Message: message}
}

func isAPIError(err error) (*GeminiAPIError, bool) {
	var apiErr *GeminiAPIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
