package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedGenerateRequest struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		Temperature     float64 `json:"temperature"`
		TopK            float64 `json:"topK"`
		TopP            float64 `json:"topP"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

func TestGenerateContentSendsGenerationConfig(t *testing.T) {
	var captured capturedGenerateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "g-key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Roger."}]}}]}`))
	}))
	defer server.Close()

	text, err := NewGeminiClient(server.URL, server.Client()).GenerateContent(context.Background(), "g-key", "status?")
	require.NoError(t, err)

	assert.Equal(t, "Roger.", text)
	require.Len(t, captured.Contents, 1)
	require.Len(t, captured.Contents[0].Parts, 1)
	assert.Equal(t, "status?", captured.Contents[0].Parts[0].Text)
	assert.InDelta(t, 0.7, captured.GenerationConfig.Temperature, 1e-6)
	assert.InDelta(t, 40, captured.GenerationConfig.TopK, 1e-6)
	assert.InDelta(t, 0.95, captured.GenerationConfig.TopP, 1e-6)
	assert.Equal(t, 1024, captured.GenerationConfig.MaxOutputTokens)
}

func TestGenerateContentWithoutCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	text, err := NewGeminiClient(server.URL, nil).GenerateContent(context.Background(), "k", "hi")
	require.NoError(t, err)
	assert.Equal(t, "No response received.", text)
}

func TestGenerateContentReportsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`))
	}))
	defer server.Close()

	_, err := NewGeminiClient(server.URL, nil).GenerateContent(context.Background(), "bad", "hi")
	var apiErr *GeminiAPIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "API key not valid. Please pass a valid API key.", apiErr.Message)
}

func TestGenerateContentTransportFailureIsNotAnAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := server.URL
	server.Close()

	_, err := NewGeminiClient(serverURL, nil).GenerateContent(context.Background(), "k", "hi")
	require.Error(t, err)
	_, ok := isAPIError(err)
	assert.False(t, ok)
}

func TestCheckModelFallsBackToStatusText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-pro", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"status":"PERMISSION_DENIED"}}`))
	}))
	defer server.Close()

	err := NewGeminiClient(server.URL+"/", nil).CheckModel(context.Background(), "k")
	var apiErr *GeminiAPIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "Forbidden", apiErr.Message)
}

func TestCheckModelSucceeds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"models/gemini-pro"}`))
	}))
	defer server.Close()

	assert.NoError(t, NewGeminiClient(server.URL, nil).CheckModel(context.Background(), "k"))
}
