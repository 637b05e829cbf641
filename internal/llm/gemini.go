package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultGeminiEndpoint is the public Generative Language API base URL.
const DefaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta"

// GeminiClient calls the Gemini generateContent endpoint over HTTP.
type GeminiClient struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// GeminiOption configures a GeminiClient.
type GeminiOption func(*GeminiClient)

// WithEndpoint overrides the API base URL.
func WithEndpoint(endpoint string) GeminiOption {
	return func(g *GeminiClient) {
		if endpoint != "" {
			g.endpoint = strings.TrimRight(endpoint, "/")
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) GeminiOption {
	return func(g *GeminiClient) {
		if c != nil {
			g.client = c
		}
	}
}

// NewGeminiClient creates a Gemini client for the given model.
func NewGeminiClient(apiKey, model string, opts ...GeminiOption) *GeminiClient {
	g := &GeminiClient{
		apiKey:   apiKey,
		model:    model,
		endpoint: DefaultGeminiEndpoint,
		client:   &http.Client{Timeout: 120 * time.Second},
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Name returns the provider name.
func (g *GeminiClient) Name() string {
	return "gemini"
}

// Complete sends a single generateContent request. A non-200 answer is
// returned as a *ProviderError carrying the HTTP status.
func (g *GeminiClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = g.model
	}

	payload, err := json.Marshal(g.buildRequestBody(req))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.endpoint, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{
			Provider: g.Name(),
			Code:     resp.StatusCode,
			Message:  geminiErrorMessage(body),
		}
	}

	var result geminiResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	out := result.toCompletion()
	out.Model = model
	out.Duration = time.Since(start)
	return out, nil
}

func (g *GeminiClient) buildRequestBody(req CompletionRequest) geminiRequest {
	body := geminiRequest{}

	system := req.System
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
		case RoleAssistant:
			body.Contents = append(body.Contents, geminiContent{Role: "model", Parts: []geminiPart{{Text: m.Content}}})
		default:
			body.Contents = append(body.Contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: m.Content}}})
		}
	}
	if system != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: system}}}
	}

	if req.Temperature != nil || req.MaxTokens > 0 {
		body.GenerationConfig = &geminiGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		}
	}
	return body
}

// geminiErrorMessage pulls error.message out of an API error body, falling
// back to the raw text.
func geminiErrorMessage(body []byte) string {
	var e struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return strings.TrimSpace(string(body))
}

type geminiRequest struct {
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

// toCompletion joins the text parts of the first candidate. A blocked
// prompt yields empty content with the block reason as stop reason.
func (r *geminiResponse) toCompletion() *CompletionResponse {
	out := &CompletionResponse{
		Usage: Usage{
			InputTokens:  r.UsageMetadata.PromptTokenCount,
			OutputTokens: r.UsageMetadata.CandidatesTokenCount,
		},
	}
	if len(r.Candidates) == 0 {
		out.StopReason = r.PromptFeedback.BlockReason
		return out
	}

	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	out.Content = sb.String()
	out.StopReason = r.Candidates[0].FinishReason
	return out
}
