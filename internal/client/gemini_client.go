package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/genstudio/api/internal/config"
)

const videoRewriteSystemPrompt = `You rewrite prompts for a video generation model.
Expand the user's prompt into a single richly detailed video description:
subject, motion, camera work, lighting and mood. Keep the user's intent.
Return only the rewritten prompt, no commentary.`

// PromptRewriter defines the interface for prompt enhancement
type PromptRewriter interface {
	RewritePrompt(ctx context.Context, prompt string) (string, error)
}

// GeminiClient handles communication with the Gemini API for prompt rewriting
type GeminiClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string

	maxAttempts int
	baseBackoff time.Duration
}

type generateContentRequest struct {
	SystemInstruction *content  `json:"systemInstruction,omitempty"`
	Contents          []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// NewGeminiClient creates a new Gemini API client
func NewGeminiClient(cfg *config.GeminiConfig) *GeminiClient {
	return &GeminiClient{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxAttempts: 3,
		baseBackoff: 500 * time.Millisecond,
	}
}

// IsConfigured returns true if the client has valid configuration
func (c *GeminiClient) IsConfigured() bool {
	return c.apiKey != ""
}

// RewritePrompt enhances a video generation prompt. Transient API failures
// are retried with exponential backoff up to maxAttempts; when the client is
// not configured the original prompt is returned unchanged.
func (c *GeminiClient) RewritePrompt(ctx context.Context, prompt string) (string, error) {
	if !c.IsConfigured() {
		return prompt, nil
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		rewritten, retryable, err := c.generateContent(ctx, prompt)
		if err == nil {
			return rewritten, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		if attempt < c.maxAttempts {
			backoff := c.baseBackoff * time.Duration(1<<(attempt-1))
			log.Printf("[Gemini API] Rewrite attempt %d/%d failed, retrying in %v: %v", attempt, c.maxAttempts, backoff, err)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return "", fmt.Errorf("prompt rewrite failed: %w", lastErr)
}

// generateContent performs one rewrite call. The second return value reports
// whether the failure class is worth retrying (network errors, 429, 5xx).
func (c *GeminiClient) generateContent(ctx context.Context, prompt string) (string, bool, error) {
	reqBody := generateContentRequest{
		SystemInstruction: &content{Parts: []part{{Text: videoRewriteSystemPrompt}}},
		Contents: []content{
			{Role: "user", Parts: []part{{Text: prompt}}},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", false, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return "", retryable, fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var genResp generateContentResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return "", false, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", false, fmt.Errorf("no candidates in response")
	}

	rewritten := strings.TrimSpace(genResp.Candidates[0].Content.Parts[0].Text)
	if rewritten == "" {
		return "", false, fmt.Errorf("empty rewrite result")
	}
	return rewritten, false, nil
}
