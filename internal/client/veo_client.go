package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/genstudio/api/internal/config"
)

// VideoGenerator defines the interface for video generation operations.
// GenerateVideos blocks until the model finishes or the context expires.
type VideoGenerator interface {
	GenerateVideos(ctx context.Context, req *GenerateVideosRequest) (*GenerateVideosResult, error)
}

// VeoClient implements VideoGenerator against the Veo long-running
// operations API: start an operation, then poll it until done.
type VeoClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	outputURI  string

	pollInterval time.Duration
	maxWait      time.Duration
}

// GenerateVideosRequest represents the request for video generation
type GenerateVideosRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negativePrompt,omitempty"`
	AspectRatio    string `json:"aspectRatio"`
	SampleCount    int    `json:"sampleCount"`
	DurationSecs   int    `json:"durationSeconds"`
	GenerateAudio  bool   `json:"generateAudio"`
	OutputURI      string `json:"outputGcsUri,omitempty"`
}

// GenerateVideosResult represents a finished generation operation
type GenerateVideosResult struct {
	VideoURIs []string `json:"videoUris"`
}

type startOperationResponse struct {
	Name string `json:"name"`
	Done bool   `json:"done"`
}

type operationStatusResponse struct {
	Name  string `json:"name"`
	Done  bool   `json:"done"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
	Response *struct {
		Videos []struct {
			URI string `json:"gcsUri"`
		} `json:"videos"`
	} `json:"response,omitempty"`
}

// NewVeoClient creates a new Veo API client
func NewVeoClient(cfg *config.VeoConfig) *VeoClient {
	return &VeoClient{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		outputURI:    cfg.OutputURI,
		pollInterval: 10 * time.Second,
		maxWait:      15 * time.Minute,
	}
}

// IsConfigured returns true if the client has valid configuration
func (c *VeoClient) IsConfigured() bool {
	return c.apiKey != ""
}

// GenerateVideos starts a generation operation and polls it to completion.
// Timeout policy lives here, not in the caller: maxWait bounds the poll loop
// and the per-request timeout bounds each HTTP round-trip.
func (c *VeoClient) GenerateVideos(ctx context.Context, req *GenerateVideosRequest) (*GenerateVideosResult, error) {
	if req.OutputURI == "" {
		req.OutputURI = c.outputURI
	}

	endpoint := fmt.Sprintf("/v1/models/%s:generateVideos", req.Model)
	var started startOperationResponse
	if err := c.post(ctx, endpoint, req, &started); err != nil {
		return nil, fmt.Errorf("failed to start video generation: %w", err)
	}

	return c.pollOperation(ctx, started.Name)
}

func (c *VeoClient) pollOperation(ctx context.Context, name string) (*GenerateVideosResult, error) {
	deadline := time.Now().Add(c.maxWait)
	attempt := 0

	for time.Now().Before(deadline) {
		attempt++

		var status operationStatusResponse
		if err := c.get(ctx, fmt.Sprintf("/v1/%s", name), &status); err != nil {
			return nil, err
		}

		log.Printf("[Veo API] Poll #%d (operation=%s) — done: %v", attempt, name, status.Done)

		if status.Done {
			if status.Error != nil {
				return nil, fmt.Errorf("video generation failed: %s (code %d)", status.Error.Message, status.Error.Code)
			}
			if status.Response == nil || len(status.Response.Videos) == 0 {
				return nil, fmt.Errorf("video generation produced no output")
			}
			result := &GenerateVideosResult{}
			for _, v := range status.Response.Videos {
				if v.URI != "" {
					result.VideoURIs = append(result.VideoURIs, v.URI)
				}
			}
			if len(result.VideoURIs) == 0 {
				return nil, fmt.Errorf("video generation produced no usable output")
			}
			return result, nil
		}

		select {
		case <-ctx.Done():
			log.Printf("[Veo API] Poll (operation=%s) — context cancelled", name)
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
			continue
		}
	}

	return nil, fmt.Errorf("video generation timed out after %v", c.maxWait)
}

// post sends a POST request with JSON body
func (c *VeoClient) post(ctx context.Context, endpoint string, body interface{}, result interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.doRequest(req, result)
}

// get sends a GET request and parses JSON response
func (c *VeoClient) get(ctx context.Context, endpoint string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.doRequest(req, result)
}

// doRequest executes an HTTP request and parses the response
func (c *VeoClient) doRequest(req *http.Request, result interface{}) error {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[Veo API] ✗ %s %s — request failed: %v", req.Method, req.URL.Path, err)
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("veo API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}
