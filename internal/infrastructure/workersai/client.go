package workersai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/janhq/notes-mcp/internal/infrastructure/metrics"
)

const runPath = "/accounts/{account}/ai/run/{model}"

// ClientConfig holds the Workers AI binding.
type ClientConfig struct {
	BaseURL   string
	AccountID string
	APIToken  string
	Model     string
	Timeout   time.Duration
}

// Client runs text-to-image models on Workers AI.
type Client struct {
	http  *resty.Client
	model string
}

type runRequest struct {
	Prompt string `json:"prompt"`
	Steps  int    `json:"steps"`
}

type runResponse struct {
	Success *bool `json:"success"`
	Errors  []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
	Result struct {
		Image string `json:"image"`
	} `json:"result"`
}

func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetAuthToken(cfg.APIToken).
		SetHeader("User-Agent", "Notes-MCP/1.0").
		SetPathParam("account", cfg.AccountID).
		SetTimeout(timeout)
	return &Client{http: client, model: cfg.Model}
}

// GenerateImage returns the decoded image bytes produced for prompt.
func (c *Client) GenerateImage(ctx context.Context, prompt string, steps int) ([]byte, error) {
	var out runResponse
	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetRawPathParam("model", c.model).
		SetHeader("Content-Type", "application/json").
		SetBody(runRequest{Prompt: prompt, Steps: steps}).
		Post(runPath)
	metrics.RecordExternalProviderLatency("workersai", "text_to_image", time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("workers ai request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("workers ai error (%d): %s", resp.StatusCode(), resp.String())
	}
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("decode workers ai response: %w", err)
	}
	if out.Success != nil && !*out.Success {
		msgs := make([]string, 0, len(out.Errors))
		for _, e := range out.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, fmt.Errorf("workers ai reported failure: %s", strings.Join(msgs, "; "))
	}
	if out.Result.Image == "" {
		return nil, fmt.Errorf("workers ai returned no image")
	}

	data, err := base64.StdEncoding.DecodeString(out.Result.Image)
	if err != nil {
		return nil, fmt.Errorf("decode image payload: %w", err)
	}
	return data, nil
}
