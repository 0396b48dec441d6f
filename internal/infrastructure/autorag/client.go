package autorag

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/janhq/notes-mcp/internal/domain/search"
	"github.com/janhq/notes-mcp/internal/infrastructure/metrics"
)

const (
	searchPath   = "/accounts/{account}/autorag/rags/{rag}/search"
	aiSearchPath = "/accounts/{account}/autorag/rags/{rag}/ai-search"
	syncPath     = "/accounts/{account}/autorag/rags/{rag}/sync"
	jobsPath     = "/accounts/{account}/autorag/rags/{rag}/jobs"

	providerName = "autorag"
)

// ClientConfig holds the managed search binding.
type ClientConfig struct {
	BaseURL   string
	AccountID string
	APIToken  string
	RAGName   string
	Timeout   time.Duration
}

// Client talks to the Cloudflare AutoRAG REST API.
type Client struct {
	http *resty.Client
}

type rankingOptions struct {
	ScoreThreshold float64 `json:"score_threshold"`
}

type searchBody struct {
	Query          string         `json:"query"`
	MaxNumResults  int            `json:"max_num_results"`
	RankingOptions rankingOptions `json:"ranking_options"`
	Filters        search.Filter  `json:"filters"`
	RewriteQuery   bool           `json:"rewrite_query"`
}

type apiMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// envelope accepts both the wrapped {success, result:{...}} shape and a bare payload.
type envelope struct {
	Success  *bool            `json:"success"`
	Errors   []apiMessage     `json:"errors"`
	Result   json.RawMessage  `json:"result"`
	Data     []map[string]any `json:"data"`
	Response string           `json:"response"`
}

type searchPayload struct {
	Data     []map[string]any `json:"data"`
	Response string           `json:"response"`
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
		SetPathParams(map[string]string{
			"account": cfg.AccountID,
			"rag":     cfg.RAGName,
		}).
		SetTimeout(timeout)
	return &Client{http: client}
}

// Search runs a filtered vector search.
func (c *Client) Search(ctx context.Context, req search.Request) ([]search.Result, error) {
	payload, err := c.query(ctx, "search", searchPath, req)
	if err != nil {
		return nil, err
	}
	return toResults(payload.Data), nil
}

// AISearch asks for a generated answer grounded on the filtered hits.
func (c *Client) AISearch(ctx context.Context, req search.Request) (*search.AIAnswer, error) {
	payload, err := c.query(ctx, "ai_search", aiSearchPath, req)
	if err != nil {
		return nil, err
	}
	return &search.AIAnswer{
		Answer:  payload.Response,
		Sources: toResults(payload.Data),
	}, nil
}

// LatestJob returns the most recent indexing job, or nil when none exist.
func (c *Client) LatestJob(ctx context.Context) (*search.Job, error) {
	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("per_page", "1").
		Get(jobsPath)
	metrics.RecordExternalProviderLatency(providerName, "jobs", time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("autorag jobs request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("autorag jobs error (%d): %s", resp.StatusCode(), resp.String())
	}

	env, err := decodeEnvelope(resp.Body())
	if err != nil {
		return nil, err
	}
	var jobs []search.Job
	if len(env.Result) > 0 && string(env.Result) != "null" {
		if err := json.Unmarshal(env.Result, &jobs); err != nil {
			return nil, fmt.Errorf("decode autorag jobs: %w", err)
		}
	}
	if len(jobs) == 0 {
		return nil, nil
	}
	return &jobs[0], nil
}

// Sync starts a re-index of the bucket.
func (c *Client) Sync(ctx context.Context) (*search.Job, error) {
	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		Patch(syncPath)
	metrics.RecordExternalProviderLatency(providerName, "sync", time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("autorag sync request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("autorag sync error (%d): %s", resp.StatusCode(), resp.String())
	}

	env, err := decodeEnvelope(resp.Body())
	if err != nil {
		return nil, err
	}
	var started struct {
		JobID string `json:"job_id"`
	}
	if len(env.Result) > 0 && string(env.Result) != "null" {
		if err := json.Unmarshal(env.Result, &started); err != nil {
			return nil, fmt.Errorf("decode autorag sync result: %w", err)
		}
	}
	return &search.Job{ID: started.JobID}, nil
}

func (c *Client) query(ctx context.Context, operation, path string, req search.Request) (*searchPayload, error) {
	body := searchBody{
		Query:          req.Query,
		MaxNumResults:  req.MaxResults,
		RankingOptions: rankingOptions{ScoreThreshold: req.ScoreThreshold},
		Filters:        req.Filter,
		RewriteQuery:   false,
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(path)
	duration := time.Since(start)
	metrics.RecordExternalProviderLatency(providerName, operation, duration.Seconds())
	if err != nil {
		return nil, fmt.Errorf("autorag %s request failed: %w", operation, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("autorag %s error (%d): %s", operation, resp.StatusCode(), resp.String())
	}

	env, err := decodeEnvelope(resp.Body())
	if err != nil {
		return nil, err
	}

	payload := &searchPayload{Data: env.Data, Response: env.Response}
	if len(env.Result) > 0 && string(env.Result) != "null" {
		if err := json.Unmarshal(env.Result, payload); err != nil {
			return nil, fmt.Errorf("decode autorag %s result: %w", operation, err)
		}
	}

	log.Debug().
		Str("operation", operation).
		Int("results", len(payload.Data)).
		Int64("duration_ms", duration.Milliseconds()).
		Msg("autorag query completed")
	return payload, nil
}

func decodeEnvelope(raw []byte) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode autorag response: %w", err)
	}
	if env.Success != nil && !*env.Success {
		msgs := make([]string, 0, len(env.Errors))
		for _, e := range env.Errors {
			msgs = append(msgs, fmt.Sprintf("%d: %s", e.Code, e.Message))
		}
		return nil, fmt.Errorf("autorag reported failure: %s", strings.Join(msgs, "; "))
	}
	return &env, nil
}

func toResults(data []map[string]any) []search.Result {
	results := make([]search.Result, 0, len(data))
	for _, item := range data {
		results = append(results, search.Result(item))
	}
	return results
}
