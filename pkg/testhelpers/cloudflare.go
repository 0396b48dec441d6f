package testhelpers

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// CloudflareRequest is a request captured by the fake API.
type CloudflareRequest struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   map[string]any
}

// Cloudflare fakes the AutoRAG and Workers AI endpoints used by the service.
type Cloudflare struct {
	Server *httptest.Server

	mu         sync.Mutex
	requests   []CloudflareRequest
	searchData []map[string]any
	answer     string
	jobs       []map[string]any
	syncResult any
	image      []byte
	failStatus int
	bare       bool
}

// NewCloudflare starts the fake API. Paths mirror the real v4 API under /client/v4.
func NewCloudflare(t *testing.T) *Cloudflare {
	t.Helper()
	c := &Cloudflare{}
	c.Server = httptest.NewServer(http.HandlerFunc(c.handle))
	t.Cleanup(c.Server.Close)
	return c
}

// BaseURL is the value to use for CLOUDFLARE_API_BASE_URL.
func (c *Cloudflare) BaseURL() string { return c.Server.URL + "/client/v4" }

// SetSearchData sets the hits returned by search and ai-search.
func (c *Cloudflare) SetSearchData(data []map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.searchData = data
}

// SetSyncResult overrides the result of the sync endpoint.
func (c *Cloudflare) SetSyncResult(result any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncResult = result
}

// SetAnswer sets the generated answer of ai-search.
func (c *Cloudflare) SetAnswer(answer string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.answer = answer
}

// SetJobs sets the indexing jobs list.
func (c *Cloudflare) SetJobs(jobs []map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jobs = jobs
}

// SetImage sets the image bytes returned by the model run endpoint.
func (c *Cloudflare) SetImage(image []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.image = image
}

// Fail makes every endpoint answer with status.
func (c *Cloudflare) Fail(status int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failStatus = status
}

// UseBareResponses drops the {success,result} envelope from search responses.
func (c *Cloudflare) UseBareResponses() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bare = true
}

// Requests returns the captured requests.
func (c *Cloudflare) Requests() []CloudflareRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]CloudflareRequest(nil), c.requests...)
}

// LastRequest returns the most recent request, or the zero value.
func (c *Cloudflare) LastRequest() CloudflareRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.requests) == 0 {
		return CloudflareRequest{}
	}
	return c.requests[len(c.requests)-1]
}

func (c *Cloudflare) handle(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &body)
	}

	c.mu.Lock()
	c.requests = append(c.requests, CloudflareRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Auth:   r.Header.Get("Authorization"),
		Body:   body,
	})
	failStatus, bare := c.failStatus, c.bare
	data, answer, jobs, image, syncResult := c.searchData, c.answer, c.jobs, c.image, c.syncResult
	c.mu.Unlock()

	if failStatus != 0 {
		writeJSON(w, failStatus, map[string]any{
			"success": false,
			"errors":  []map[string]any{{"code": 7000 + failStatus, "message": "fake failure"}},
		})
		return
	}
	if data == nil {
		data = []map[string]any{}
	}

	path := r.URL.Path
	switch {
	case strings.HasSuffix(path, "/ai-search") && r.Method == http.MethodPost:
		result := map[string]any{"object": "vector_store.search_results.page", "response": answer, "data": data}
		c.writeResult(w, result, bare)
	case strings.HasSuffix(path, "/search") && r.Method == http.MethodPost:
		result := map[string]any{"object": "vector_store.search_results.page", "data": data, "has_more": false}
		c.writeResult(w, result, bare)
	case strings.HasSuffix(path, "/sync") && r.Method == http.MethodPatch:
		if syncResult == nil {
			syncResult = map[string]any{"job_id": "job-new"}
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "result": syncResult})
	case strings.HasSuffix(path, "/jobs") && r.Method == http.MethodGet:
		if jobs == nil {
			jobs = []map[string]any{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "result": jobs})
	case strings.Contains(path, "/ai/run/") && r.Method == http.MethodPost:
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"result":  map[string]any{"image": base64.StdEncoding.EncodeToString(image)},
		})
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "errors": []map[string]any{{"code": 404, "message": "no route"}}})
	}
}

func (c *Cloudflare) writeResult(w http.ResponseWriter, result map[string]any, bare bool) {
	if bare {
		writeJSON(w, http.StatusOK, result)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "result": result})
}
