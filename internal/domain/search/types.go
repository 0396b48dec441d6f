package search

import (
	"context"
	"strings"

	"github.com/janhq/notes-mcp/internal/domain/identity"
	"github.com/janhq/notes-mcp/internal/domain/note"
)

// Request is what the façade sends to the managed search service.
type Request struct {
	Query          string
	MaxResults     int
	ScoreThreshold float64
	Filter         Filter
}

// Result is one search hit, kept as the service returned it.
type Result map[string]any

// Filename returns the object key of the hit.
func (r Result) Filename() string {
	if name, ok := r["filename"].(string); ok {
		return name
	}
	return ""
}

// Attributes returns the indexed attributes of the hit.
func (r Result) Attributes() map[string]any {
	if attrs, ok := r["attributes"].(map[string]any); ok {
		return attrs
	}
	return nil
}

// AIAnswer is a generated answer plus the hits it was grounded on.
type AIAnswer struct {
	Answer  string
	Sources []Result
}

// Job is an indexing job of the search service.
type Job struct {
	ID        string `json:"id"`
	Source    string `json:"source,omitempty"`
	StartedAt string `json:"started_at,omitempty"`
	EndedAt   string `json:"ended_at,omitempty"`
	EndReason string `json:"end_reason,omitempty"`
}

// Running reports whether the job has not ended yet.
func (j *Job) Running() bool {
	return j != nil && j.ID != "" && strings.TrimSpace(j.EndedAt) == ""
}

// Client is the managed search service.
type Client interface {
	Search(ctx context.Context, req Request) ([]Result, error)
	AISearch(ctx context.Context, req Request) (*AIAnswer, error)
	LatestJob(ctx context.Context) (*Job, error)
	Sync(ctx context.Context) (*Job, error)
}

// TimeFilterView echoes the applied time bounds back to the caller.
type TimeFilterView struct {
	SinceDays *int   `json:"since_days,omitempty"`
	UntilDays *int   `json:"until_days,omitempty"`
	Since     string `json:"since,omitempty"`
	Until     string `json:"until,omitempty"`
}

// SimpleResult is returned by SearchSimple.
type SimpleResult struct {
	Query    string   `json:"query"`
	Results  []Result `json:"results"`
	Total    int      `json:"total"`
	Filtered int      `json:"filtered"`
}

// AdvancedResult is returned by SearchAdvanced.
type AdvancedResult struct {
	Query       string          `json:"query"`
	Results     []Result        `json:"results"`
	Total       int             `json:"total"`
	Filtered    int             `json:"filtered"`
	Enriched    int             `json:"enriched"`
	Fallback    bool            `json:"fallback"`
	FallbackErr string          `json:"fallback_reason,omitempty"`
	TimeFilter  *TimeFilterView `json:"time_filter,omitempty"`
}

// AIResult is returned by AISearch.
type AIResult struct {
	Query      string          `json:"query"`
	Answer     string          `json:"answer"`
	Sources    []Result        `json:"sources"`
	Total      int             `json:"total"`
	TimeFilter *TimeFilterView `json:"time_filter,omitempty"`
}

// SyncResult is returned by SyncIndex.
type SyncResult struct {
	Triggered      bool   `json:"triggered"`
	AlreadyRunning bool   `json:"already_running"`
	JobID          string `json:"job_id,omitempty"`
	Message        string `json:"message"`
}

// NoteReader is the part of the note store the façade uses for enrichment and fallback.
type NoteReader interface {
	Get(ctx context.Context, user *identity.User, id string) (*note.Sidecar, error)
	ListHeaders(ctx context.Context, user *identity.User, limit int) ([]note.Header, error)
}
