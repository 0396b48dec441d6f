package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/janhq/notes-mcp/internal/domain/identity"
	"github.com/janhq/notes-mcp/internal/domain/note"
	"github.com/janhq/notes-mcp/internal/utils/platformerrors"
)

const (
	// ScoreThreshold is the fixed minimum relevance sent with every query.
	ScoreThreshold = 0.3
	DefaultLimit   = 10
	MaxLimit       = 50
	// MaxDays bounds since_days and until_days to roughly a century.
	MaxDays = 36500

	// fallbackScanCap bounds the namespace listing used when search is unavailable.
	fallbackScanCap = 1000
)

// Service is the search façade over the managed search service.
type Service struct {
	client Client
	notes  NoteReader
	now    func() time.Time
	log    zerolog.Logger
}

// NewService creates the search façade.
func NewService(client Client, notes NoteReader) *Service {
	return &Service{
		client: client,
		notes:  notes,
		now:    func() time.Time { return time.Now().UTC() },
		log:    log.With().Str("component", "search").Logger(),
	}
}

// SearchSimple runs a tenant-scoped query and returns the hits verbatim, minus
// sidecar objects and anything outside the caller's namespace.
func (s *Service) SearchSimple(ctx context.Context, user *identity.User, query string, limit int) (*SimpleResult, error) {
	query, limit, err := validateQuery(ctx, user, query, limit)
	if err != nil {
		return nil, err
	}

	hits, err := s.client.Search(ctx, Request{
		Query:          query,
		MaxResults:     limit,
		ScoreThreshold: ScoreThreshold,
		Filter:         BuildUserFilter(user.Email),
	})
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal, "search service request failed", err, "")
	}

	kept, dropped := scopeResults(user, hits)
	return &SimpleResult{
		Query:    query,
		Results:  kept,
		Total:    len(kept),
		Filtered: dropped,
	}, nil
}

// SearchAdvanced adds a day-offset time window and sidecar enrichment. When the
// search service fails, it degrades to a title scan of the namespace listing.
func (s *Service) SearchAdvanced(ctx context.Context, user *identity.User, query string, limit int, sinceDays, untilDays *int) (*AdvancedResult, error) {
	query, limit, err := validateQuery(ctx, user, query, limit)
	if err != nil {
		return nil, err
	}
	tr, view, err := s.timeRange(ctx, sinceDays, untilDays)
	if err != nil {
		return nil, err
	}

	hits, searchErr := s.client.Search(ctx, Request{
		Query:          query,
		MaxResults:     limit,
		ScoreThreshold: ScoreThreshold,
		Filter:         BuildAdvancedFilter(user.Email, tr),
	})
	if searchErr != nil {
		s.log.Warn().Err(searchErr).Msg("search service failed, falling back to title scan")
		return s.fallbackScan(ctx, user, query, limit, tr, view, searchErr)
	}

	kept, dropped := scopeResults(user, hits)
	enriched := 0
	for _, r := range kept {
		id := note.IDFromKey(r.Filename())
		sc, err := s.notes.Get(ctx, user, id)
		if err != nil {
			continue
		}
		r["note_metadata"] = sc
		enriched++
	}

	return &AdvancedResult{
		Query:      query,
		Results:    kept,
		Total:      len(kept),
		Filtered:   dropped,
		Enriched:   enriched,
		TimeFilter: view,
	}, nil
}

// AISearch asks the search service for a generated answer over the caller's notes.
// The answer is suffixed with a sentence describing the time window applied.
func (s *Service) AISearch(ctx context.Context, user *identity.User, query string, limit int, sinceDays, untilDays *int) (*AIResult, error) {
	query, limit, err := validateQuery(ctx, user, query, limit)
	if err != nil {
		return nil, err
	}
	tr, view, err := s.timeRange(ctx, sinceDays, untilDays)
	if err != nil {
		return nil, err
	}

	answer, err := s.client.AISearch(ctx, Request{
		Query:          query,
		MaxResults:     limit,
		ScoreThreshold: ScoreThreshold,
		Filter:         BuildAdvancedFilter(user.Email, tr),
	})
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal, "AI search request failed", err, "")
	}

	sources, _ := scopeResults(user, answer.Sources)
	return &AIResult{
		Query:      query,
		Answer:     strings.TrimSpace(answer.Answer) + "\n\n" + describeTimeFilter(sinceDays, untilDays),
		Sources:    sources,
		Total:      len(sources),
		TimeFilter: view,
	}, nil
}

// SyncIndex triggers re-indexing. Without force, an unfinished job is reported
// instead of starting another one.
func (s *Service) SyncIndex(ctx context.Context, force bool) (*SyncResult, error) {
	if !force {
		job, err := s.client.LatestJob(ctx)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Msg("could not read indexing jobs, triggering sync anyway")
		case job.Running():
			return &SyncResult{
				AlreadyRunning: true,
				JobID:          job.ID,
				Message:        fmt.Sprintf("indexing job %s is already running; pass force to trigger another sync", job.ID),
			}, nil
		}
	}

	job, err := s.client.Sync(ctx)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal, "failed to trigger index sync", err, "")
	}
	result := &SyncResult{Triggered: true, Message: "index sync started"}
	if job != nil {
		result.JobID = job.ID
	}
	return result, nil
}

func (s *Service) fallbackScan(ctx context.Context, user *identity.User, query string, limit int, tr TimeRange, view *TimeFilterView, cause error) (*AdvancedResult, error) {
	headers, err := s.notes.ListHeaders(ctx, user, fallbackScanCap)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal, "search service and fallback scan both failed", cause, "")
	}

	needle := strings.ToLower(query)
	matches := make([]note.Header, 0)
	for _, h := range headers {
		if !strings.Contains(strings.ToLower(h.Title), needle) {
			continue
		}
		if !tr.Contains(h.Timestamp) {
			continue
		}
		matches = append(matches, h)
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Timestamp > matches[j].Timestamp })
	if len(matches) > limit {
		matches = matches[:limit]
	}

	results := make([]Result, 0, len(matches))
	for _, h := range matches {
		results = append(results, Result{
			"file_id":  h.ID,
			"filename": h.Key,
			"attributes": map[string]any{
				AttrFolder:    note.Folder(h.Key),
				AttrTimestamp: time.Unix(h.Timestamp, 0).UnixMilli(),
			},
			"note_metadata": h,
		})
	}

	return &AdvancedResult{
		Query:       query,
		Results:     results,
		Total:       len(results),
		Fallback:    true,
		FallbackErr: cause.Error(),
		TimeFilter:  view,
	}, nil
}

// timeRange converts day offsets into absolute bounds relative to now.
func (s *Service) timeRange(ctx context.Context, sinceDays, untilDays *int) (TimeRange, *TimeFilterView, error) {
	var tr TimeRange
	if sinceDays == nil && untilDays == nil {
		return tr, nil, nil
	}
	if (sinceDays != nil && *sinceDays < 0) || (untilDays != nil && *untilDays < 0) {
		return tr, nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "since_days and until_days must not be negative", nil, "")
	}
	if (sinceDays != nil && *sinceDays > MaxDays) || (untilDays != nil && *untilDays > MaxDays) {
		return tr, nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, fmt.Sprintf("since_days and until_days must not exceed %d", MaxDays), nil, "")
	}
	if sinceDays != nil && untilDays != nil && *untilDays > *sinceDays {
		return tr, nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "until_days must not be greater than since_days", nil, "")
	}

	now := s.now()
	view := &TimeFilterView{SinceDays: sinceDays, UntilDays: untilDays}
	if sinceDays != nil {
		since := now.AddDate(0, 0, -*sinceDays)
		tr.Since = &since
		view.Since = since.Format(time.RFC3339)
	}
	if untilDays != nil {
		until := now.AddDate(0, 0, -*untilDays)
		tr.Until = &until
		view.Until = until.Format(time.RFC3339)
	}
	return tr, view, nil
}

// scopeResults drops sidecar objects and hits outside the user's namespace.
func scopeResults(user *identity.User, hits []Result) ([]Result, int) {
	prefix := note.UserPrefix(user.Email)
	kept := make([]Result, 0, len(hits))
	for _, r := range hits {
		name := r.Filename()
		if note.IsSidecarKey(name) || !strings.HasPrefix(name, prefix) {
			continue
		}
		kept = append(kept, r)
	}
	return kept, len(hits) - len(kept)
}

func validateQuery(ctx context.Context, user *identity.User, query string, limit int) (string, int, error) {
	if user == nil || strings.TrimSpace(user.Email) == "" {
		return "", 0, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUnauthorized, "authenticated user required", nil, "")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return "", 0, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "query is required", nil, "")
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 1 || limit > MaxLimit {
		return "", 0, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, fmt.Sprintf("limit must be between 1 and %d", MaxLimit), nil, "")
	}
	return query, limit, nil
}

func describeTimeFilter(sinceDays, untilDays *int) string {
	switch {
	case sinceDays != nil && untilDays != nil:
		return fmt.Sprintf("Time filter: only notes from %s ago up to %s ago were considered.", days(*sinceDays), days(*untilDays))
	case sinceDays != nil:
		return fmt.Sprintf("Time filter: only notes from the last %s were considered.", days(*sinceDays))
	case untilDays != nil:
		return fmt.Sprintf("Time filter: only notes older than %s were considered.", days(*untilDays))
	}
	return "Time filter: none, all of your notes were considered."
}

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
