package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/janhq/notes-mcp/internal/domain/identity"
	"github.com/janhq/notes-mcp/internal/domain/search"
	"github.com/janhq/notes-mcp/internal/utils/platformerrors"
)

// SimpleSearchArgs defines the arguments for the search_notes_simple tool
type SimpleSearchArgs struct {
	Query string `json:"query" jsonschema_description:"What to look for in your notes"`
	Limit int    `json:"limit,omitempty" jsonschema:"minimum=1,maximum=50,default=10" jsonschema_description:"Maximum number of results"`
}

// TimedSearchArgs defines the arguments for search_notes_advanced and ai_search_notes
type TimedSearchArgs struct {
	Query     string `json:"query" jsonschema_description:"What to look for in your notes"`
	Limit     int    `json:"limit,omitempty" jsonschema:"minimum=1,maximum=50,default=10" jsonschema_description:"Maximum number of results"`
	SinceDays *int   `json:"since_days,omitempty" jsonschema:"minimum=0,maximum=36500" jsonschema_description:"Only notes created at most this many days ago"`
	UntilDays *int   `json:"until_days,omitempty" jsonschema:"minimum=0,maximum=36500" jsonschema_description:"Only notes created at least this many days ago"`
}

// SyncArgs defines the arguments for the sync_autorag tool
type SyncArgs struct {
	Force bool `json:"force,omitempty" jsonschema_description:"Start a sync even if one is already running"`
}

// SearchMCP exposes the search façade as MCP tools
type SearchMCP struct {
	search *search.Service
}

// NewSearchMCP creates the search tools
func NewSearchMCP(searchService *search.Service) *SearchMCP {
	return &SearchMCP{search: searchService}
}

// RegisterTools registers the three search tools and sync_autorag
func (s *SearchMCP) RegisterTools(server *mcp.Server, rt *ToolRuntime) {
	addTool(server, rt, &mcp.Tool{
		Name:        "search_notes_simple",
		Description: "Semantic search over your notes. Returns matching notes as ranked by the search index.",
		InputSchema: inputSchema(SimpleSearchArgs{}),
	}, s.searchSimple)

	addTool(server, rt, &mcp.Tool{
		Name:        "search_notes_advanced",
		Description: "Semantic search over your notes with an optional creation-time window in days. Results include each note's metadata.",
		InputSchema: inputSchema(TimedSearchArgs{}),
	}, s.searchAdvanced)

	addTool(server, rt, &mcp.Tool{
		Name:        "ai_search_notes",
		Description: "Ask a question and get an answer written from your notes, with the notes it was based on.",
		InputSchema: inputSchema(TimedSearchArgs{}),
	}, s.aiSearch)

	addTool(server, rt, &mcp.Tool{
		Name:        "sync_autorag",
		Description: "Ask the search index to pick up recently saved or deleted notes.",
		InputSchema: inputSchema(SyncArgs{}),
	}, s.sync)
}

func (s *SearchMCP) searchSimple(ctx context.Context, user *identity.User, in SimpleSearchArgs) (*toolOutput, error) {
	res, err := s.search.SearchSimple(ctx, user, in.Query, in.Limit)
	if err != nil {
		return nil, err
	}
	return payloadOutput(ctx, res)
}

func (s *SearchMCP) searchAdvanced(ctx context.Context, user *identity.User, in TimedSearchArgs) (*toolOutput, error) {
	res, err := s.search.SearchAdvanced(ctx, user, in.Query, in.Limit, in.SinceDays, in.UntilDays)
	if err != nil {
		return nil, err
	}
	return payloadOutput(ctx, res)
}

func (s *SearchMCP) aiSearch(ctx context.Context, user *identity.User, in TimedSearchArgs) (*toolOutput, error) {
	res, err := s.search.AISearch(ctx, user, in.Query, in.Limit, in.SinceDays, in.UntilDays)
	if err != nil {
		return nil, err
	}
	out, err := payloadOutput(ctx, res)
	if err != nil {
		return nil, err
	}
	out.content = []mcp.Content{&mcp.TextContent{Text: res.Answer}}
	return out, nil
}

func (s *SearchMCP) sync(ctx context.Context, _ *identity.User, in SyncArgs) (*toolOutput, error) {
	res, err := s.search.SyncIndex(ctx, in.Force)
	if err != nil {
		return nil, err
	}
	return payloadOutput(ctx, res)
}

func payloadOutput(ctx context.Context, v any) (*toolOutput, error) {
	payload, err := toPayload(v)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRoute, platformerrors.ErrorTypeInternal, "failed to encode result", err, "")
	}
	return &toolOutput{payload: payload}, nil
}
