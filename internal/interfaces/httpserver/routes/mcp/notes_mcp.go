package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/janhq/notes-mcp/internal/domain/identity"
	"github.com/janhq/notes-mcp/internal/domain/note"
)

// CreateNoteArgs defines the arguments for the create_note tool
type CreateNoteArgs struct {
	Text     string `json:"text" jsonschema_description:"Markdown body of the note"`
	Title    string `json:"title,omitempty" jsonschema_description:"Optional title; derived from the first line of text when omitted"`
	NoteType string `json:"note_type,omitempty" jsonschema:"enum=note,enum=task,enum=idea,enum=reference,enum=meeting,default=note" jsonschema_description:"Kind of note"`
}

// DeleteNoteArgs defines the arguments for the delete_note tool
type DeleteNoteArgs struct {
	NoteID string `json:"note_id" jsonschema:"format=uuid" jsonschema_description:"Identifier returned by create_note"`
}

// NotesMCP exposes the note store as MCP tools
type NotesMCP struct {
	notes *note.Service
}

// NewNotesMCP creates the note tools
func NewNotesMCP(notes *note.Service) *NotesMCP {
	return &NotesMCP{notes: notes}
}

// RegisterTools registers create_note and delete_note
func (n *NotesMCP) RegisterTools(server *mcp.Server, rt *ToolRuntime) {
	addTool(server, rt, &mcp.Tool{
		Name:        "create_note",
		Description: "Save a markdown note in your private note store. Returns the note id and derived metadata.",
		InputSchema: inputSchema(CreateNoteArgs{}),
	}, n.createNote)

	addTool(server, rt, &mcp.Tool{
		Name:        "delete_note",
		Description: "Delete one of your notes by id. Deleting an unknown id reports found=false.",
		InputSchema: inputSchema(DeleteNoteArgs{}),
	}, n.deleteNote)
}

func (n *NotesMCP) createNote(ctx context.Context, user *identity.User, in CreateNoteArgs) (*toolOutput, error) {
	res, err := n.notes.Create(ctx, user, note.CreateParams{
		Text:  in.Text,
		Title: in.Title,
		Type:  in.NoteType,
	})
	if err != nil {
		return nil, err
	}

	return &toolOutput{payload: map[string]any{
		"note_id":       res.Note.ID,
		"title":         res.Note.Title,
		"note_type":     string(res.Note.Type),
		"created_at":    res.Note.CreatedAt.Format(time.RFC3339),
		"timestamp":     res.Sidecar.Timestamp,
		"word_count":    res.Note.WordCount,
		"char_count":    res.Note.CharCount,
		"path":          res.Note.Path,
		"metadata_path": res.Note.MetadataPath,
		"hashtags":      res.Sidecar.Hashtags,
		"urls":          res.Sidecar.URLs,
		"message":       "Note saved",
	}}, nil
}

func (n *NotesMCP) deleteNote(ctx context.Context, user *identity.User, in DeleteNoteArgs) (*toolOutput, error) {
	res, err := n.notes.Delete(ctx, user, in.NoteID)
	if res == nil {
		return nil, err
	}

	payload := map[string]any{
		"note_id": res.NoteID,
		"found":   res.Found,
	}
	if !res.Found {
		payload["message"] = "Note not found"
		return &toolOutput{payload: payload}, err
	}

	payload["title"] = res.Title
	payload["primary_deleted"] = res.PrimaryDeleted
	payload["sidecar_deleted"] = res.SidecarDeleted
	payload["path"] = res.Path
	payload["metadata_path"] = res.MetadataPath
	payload["message"] = "Note deleted"
	if !res.Complete() {
		payload["message"] = "Note only partially deleted"
	}
	return &toolOutput{payload: payload}, err
}
