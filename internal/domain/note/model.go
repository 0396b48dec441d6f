package note

import (
	"fmt"
	"strings"
	"time"
)

// NoteType classifies a note.
type NoteType string

const (
	NoteTypeNote      NoteType = "note"
	NoteTypeTask      NoteType = "task"
	NoteTypeIdea      NoteType = "idea"
	NoteTypeReference NoteType = "reference"
	NoteTypeMeeting   NoteType = "meeting"
)

// NoteTypes lists the accepted classifications in display order.
var NoteTypes = []NoteType{NoteTypeNote, NoteTypeTask, NoteTypeIdea, NoteTypeReference, NoteTypeMeeting}

// ParseNoteType maps user input to a NoteType; empty input defaults to note.
func ParseNoteType(raw string) (NoteType, error) {
	value := NoteType(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return NoteTypeNote, nil
	}
	for _, t := range NoteTypes {
		if t == value {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown note type %q", raw)
}

// Note is the primary content object stored at <email>/<id>.md.
type Note struct {
	ID           string    `json:"note_id"`
	Owner        string    `json:"-"`
	Title        string    `json:"title"`
	Type         NoteType  `json:"note_type"`
	Content      string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	CharCount    int       `json:"char_count"`
	WordCount    int       `json:"word_count"`
	Path         string    `json:"path"`
	MetadataPath string    `json:"metadata_path"`
}

// Sidecar is the metadata companion stored at <email>/.metadata/<id>.json.
type Sidecar struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Title     string    `json:"title"`
	Type      NoteType  `json:"note_type"`
	CreatedAt time.Time `json:"created_at"`
	Timestamp int64     `json:"timestamp"`
	CharCount int       `json:"char_count"`
	WordCount int       `json:"word_count"`
	Preview   string    `json:"preview"`
	Hashtags  []string  `json:"hashtags"`
	URLs      []string  `json:"urls"`
	Path      string    `json:"path"`
}

// Header is what a namespace listing knows about a note without reading its body.
type Header struct {
	ID        string    `json:"note_id"`
	Key       string    `json:"path"`
	Title     string    `json:"title"`
	Type      NoteType  `json:"note_type,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Timestamp int64     `json:"timestamp"`
}

// CreateParams is the input of Service.Create.
type CreateParams struct {
	Text  string
	Title string
	Type  string
}

// CreateResult is returned by a successful create.
type CreateResult struct {
	Note    Note
	Sidecar Sidecar
}

// DeleteResult reports what a delete touched. Found=false means the note did not exist.
type DeleteResult struct {
	NoteID         string `json:"note_id"`
	Found          bool   `json:"found"`
	Title          string `json:"title,omitempty"`
	PrimaryDeleted bool   `json:"primary_deleted"`
	SidecarDeleted bool   `json:"sidecar_deleted"`
	Path           string `json:"path"`
	MetadataPath   string `json:"metadata_path"`
}

// Complete reports whether both objects of the pair were removed.
func (r DeleteResult) Complete() bool {
	return r.PrimaryDeleted && r.SidecarDeleted
}
