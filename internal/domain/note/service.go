package note

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/janhq/notes-mcp/internal/domain/identity"
	"github.com/janhq/notes-mcp/internal/utils/platformerrors"
)

const (
	primaryContentType = "text/markdown; charset=utf-8"
	sidecarContentType = "application/json"

	metaNoteID    = "note-id"
	metaTitle     = "title"
	metaNoteType  = "note-type"
	metaCreatedAt = "created-at"
	metaTimestamp = "timestamp"
	metaWordCount = "word-count"
	metaCharCount = "char-count"
)

// Service owns the note/sidecar pair lifecycle in the object store.
type Service struct {
	store ObjectStore
	now   func() time.Time
	newID func() string
	log   zerolog.Logger
}

// NewService creates the note store.
func NewService(store ObjectStore) *Service {
	return &Service{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.New().String() },
		log:   log.With().Str("component", "note-store").Logger(),
	}
}

// Create writes the primary note and its sidecar concurrently.
func (s *Service) Create(ctx context.Context, user *identity.User, params CreateParams) (*CreateResult, error) {
	if err := requireUser(ctx, user); err != nil {
		return nil, err
	}
	if strings.TrimSpace(params.Text) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "text is required", nil, "")
	}
	noteType, err := ParseNoteType(params.Type)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, err.Error(), nil, "")
	}

	id := s.newID()
	createdAt := s.now().Truncate(time.Second)
	n := Note{
		ID:           id,
		Owner:        user.Email,
		Title:        DeriveTitle(params.Title, params.Text),
		Type:         noteType,
		Content:      params.Text,
		CreatedAt:    createdAt,
		CharCount:    CountChars(params.Text),
		WordCount:    CountWords(params.Text),
		Path:         PrimaryKey(user.Email, id),
		MetadataPath: SidecarKey(user.Email, id),
	}
	sc := Sidecar{
		ID:        id,
		Owner:     user.Email,
		Title:     n.Title,
		Type:      noteType,
		CreatedAt: createdAt,
		Timestamp: createdAt.Unix(),
		CharCount: n.CharCount,
		WordCount: n.WordCount,
		Preview:   Preview(params.Text),
		Hashtags:  ExtractHashtags(params.Text),
		URLs:      ExtractURLs(params.Text),
		Path:      n.Path,
	}
	sidecarBody, err := json.Marshal(sc)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal, "encode sidecar", err, "")
	}

	var primaryErr, sidecarErr error
	var g errgroup.Group
	g.Go(func() error {
		primaryErr = s.store.Put(ctx, n.Path, []byte(params.Text), primaryContentType, primaryMetadata(n))
		return nil
	})
	g.Go(func() error {
		sidecarErr = s.store.Put(ctx, n.MetadataPath, sidecarBody, sidecarContentType, nil)
		return nil
	})
	_ = g.Wait()

	switch {
	case primaryErr == nil && sidecarErr == nil:
		return &CreateResult{Note: n, Sidecar: sc}, nil
	case primaryErr != nil && sidecarErr != nil:
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal, "failed to store note", errors.Join(primaryErr, sidecarErr), "")
	}

	written, failed, cause := n.MetadataPath, n.Path, primaryErr
	if sidecarErr != nil {
		written, failed, cause = n.Path, n.MetadataPath, sidecarErr
	}
	// Compensate so a half-written pair does not linger in the namespace.
	if err := s.store.Delete(context.WithoutCancel(ctx), written); err != nil {
		s.log.Warn().Err(err).Str("key", written).Msg("failed to remove orphaned object after partial create")
	}
	return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypePartial,
		"note was not stored: one of the two objects failed to write", cause, "",
		map[string]any{"note_id": id, "failed_key": failed, "rolled_back_key": written})
}

// Delete removes both objects of a note. A missing note is reported with Found=false
// and no error. An incomplete pair is returned together with a PARTIAL error.
func (s *Service) Delete(ctx context.Context, user *identity.User, id string) (*DeleteResult, error) {
	if err := requireUser(ctx, user); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "note_id must be a UUID", err, "")
	}
	id = parsed.String()

	result := &DeleteResult{
		NoteID:       id,
		Path:         PrimaryKey(user.Email, id),
		MetadataPath: SidecarKey(user.Email, id),
	}

	head, err := s.store.Head(ctx, result.Path)
	if errors.Is(err, ErrObjectNotFound) {
		return result, nil
	}
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal, "failed to look up note", err, "")
	}
	result.Found = true
	result.Title = decodeMetadataValue(head.Metadata[metaTitle])

	if sc, err := s.readSidecar(ctx, result.MetadataPath); err == nil && sc.Title != "" {
		result.Title = sc.Title
	}

	var primaryErr, sidecarErr error
	var g errgroup.Group
	g.Go(func() error {
		primaryErr = s.store.Delete(ctx, result.Path)
		return nil
	})
	g.Go(func() error {
		sidecarErr = s.store.Delete(ctx, result.MetadataPath)
		return nil
	})
	_ = g.Wait()

	result.PrimaryDeleted = primaryErr == nil
	result.SidecarDeleted = sidecarErr == nil
	if result.Complete() {
		return result, nil
	}
	if !result.PrimaryDeleted && !result.SidecarDeleted {
		return result, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal, "failed to delete note", errors.Join(primaryErr, sidecarErr), "")
	}
	return result, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypePartial,
		"note was only partially deleted", errors.Join(primaryErr, sidecarErr), "",
		map[string]any{"note_id": id, "primary_deleted": result.PrimaryDeleted, "sidecar_deleted": result.SidecarDeleted})
}

// Get reads the sidecar of a note owned by user.
func (s *Service) Get(ctx context.Context, user *identity.User, id string) (*Sidecar, error) {
	if err := requireUser(ctx, user); err != nil {
		return nil, err
	}
	sc, err := s.readSidecar(ctx, SidecarKey(user.Email, id))
	if errors.Is(err, ErrObjectNotFound) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "note metadata not found", err, "")
	}
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal, "failed to read note metadata", err, "")
	}
	return sc, nil
}

// ListHeaders lists up to limit objects in the user's namespace and returns the
// head metadata of every primary note among them.
func (s *Service) ListHeaders(ctx context.Context, user *identity.User, limit int) ([]Header, error) {
	if err := requireUser(ctx, user); err != nil {
		return nil, err
	}
	objects, err := s.store.List(ctx, UserPrefix(user.Email), limit)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal, "failed to list notes", err, "")
	}

	headers := make([]Header, 0, len(objects))
	for _, obj := range objects {
		if !IsPrimaryKey(obj.Key) {
			continue
		}
		info, err := s.store.Head(ctx, obj.Key)
		if err != nil {
			s.log.Debug().Err(err).Str("key", obj.Key).Msg("skipping unreadable note")
			continue
		}
		headers = append(headers, headerFromMetadata(obj.Key, info))
	}
	return headers, nil
}

func (s *Service) readSidecar(ctx context.Context, key string) (*Sidecar, error) {
	body, _, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var sc Sidecar
	if err := json.Unmarshal(body, &sc); err != nil {
		return nil, fmt.Errorf("decode sidecar %s: %w", key, err)
	}
	return &sc, nil
}

func primaryMetadata(n Note) map[string]string {
	return map[string]string{
		metaNoteID:    n.ID,
		metaTitle:     encodeMetadataValue(n.Title),
		metaNoteType:  string(n.Type),
		metaCreatedAt: n.CreatedAt.Format(time.RFC3339),
		metaTimestamp: strconv.FormatInt(n.CreatedAt.Unix(), 10),
		metaWordCount: strconv.Itoa(n.WordCount),
		metaCharCount: strconv.Itoa(n.CharCount),
	}
}

func headerFromMetadata(key string, info *ObjectInfo) Header {
	h := Header{
		ID:  IDFromKey(key),
		Key: key,
	}
	meta := info.Metadata
	if id := meta[metaNoteID]; id != "" {
		h.ID = id
	}
	h.Title = decodeMetadataValue(meta[metaTitle])
	h.Type = NoteType(meta[metaNoteType])
	if ts, err := strconv.ParseInt(meta[metaTimestamp], 10, 64); err == nil {
		h.Timestamp = ts
		h.CreatedAt = time.Unix(ts, 0).UTC()
	} else if !info.LastModified.IsZero() {
		h.CreatedAt = info.LastModified.UTC()
		h.Timestamp = info.LastModified.Unix()
	}
	return h
}

func requireUser(ctx context.Context, user *identity.User) error {
	if user == nil || strings.TrimSpace(user.Email) == "" {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUnauthorized, "authenticated user required", nil, "")
	}
	return nil
}
