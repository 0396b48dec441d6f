package objectstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/janhq/notes-mcp/internal/config"
	"github.com/janhq/notes-mcp/internal/domain/note"
)

// attribute files live next to each object and never show up in listings
const attrSuffix = ".objmeta"

type objectAttrs struct {
	ContentType string            `json:"content_type"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// LocalStore keeps objects on the local filesystem, for development and tests.
type LocalStore struct {
	basePath string
	log      zerolog.Logger
}

// NewLocalStore creates a new local filesystem object store.
func NewLocalStore(cfg *config.Config, log zerolog.Logger) (*LocalStore, error) {
	logger := log.With().Str("component", "local-store").Logger()

	basePath := strings.TrimSpace(cfg.LocalStoragePath)
	if basePath == "" {
		return nil, errors.New("LOCAL_STORAGE_PATH is not set")
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create local storage directory: %w", err)
	}

	logger.Info().Str("path", basePath).Msg("local object store initialized")
	return &LocalStore{basePath: basePath, log: logger}, nil
}

func (l *LocalStore) resolve(key string) (string, error) {
	if key == "" || strings.HasSuffix(key, attrSuffix) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(l.basePath, cleaned), nil
}

func (l *LocalStore) Put(_ context.Context, key string, body []byte, contentType string, metadata map[string]string) error {
	fullPath, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(fullPath, body, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	attrs, err := json.Marshal(objectAttrs{ContentType: contentType, Metadata: metadata})
	if err != nil {
		return err
	}
	if err := os.WriteFile(fullPath+attrSuffix, attrs, 0644); err != nil {
		return fmt.Errorf("failed to write attributes: %w", err)
	}

	l.log.Debug().Str("key", key).Int("bytes", len(body)).Msg("object stored")
	return nil
}

func (l *LocalStore) Get(ctx context.Context, key string) ([]byte, *note.ObjectInfo, error) {
	info, err := l.Head(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	fullPath, _ := l.resolve(key)
	data, err := os.ReadFile(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, note.ErrObjectNotFound
		}
		return nil, nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, info, nil
}

func (l *LocalStore) Head(_ context.Context, key string) (*note.ObjectInfo, error) {
	fullPath, err := l.resolve(key)
	if err != nil {
		return nil, err
	}
	stat, err := os.Stat(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, note.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if stat.IsDir() {
		return nil, note.ErrObjectNotFound
	}

	info := &note.ObjectInfo{
		Key:          key,
		Size:         stat.Size(),
		LastModified: stat.ModTime().UTC(),
		ContentType:  "application/octet-stream",
	}
	if raw, err := os.ReadFile(fullPath + attrSuffix); err == nil {
		var attrs objectAttrs
		if err := json.Unmarshal(raw, &attrs); err == nil {
			info.ContentType = attrs.ContentType
			info.Metadata = attrs.Metadata
		}
	}
	return info, nil
}

// Delete removes the object; deleting a missing key is not an error.
func (l *LocalStore) Delete(_ context.Context, key string) error {
	fullPath, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	if err := os.Remove(fullPath + attrSuffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete attributes: %w", err)
	}
	return nil
}

// List returns keys under prefix in lexical order, capped at limit.
func (l *LocalStore) List(_ context.Context, prefix string, limit int) ([]note.ObjectInfo, error) {
	root := filepath.Join(l.basePath, filepath.FromSlash(note.Folder(prefix)))
	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		return []note.ObjectInfo{}, nil
	}

	var objects []note.ObjectInfo
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(p, attrSuffix) {
			return nil
		}
		rel, err := filepath.Rel(l.basePath, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		objects = append(objects, note.ObjectInfo{Key: key, Size: info.Size(), LastModified: info.ModTime().UTC()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	if limit > 0 && len(objects) > limit {
		objects = objects[:limit]
	}
	return objects, nil
}

// Health checks if the storage directory is writable.
func (l *LocalStore) Health(context.Context) error {
	testFile := filepath.Join(l.basePath, ".health_check")
	if err := os.WriteFile(testFile, []byte("ok"), 0644); err != nil {
		return fmt.Errorf("storage directory not writable: %w", err)
	}
	_ = os.Remove(testFile)
	return nil
}
