package note

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

type memObject struct {
	body        []byte
	contentType string
	metadata    map[string]string
}

// memStore is an in-memory ObjectStore with per-key failure injection.
type memStore struct {
	mu        sync.Mutex
	objects   map[string]memObject
	failPut   map[string]bool
	failDel   map[string]bool
	failHead  bool
	deleteLog []string
}

func newMemStore() *memStore {
	return &memStore{
		objects: map[string]memObject{},
		failPut: map[string]bool{},
		failDel: map[string]bool{},
	}
}

var errInjected = errors.New("injected failure")

func (m *memStore) Put(_ context.Context, key string, body []byte, contentType string, metadata map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut[key] {
		return errInjected
	}
	m.objects[key] = memObject{body: append([]byte(nil), body...), contentType: contentType, metadata: metadata}
	return nil
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, *ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, nil, ErrObjectNotFound
	}
	return obj.body, &ObjectInfo{Key: key, Size: int64(len(obj.body)), ContentType: obj.contentType, Metadata: obj.metadata}, nil
}

func (m *memStore) Head(_ context.Context, key string) (*ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failHead {
		return nil, errInjected
	}
	obj, ok := m.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return &ObjectInfo{Key: key, Size: int64(len(obj.body)), ContentType: obj.contentType, Metadata: obj.metadata}, nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDel[key] {
		return errInjected
	}
	m.deleteLog = append(m.deleteLog, key)
	delete(m.objects, key)
	return nil
}

func (m *memStore) List(_ context.Context, prefix string, limit int) ([]ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	out := make([]ObjectInfo, 0, len(keys))
	for _, k := range keys {
		out = append(out, ObjectInfo{Key: k, Size: int64(len(m.objects[k].body))})
	}
	return out, nil
}

func (m *memStore) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.objects))
	for k := range m.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
