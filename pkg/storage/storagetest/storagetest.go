// Package storagetest provides an in-memory storage.System for tests.
package storagetest

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/reactit/kycdesk/pkg/lifecycle"
	"github.com/reactit/kycdesk/pkg/storage"
)

type blob struct {
	data        []byte
	contentType string
}

// Memory keeps blobs in a map. SignedURL returns ErrSigningUnavailable
// unless SignBase is set.
type Memory struct {
	SignBase string

	mu    sync.Mutex
	blobs map[string]blob
}

var _ storage.System = (*Memory)(nil)

func New() *Memory {
	return &Memory{blobs: make(map[string]blob)}
}

func (m *Memory) Start(*lifecycle.Coordinator) error { return nil }

func (m *Memory) Upload(_ context.Context, key string, reader io.Reader, contentType string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = blob{data: data, contentType: contentType}
	return nil
}

func (m *Memory) Download(_ context.Context, key string) (*storage.Object, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &storage.Object{
		Body:          io.NopCloser(bytes.NewReader(b.data)),
		ContentType:   b.contentType,
		ContentLength: int64(len(b.data)),
	}, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[key]; !ok {
		return storage.ErrNotFound
	}
	delete(m.blobs, key)
	return nil
}

func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[key]
	return ok, nil
}

func (m *Memory) SignedURL(key string, _ time.Duration) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	if m.SignBase == "" {
		return "", storage.ErrSigningUnavailable
	}
	return m.SignBase + "/" + key + "?sig=test", nil
}

// Keys returns the stored keys.
func (m *Memory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.blobs))
	for k := range m.blobs {
		keys = append(keys, k)
	}
	return keys
}

func checkKey(key string) error {
	if key == "" {
		return storage.ErrEmptyKey
	}
	if strings.Contains(key, "..") {
		return storage.ErrInvalidKey
	}
	return nil
}
