// Package objects stashes binaries fetched from the processing API in blob
// storage and serves them back under a local URL.
package objects

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/JaimeStill/walacakra/pkg/storage"
)

// namespace scopes the content-derived object ids.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("walacakra/objects"))

// Stash writes binaries to blob storage and hands out local URLs. Object ids
// are derived from the content, so stashing the same binary twice yields the
// same object.
type Stash struct {
	store    storage.System
	prefix   string
	basePath string
	logger   *slog.Logger

	mu     sync.Mutex
	stored map[string]bool
}

// New creates a Stash. Objects are stored under prefix and addressed at
// {basePath}/objects/{id}.
func New(store storage.System, prefix, basePath string, logger *slog.Logger) *Stash {
	return &Stash{
		store:    store,
		prefix:   strings.Trim(prefix, "/"),
		basePath: strings.TrimRight(basePath, "/"),
		logger:   logger.With("system", "objects"),
		stored:   make(map[string]bool),
	}
}

// Put stores data and returns its local URL. An empty contentType is sniffed.
// Binaries already stashed by this process are not uploaded again.
func (s *Stash) Put(ctx context.Context, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	id := ObjectID(data, contentType)

	s.mu.Lock()
	seen := s.stored[id]
	s.mu.Unlock()
	if seen {
		return s.URL(id), nil
	}

	if err := s.store.Upload(ctx, s.key(id), bytes.NewReader(data), contentType); err != nil {
		return "", fmt.Errorf("stash object: %w", err)
	}

	s.mu.Lock()
	s.stored[id] = true
	s.mu.Unlock()

	s.logger.Info("object stashed", "id", id, "content_type", contentType, "size", len(data))
	return s.URL(id), nil
}

// ObjectID returns the id a binary is stored under.
func ObjectID(data []byte, contentType string) string {
	name := make([]byte, 0, len(contentType)+1+len(data))
	name = append(name, contentType...)
	name = append(name, 0)
	name = append(name, data...)
	return uuid.NewSHA1(namespace, name).String()
}

// URL returns the local address of the object with the given id.
func (s *Stash) URL(id string) string {
	return s.basePath + "/objects/" + id
}

// Handler returns the HTTP handler serving stashed objects.
func (s *Stash) Handler() *Handler {
	return NewHandler(s, s.logger)
}

func (s *Stash) key(id string) string {
	if s.prefix == "" {
		return id
	}
	return path.Join(s.prefix, id)
}
