package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/justapithecus/lode/lode"

	"github.com/pithecene-io/ferry/iox"
)

// errObjectMissing is the underlying error for a Read of an absent path.
var errObjectMissing = errors.New("object does not exist")

// LodeStore implements Store on a lode.Store (filesystem or memory).
// Visibility is not meaningful for local storage and is ignored.
type LodeStore struct {
	factory lode.StoreFactory
	base    string // location prefix, e.g. "file:///data" or "mem://"

	storeOnce sync.Once
	store     lode.Store
	storeErr  error
}

// NewLodeStore creates a store backed by the given factory.
// The factory is invoked lazily on first use.
func NewLodeStore(factory lode.StoreFactory, locationBase string) *LodeStore {
	return &LodeStore{
		factory: factory,
		base:    locationBase,
	}
}

// NewFSStore creates a filesystem store rooted at root, creating it if needed.
func NewFSStore(root string) (*LodeStore, error) {
	if root == "" {
		return nil, errors.New("fs store root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, WrapInitError(err, "fs")
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, WrapInitError(fmt.Errorf("create root %s: %w", abs, err), "fs")
	}
	return NewLodeStore(lode.NewFSFactory(abs), "file://"+filepath.ToSlash(abs)), nil
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore() *LodeStore {
	mem := lode.NewMemory()
	return NewLodeStore(func() (lode.Store, error) { return mem, nil }, "mem://")
}

// getOrCreateStore lazily initializes the Store from the factory.
func (s *LodeStore) getOrCreateStore() (lode.Store, error) {
	s.storeOnce.Do(func() {
		s.store, s.storeErr = s.factory()
	})
	return s.store, s.storeErr
}

// Write puts body at container/key, reporting progress as lode consumes it.
func (s *LodeStore) Write(ctx context.Context, container, key string, body io.Reader, size int64, opts WriteOptions) (string, error) {
	p := objectPath(container, key)
	if body == nil {
		return "", NewStorageError(ErrUnclassified, "write", p, errNilBody)
	}
	store, err := s.getOrCreateStore()
	if err != nil {
		return "", WrapInitError(err, "lode")
	}

	// lode paths are write-once; a re-upload of the same key replaces it.
	exists, err := store.Exists(ctx, p)
	if err != nil {
		return "", WrapWriteError(err, p)
	}
	if exists {
		if err := store.Delete(ctx, p); err != nil {
			return "", WrapWriteError(err, p)
		}
	}

	if err := store.Put(ctx, p, wrapBody(body, size, opts.Progress)); err != nil {
		return "", WrapWriteError(err, p)
	}
	return s.location(p), nil
}

func (s *LodeStore) location(p string) string {
	if strings.HasSuffix(s.base, "/") {
		return s.base + p
	}
	return s.base + "/" + p
}

// Read returns the object at container/key.
func (s *LodeStore) Read(ctx context.Context, container, key string) ([]byte, error) {
	p := objectPath(container, key)
	store, err := s.getOrCreateStore()
	if err != nil {
		return nil, WrapInitError(err, "lode")
	}

	exists, err := store.Exists(ctx, p)
	if err != nil {
		return nil, WrapReadError(err, p)
	}
	if !exists {
		return nil, NewStorageError(ErrNotFound, "read", p, errObjectMissing)
	}

	rc, err := store.Get(ctx, p)
	if err != nil {
		return nil, WrapReadError(err, p)
	}
	defer iox.DiscardClose(rc)

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, WrapReadError(err, p)
	}
	return data, nil
}

// Close releases store resources.
func (s *LodeStore) Close() error {
	return nil
}

func objectPath(container, key string) string {
	return strings.TrimPrefix(path.Join(container, key), "/")
}

// Verify LodeStore implements Store.
var _ Store = (*LodeStore)(nil)
