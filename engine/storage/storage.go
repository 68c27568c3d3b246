package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

var (
	// ErrUnknownURL is returned by Open for a URL that was never created or was revoked.
	ErrUnknownURL = errors.New("unknown object URL")
)

// urlScheme prefixes every object URL handed out by a Storage.
const urlScheme = "blob:oxy/"

// storage is the implementation of the Storage interface.
type storage struct {
	mu      sync.RWMutex
	fsys    fs.FS
	objects map[string][]byte
	nextID  atomic.Uint64
}

// Storage abstracts where model bytes come from and how decoded blobs are referenced
// while a model is being loaded. Files are read from a filesystem root; bytes that have
// been read can be registered as an in-memory object and addressed by an opaque URL
// until the URL is revoked. All methods are safe for concurrent use.
type Storage interface {
	// ReadFile reads the whole file at path. The read is abandoned with ctx.Err() if the
	// context ends first.
	//
	// Parameters:
	//   - ctx: the context bounding the read
	//   - path: the slash-separated file path, relative to the storage root
	//
	// Returns:
	//   - []byte: the file contents
	//   - error: error if the file cannot be read or ctx ended
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// CreateObjectURL registers data as an in-memory object.
	//
	// Parameters:
	//   - data: the object bytes; the caller must not modify them afterwards
	//
	// Returns:
	//   - string: a URL unique for the lifetime of the Storage
	CreateObjectURL(data []byte) string

	// Open returns a reader over a registered object.
	//
	// Parameters:
	//   - url: a URL returned by CreateObjectURL
	//
	// Returns:
	//   - io.ReadCloser: the object reader
	//   - error: ErrUnknownURL if the URL is not registered
	Open(url string) (io.ReadCloser, error)

	// RevokeObjectURL releases a registered object. Revoking an unknown URL is a no-op.
	//
	// Parameters:
	//   - url: the URL to revoke
	//
	// Returns:
	//   - bool: true if the URL was registered
	RevokeObjectURL(url string) bool

	// ObjectCount returns the number of registered objects.
	//
	// Returns:
	//   - int: the live object count
	ObjectCount() int
}

var _ Storage = &storage{}

// NewStorage creates a new Storage rooted at the current working directory unless
// overridden by options.
//
// Parameters:
//   - options: a variadic list of StorageBuilderOption functions to configure the Storage
//
// Returns:
//   - Storage: the configured storage
func NewStorage(options ...StorageBuilderOption) Storage {
	s := &storage{
		objects: make(map[string][]byte),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.fsys == nil {
		s.fsys = os.DirFS(".")
	}
	return s
}

func (s *storage) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		data, err := fs.ReadFile(s.fsys, cleanPath(path))
		done <- result{data, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, r.err)
		}
		return r.data, nil
	}
}

func (s *storage) CreateObjectURL(data []byte) string {
	url := fmt.Sprintf("%s%d", urlScheme, s.nextID.Add(1))
	s.mu.Lock()
	s.objects[url] = data
	s.mu.Unlock()
	return url
}

func (s *storage) Open(url string) (io.ReadCloser, error) {
	s.mu.RLock()
	data, ok := s.objects[url]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", url, ErrUnknownURL)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *storage) RevokeObjectURL(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[url]; !ok {
		return false
	}
	delete(s.objects, url)
	return true
}

func (s *storage) ObjectCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// cleanPath maps an OS-style or rooted path to the unrooted slash form io/fs expects.
func cleanPath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	path = strings.TrimPrefix(path, "./")
	return strings.TrimLeft(path, "/")
}
