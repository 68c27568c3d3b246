package storage

import (
	"io/fs"
	"os"
)

// StorageBuilderOption is a functional option for configuring a Storage via NewStorage.
type StorageBuilderOption func(*storage)

// WithRoot is an option builder that roots file reads at an OS directory.
//
// Parameters:
//   - dir: the directory that relative paths resolve against
//
// Returns:
//   - StorageBuilderOption: a function that applies the root option to a storage
func WithRoot(dir string) StorageBuilderOption {
	return func(s *storage) {
		s.fsys = os.DirFS(dir)
	}
}

// WithFS is an option builder that reads files from an arbitrary filesystem, such as an
// embed.FS or a fstest.MapFS.
//
// Parameters:
//   - fsys: the filesystem to read from
//
// Returns:
//   - StorageBuilderOption: a function that applies the filesystem option to a storage
func WithFS(fsys fs.FS) StorageBuilderOption {
	return func(s *storage) {
		s.fsys = fsys
	}
}
