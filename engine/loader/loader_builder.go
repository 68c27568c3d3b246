package loader

import "log"

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithBaseDir is an option builder that sets the directory used to resolve external
// buffer URIs of models decoded through LoadReader.
//
// Parameters:
//   - dir: the base directory
//
// Returns:
//   - LoaderBuilderOption: a function that applies the base directory option to a loader
func WithBaseDir(dir string) LoaderBuilderOption {
	return func(l *loader) {
		l.baseDir = dir
	}
}

// WithLogger is an option builder that sets the logger used for load reports.
//
// Parameters:
//   - logger: the logger to write to
//
// Returns:
//   - LoaderBuilderOption: a function that applies the logger option to a loader
func WithLogger(logger *log.Logger) LoaderBuilderOption {
	return func(l *loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithVerbose is an option builder that enables a log line per decoded model.
//
// Parameters:
//   - verbose: true to log every load
//
// Returns:
//   - LoaderBuilderOption: a function that applies the verbose option to a loader
func WithVerbose(verbose bool) LoaderBuilderOption {
	return func(l *loader) {
		l.verbose = verbose
	}
}
