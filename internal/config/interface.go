package config

import "context"

// Loader is the interface for a format-specific experiment loader. Path may
// point at a single declaration file or a directory of them.
type Loader interface {
	Load(ctx context.Context, path string) (*Experiment, error)
}
