package port

import "context"

// FileStorage archives rendered exports under a storage root
type FileStorage interface {
	// Save writes content to a path relative to the root, replacing any existing file
	Save(ctx context.Context, path string, content []byte) error
}
