package driven

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// FileWatcher reports changes to files under a watched root.
type FileWatcher interface {
	// Scan lists every matching file currently present.
	Scan(ctx context.Context) ([]string, error)

	// Watch streams changes until ctx is cancelled. The channel is closed
	// when watching stops.
	Watch(ctx context.Context) (<-chan domain.FileChange, error)

	// Close releases resources.
	Close() error
}
