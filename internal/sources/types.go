// Package sources loads auxiliary device info sources and caches their
// projected records for merging into catalog device records.
package sources

import (
	"context"

	"github.com/otahub/device-registry/internal/config"
)

// Record is one device info record.
type Record = map[string]any

// SourceHandler is an interface with methods to fetch raw data from
// external data sources
type SourceHandler interface {
	// FetchRaw retrieves the raw JSON payload from the source
	FetchRaw(ctx context.Context, src *config.SourceConfig) ([]byte, error)

	// Validate validates the source configuration
	Validate(src *config.SourceConfig) error
}

// SourceHandlerFactory creates source handlers based on source type
type SourceHandlerFactory interface {
	// CreateHandler creates a source handler for the given source type
	CreateHandler(sourceType string) (SourceHandler, error)
}
