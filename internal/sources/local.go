package sources

import (
	"context"
	"fmt"
	"os"

	"github.com/otahub/device-registry/internal/config"
)

// localSourceHandler handles device info from local files
type localSourceHandler struct{}

// NewLocalSourceHandler creates a new local file source handler
func NewLocalSourceHandler() SourceHandler {
	return &localSourceHandler{}
}

// Validate validates the local source configuration
func (*localSourceHandler) Validate(src *config.SourceConfig) error {
	if src == nil {
		return fmt.Errorf("source configuration cannot be nil")
	}

	if src.File == "" {
		return fmt.Errorf("file path cannot be empty")
	}

	return nil
}

// FetchRaw reads the raw JSON payload from the local file
func (h *localSourceHandler) FetchRaw(_ context.Context, src *config.SourceConfig) ([]byte, error) {
	if err := h.Validate(src); err != nil {
		return nil, fmt.Errorf("source validation failed: %w", err)
	}

	//nolint:gosec // File path comes from user configuration, this is expected behavior
	data, err := os.ReadFile(src.File)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", src.File)
		}
		return nil, fmt.Errorf("failed to read file %s: %w", src.File, err)
	}

	return data, nil
}
