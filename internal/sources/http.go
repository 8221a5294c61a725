package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/otahub/device-registry/internal/config"
	"github.com/otahub/device-registry/internal/httpclient"
)

// httpSourceHandler handles device info fetched from HTTP endpoints
type httpSourceHandler struct {
	client httpclient.Client
}

// NewHTTPSourceHandler creates a new HTTP endpoint source handler
func NewHTTPSourceHandler() SourceHandler {
	return &httpSourceHandler{
		client: httpclient.NewDefaultClient(0), // Use default timeout
	}
}

// Validate validates the HTTP source configuration
func (*httpSourceHandler) Validate(src *config.SourceConfig) error {
	if src == nil {
		return fmt.Errorf("source configuration cannot be nil")
	}

	if src.Endpoint == "" {
		return fmt.Errorf("endpoint cannot be empty")
	}

	if !strings.HasPrefix(src.Endpoint, "http://") && !strings.HasPrefix(src.Endpoint, "https://") {
		return fmt.Errorf("endpoint must be an http or https URL, got %s", src.Endpoint)
	}

	return nil
}

// FetchRaw retrieves the raw JSON payload from the HTTP endpoint
func (h *httpSourceHandler) FetchRaw(ctx context.Context, src *config.SourceConfig) ([]byte, error) {
	if err := h.Validate(src); err != nil {
		return nil, fmt.Errorf("source validation failed: %w", err)
	}

	data, err := h.client.Get(ctx, src.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", src.Endpoint, err)
	}

	return data, nil
}
