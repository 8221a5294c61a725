package sources

import (
	"fmt"

	"github.com/otahub/device-registry/internal/config"
)

// defaultSourceHandlerFactory is the default implementation of SourceHandlerFactory
type defaultSourceHandlerFactory struct {
	token string
}

var _ SourceHandlerFactory = (*defaultSourceHandlerFactory)(nil)

// NewSourceHandlerFactory creates a new source handler factory. The token is
// handed to handlers that authenticate against remote repositories; it may
// be empty.
func NewSourceHandlerFactory(token string) SourceHandlerFactory {
	return &defaultSourceHandlerFactory{token: token}
}

// CreateHandler creates a source handler for the given source type
func (f *defaultSourceHandlerFactory) CreateHandler(sourceType string) (SourceHandler, error) {
	switch sourceType {
	case config.SourceTypeRemote:
		return NewRemoteSourceHandler(f.token), nil
	case config.SourceTypeLocal:
		return NewLocalSourceHandler(), nil
	case config.SourceTypeHTTP:
		return NewHTTPSourceHandler(), nil
	default:
		return nil, fmt.Errorf("unsupported source type: %s", sourceType)
	}
}
