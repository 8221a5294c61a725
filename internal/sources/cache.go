package sources

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/otahub/device-registry/internal/config"
	"github.com/otahub/device-registry/internal/extract"
)

// defaultFetchConcurrency bounds the number of sources fetched in parallel
const defaultFetchConcurrency = 4

// CachedSource holds the projected records of one loaded source together
// with its configuration.
type CachedSource struct {
	// Name is the source identifier
	Name string

	// Data is the normalized record sequence, in projection order. It is
	// always a slice, even when the source projected to a single record.
	Data []Record

	// Config is the source descriptor this entry was built from
	Config *config.SourceConfig
}

// Cache is the read-only source cache built once at startup.
//
// Entries are kept as an explicit ordered sequence, not a map: merge-time
// match_from chaining depends on iteration order, and that order is the
// configuration order supplied by the caller. The cache is never mutated
// after LoadSources returns, so the read path needs no locking.
type Cache struct {
	entries []*CachedSource
	index   map[string]int
}

// Len returns the number of loaded sources
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Entries returns the loaded sources in configuration order
func (c *Cache) Entries() []*CachedSource {
	if c == nil {
		return nil
	}
	return c.entries
}

// Lookup scans the named source for the first record whose field equals
// value. Scan order is projection order, so the first matching record wins
// when duplicates exist. Equality is exact, with no type coercion.
func (c *Cache) Lookup(sourceName, field string, value any) (Record, bool) {
	if c == nil {
		return nil, false
	}

	idx, ok := c.index[sourceName]
	if !ok {
		return nil, false
	}

	for _, record := range c.entries[idx].Data {
		fieldValue, ok := record[field]
		if ok && reflect.DeepEqual(fieldValue, value) {
			return record, true
		}
	}

	return nil, false
}

// loadOptions holds the configuration for LoadSources
type loadOptions struct {
	factory SourceHandlerFactory
}

// LoadOption configures LoadSources
type LoadOption func(*loadOptions)

// WithToken sets the access credential used for remote sources
func WithToken(token string) LoadOption {
	return func(opts *loadOptions) {
		opts.factory = NewSourceHandlerFactory(token)
	}
}

// WithHandlerFactory overrides the source handler factory
func WithHandlerFactory(factory SourceHandlerFactory) LoadOption {
	return func(opts *loadOptions) {
		opts.factory = factory
	}
}

// LoadSources fetches and projects every configured source once and returns
// the resulting cache.
//
// Failure is isolated per source: a descriptor missing its name, carrying an
// unknown type, or whose fetch or projection fails is logged and skipped,
// and LoadSources never returns an error. A descriptor reusing an earlier
// name is skipped with a warning; the first entry wins.
//
// Sources are fetched concurrently since they populate disjoint entries, but
// the cache is committed in configuration order in a single pass, so merge
// iteration order always matches the configured order.
func LoadSources(ctx context.Context, srcs []config.SourceConfig, opts ...LoadOption) *Cache {
	options := &loadOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if options.factory == nil {
		options.factory = NewSourceHandlerFactory("")
	}

	cache := &Cache{index: make(map[string]int)}
	if len(srcs) == 0 {
		return cache
	}

	// Resolve handlers and weed out unusable descriptors before spending
	// any I/O on them.
	handlers := make([]SourceHandler, len(srcs))
	seen := make(map[string]bool, len(srcs))
	for i := range srcs {
		src := &srcs[i]

		if src.Name == "" {
			slog.Warn("Source missing 'name' field, skipping")
			continue
		}

		if seen[src.Name] {
			slog.Warn("Duplicate source name, keeping first entry", "source", src.Name)
			continue
		}

		handler, err := options.factory.CreateHandler(src.Type)
		if err != nil {
			slog.Warn("Unknown source type, skipping", "type", src.Type, "source", src.Name)
			continue
		}

		seen[src.Name] = true
		handlers[i] = handler
	}

	results := make([]*CachedSource, len(srcs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(defaultFetchConcurrency)
	for i := range srcs {
		if handlers[i] == nil {
			continue
		}

		src := &srcs[i]
		handler := handlers[i]
		g.Go(func() error {
			data, err := handler.FetchRaw(gctx, src)
			if err != nil {
				slog.Warn("Failed to fetch source", "source", src.Name, "error", err)
				return nil
			}

			entry, err := buildEntry(src, data)
			if err != nil {
				slog.Warn("Failed to load source", "source", src.Name, "error", err)
				return nil
			}

			results[i] = entry
			return nil
		})
	}
	// Per-source failures never surface as group errors.
	_ = g.Wait()

	for _, entry := range results {
		if entry == nil {
			continue
		}
		cache.index[entry.Name] = len(cache.entries)
		cache.entries = append(cache.entries, entry)
		slog.Info("Loaded source", "source", entry.Name, "items", len(entry.Data))
	}

	return cache
}

// buildEntry projects the raw payload of one source and normalizes the
// result to a record sequence.
func buildEntry(src *config.SourceConfig, data []byte) (*CachedSource, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("payload is not valid JSON")
	}

	parsed := gjson.ParseBytes(data)

	var projected any
	if itemSchemas, ok := src.Structure.([]any); ok && len(itemSchemas) > 0 && parsed.IsArray() {
		// Homogeneous list: the first schema element applies to each item.
		projected = extract.ProjectList(parsed, itemSchemas[0])
	} else {
		projected = extract.Project(parsed, src.Structure)
	}

	return &CachedSource{
		Name:   src.Name,
		Data:   normalizeRecords(projected),
		Config: src,
	}, nil
}

// normalizeRecords guarantees the cached data is always a record sequence:
// a single record becomes a one-element slice, an empty projection becomes
// an empty slice.
func normalizeRecords(projected any) []Record {
	switch v := projected.(type) {
	case nil:
		return []Record{}
	case []Record:
		return v
	case Record:
		if len(v) == 0 {
			return []Record{}
		}
		return []Record{v}
	case []any:
		records := make([]Record, 0, len(v))
		for _, item := range v {
			if record, ok := item.(map[string]any); ok {
				records = append(records, record)
			}
		}
		return records
	default:
		// Scalar projections cannot participate in field lookups.
		return []Record{}
	}
}
