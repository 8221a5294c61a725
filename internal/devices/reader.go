// Package devices exposes unified device queries: primary records from the
// OTA catalog enriched with fields from the configured auxiliary sources.
package devices

import (
	"github.com/otahub/device-registry/internal/catalog"
	"github.com/otahub/device-registry/internal/sources"
)

// Record is one device record.
type Record = map[string]any

// CatalogReader supplies the primary device records
type CatalogReader interface {
	// GetDeviceInfo returns the record whose idField equals idValue, or
	// nil when no record matches
	GetDeviceInfo(idField, idValue string) (catalog.Record, error)

	// GetAllDevices returns every catalog record
	GetAllDevices() ([]catalog.Record, error)

	// GetAllJSONFiles returns the catalog files
	GetAllJSONFiles() ([]catalog.FileInfo, error)
}

// Reader answers device queries against the catalog, merging in the source
// cache built at startup. The cache is read-only, so a Reader is safe for
// concurrent use.
type Reader struct {
	catalog CatalogReader
	cache   *sources.Cache
}

// NewReader creates a device reader over the given catalog and source cache
func NewReader(catalogReader CatalogReader, cache *sources.Cache) *Reader {
	return &Reader{
		catalog: catalogReader,
		cache:   cache,
	}
}

// GetDeviceInfo returns the device identified by idField/idValue with merged
// source data, or nil when the catalog has no such device. Catalog errors
// propagate untouched.
func (r *Reader) GetDeviceInfo(idField, idValue string) (Record, error) {
	device, err := r.catalog.GetDeviceInfo(idField, idValue)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, nil
	}

	// With no sources configured the record goes out as-is, skipping the
	// copy the merge would make.
	if r.cache.Len() == 0 {
		return device, nil
	}

	return r.mergeSources(device), nil
}

// GetAllDevices returns all catalog devices with merged source data, in
// catalog order.
func (r *Reader) GetAllDevices() ([]Record, error) {
	devices, err := r.catalog.GetAllDevices()
	if err != nil {
		return nil, err
	}

	if r.cache.Len() == 0 {
		return devices, nil
	}

	merged := make([]Record, 0, len(devices))
	for _, device := range devices {
		merged = append(merged, r.mergeSources(device))
	}

	return merged, nil
}

// GetAllJSONFiles returns the catalog files. No merge logic is involved.
func (r *Reader) GetAllJSONFiles() ([]catalog.FileInfo, error) {
	return r.catalog.GetAllJSONFiles()
}
