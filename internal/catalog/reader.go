// Package catalog reads the primary OTA device records from configured
// catalog directories.
package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/otahub/device-registry/internal/config"
	"github.com/otahub/device-registry/internal/versions"
)

// Record is one device record as read from an OTA JSON file.
type Record = map[string]any

// FileInfo describes one catalog JSON file
type FileInfo struct {
	// Type is the catalog label the file belongs to
	Type string `json:"type"`

	// Directory is the configured catalog directory
	Directory string `json:"directory"`

	// File is the file name within the directory
	File string `json:"file"`
}

// Reader reads device records from the configured OTA catalog directories.
// Files are re-read on every call; the reader holds no cache, so catalog
// updates are picked up without a restart.
type Reader struct {
	entries []config.CatalogConfig
}

// NewReader creates a catalog reader over the given directories
func NewReader(entries []config.CatalogConfig) *Reader {
	return &Reader{entries: entries}
}

// GetAllJSONFiles returns every JSON file in the configured catalog
// directories, in configuration order then directory order.
func (r *Reader) GetAllJSONFiles() ([]FileInfo, error) {
	files := []FileInfo{}

	for _, entry := range r.entries {
		dirEntries, err := os.ReadDir(entry.Directory)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog directory %s: %w", entry.Directory, err)
		}

		for _, dirEntry := range dirEntries {
			if dirEntry.IsDir() || !strings.EqualFold(filepath.Ext(dirEntry.Name()), ".json") {
				continue
			}
			files = append(files, FileInfo{
				Type:      entry.Type,
				Directory: entry.Directory,
				File:      dirEntry.Name(),
			})
		}
	}

	return files, nil
}

// GetAllDevices returns every device record in the catalog. A file holding
// a JSON array contributes one record per object element. Malformed files
// are logged and skipped; directory-level errors propagate.
func (r *Reader) GetAllDevices() ([]Record, error) {
	files, err := r.GetAllJSONFiles()
	if err != nil {
		return nil, err
	}

	devices := []Record{}
	for _, info := range files {
		path := filepath.Join(info.Directory, info.File)

		//nolint:gosec // Paths come from the configured catalog directories
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
		}

		records, err := decodeDeviceFile(data)
		if err != nil {
			slog.Warn("Skipping malformed catalog file", "file", path, "error", err)
			continue
		}

		devices = append(devices, records...)
	}

	return devices, nil
}

// GetDeviceInfo returns the device record whose idField equals idValue, or
// nil when no record matches. When several records match (a device with
// multiple OTA releases), the one carrying the newest version field wins.
func (r *Reader) GetDeviceInfo(idField, idValue string) (Record, error) {
	devices, err := r.GetAllDevices()
	if err != nil {
		return nil, err
	}

	var best Record
	for _, device := range devices {
		value, ok := device[idField].(string)
		if !ok || value != idValue {
			continue
		}

		if best == nil {
			best = device
			continue
		}

		bestVersion, _ := best["version"].(string)
		candidateVersion, _ := device["version"].(string)
		if candidateVersion != "" && versions.IsNewerVersion(candidateVersion, bestVersion) {
			best = device
		}
	}

	return best, nil
}

// decodeDeviceFile decodes a catalog file into device records. The file may
// hold a single device object or an array of them.
func decodeDeviceFile(data []byte) ([]Record, error) {
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	switch v := payload.(type) {
	case map[string]any:
		return []Record{v}, nil
	case []any:
		records := make([]Record, 0, len(v))
		for i, item := range v {
			record, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("element %d is not an object", i)
			}
			records = append(records, record)
		}
		return records, nil
	default:
		return nil, fmt.Errorf("expected object or array, got %T", payload)
	}
}
