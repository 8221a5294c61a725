package devices

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otahub/device-registry/internal/catalog"
	"github.com/otahub/device-registry/internal/config"
	"github.com/otahub/device-registry/internal/sources"
)

// fakeCatalog serves fixed records in place of the OTA catalog reader.
type fakeCatalog struct {
	devices []catalog.Record
	files   []catalog.FileInfo
	err     error
}

func (f *fakeCatalog) GetDeviceInfo(idField, idValue string) (catalog.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, device := range f.devices {
		if value, ok := device[idField].(string); ok && value == idValue {
			return device, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) GetAllDevices() ([]catalog.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.devices, nil
}

func (f *fakeCatalog) GetAllJSONFiles() ([]catalog.FileInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.files, nil
}

// writeSourceFile drops a local source payload into a temp dir and returns
// its path, so tests run the real local fetch and projection pipeline.
func writeSourceFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReader_GetDeviceInfo_MergesSourceFields(t *testing.T) {
	t.Parallel()

	specsPath := writeSourceFile(t, `[{"model":"X1","ram":"8GB"}]`)
	cache := sources.LoadSources(t.Context(), []config.SourceConfig{
		{Name: "specs", Type: config.SourceTypeLocal, File: specsPath, LookupField: "model"},
	})

	reader := NewReader(&fakeCatalog{
		devices: []catalog.Record{{"id": "d1", "model": "X1"}},
	}, cache)

	device, err := reader.GetDeviceInfo("id", "d1")
	require.NoError(t, err)

	assert.Equal(t, Record{
		"id":          "d1",
		"model":       "X1",
		"specs_model": "X1",
		"specs_ram":   "8GB",
	}, device)
}

func TestReader_GetDeviceInfo_NoSourcesReturnsUnmodified(t *testing.T) {
	t.Parallel()

	primary := catalog.Record{"id": "d1", "model": "X1"}
	reader := NewReader(&fakeCatalog{devices: []catalog.Record{primary}},
		sources.LoadSources(t.Context(), nil))

	device, err := reader.GetDeviceInfo("id", "d1")
	require.NoError(t, err)
	assert.Equal(t, Record(primary), device)
}

func TestReader_GetDeviceInfo_AbsentDevice(t *testing.T) {
	t.Parallel()

	reader := NewReader(&fakeCatalog{}, sources.LoadSources(t.Context(), nil))

	device, err := reader.GetDeviceInfo("id", "unknown")
	require.NoError(t, err)
	assert.Nil(t, device)
}

func TestReader_GetDeviceInfo_CatalogErrorPropagates(t *testing.T) {
	t.Parallel()

	reader := NewReader(&fakeCatalog{err: fmt.Errorf("catalog unreachable")},
		sources.LoadSources(t.Context(), nil))

	_, err := reader.GetDeviceInfo("id", "d1")
	assert.ErrorContains(t, err, "catalog unreachable")
}

func TestReader_GetDeviceInfo_FailedSourceContributesNothing(t *testing.T) {
	t.Parallel()

	cache := sources.LoadSources(t.Context(), []config.SourceConfig{
		{
			Name:        "specs",
			Type:        config.SourceTypeLocal,
			File:        filepath.Join(t.TempDir(), "missing.json"),
			LookupField: "model",
		},
	})

	reader := NewReader(&fakeCatalog{
		devices: []catalog.Record{{"id": "d1"}},
	}, cache)

	device, err := reader.GetDeviceInfo("id", "d1")
	require.NoError(t, err)
	assert.Equal(t, Record{"id": "d1"}, device)
}

func TestReader_GetDeviceInfo_NoMatchRoundTrip(t *testing.T) {
	t.Parallel()

	specsPath := writeSourceFile(t, `[{"model":"X9","ram":"8GB"}]`)
	cache := sources.LoadSources(t.Context(), []config.SourceConfig{
		{Name: "specs", Type: config.SourceTypeLocal, File: specsPath, LookupField: "model"},
	})

	reader := NewReader(&fakeCatalog{
		devices: []catalog.Record{{"id": "d1", "model": "X1"}},
	}, cache)

	device, err := reader.GetDeviceInfo("id", "d1")
	require.NoError(t, err)
	assert.Equal(t, Record{"id": "d1", "model": "X1"}, device,
		"a record merged with zero matching sources equals the original")
}

func TestReader_MergeSkipsSources(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		primary catalog.Record
		source  config.SourceConfig
		payload string
	}{
		{
			name:    "no lookup_field configured",
			primary: catalog.Record{"id": "d1", "model": "X1"},
			source:  config.SourceConfig{Name: "specs", Type: config.SourceTypeLocal},
			payload: `[{"model":"X1","ram":"8GB"}]`,
		},
		{
			name:    "match value missing from record",
			primary: catalog.Record{"id": "d1"},
			source:  config.SourceConfig{Name: "specs", Type: config.SourceTypeLocal, LookupField: "model"},
			payload: `[{"model":"X1","ram":"8GB"}]`,
		},
		{
			name:    "empty string match value",
			primary: catalog.Record{"id": "d1", "model": ""},
			source:  config.SourceConfig{Name: "specs", Type: config.SourceTypeLocal, LookupField: "model"},
			payload: `[{"model":"","ram":"8GB"}]`,
		},
		{
			name:    "zero numeric match value",
			primary: catalog.Record{"id": "d1", "weight": float64(0)},
			source:  config.SourceConfig{Name: "specs", Type: config.SourceTypeLocal, LookupField: "weight"},
			payload: `[{"weight":0,"ram":"8GB"}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := tt.source
			src.File = writeSourceFile(t, tt.payload)
			cache := sources.LoadSources(t.Context(), []config.SourceConfig{src})

			reader := NewReader(&fakeCatalog{devices: []catalog.Record{tt.primary}}, cache)

			device, err := reader.GetDeviceInfo("id", "d1")
			require.NoError(t, err)
			assert.Equal(t, Record(tt.primary), device, "skipped sources must not alter the record")
		})
	}
}

func TestReader_MatchFromChaining(t *testing.T) {
	t.Parallel()

	// Source A matches on the primary's "board" and contributes A's
	// "platform" as board_db_platform; source B matches its own records
	// against that merged field. B can only match if it reads the record
	// after A's merge step.
	boardPath := writeSourceFile(t, `[{"board":"sdm660","platform":"snapdragon-660"}]`)
	socPath := writeSourceFile(t, `[{"platform":"snapdragon-660","gpu":"Adreno 512"}]`)

	cache := sources.LoadSources(t.Context(), []config.SourceConfig{
		{Name: "board_db", Type: config.SourceTypeLocal, File: boardPath, LookupField: "board"},
		{Name: "soc_db", Type: config.SourceTypeLocal, File: socPath, LookupField: "platform", MatchFrom: "board_db_platform"},
	})

	reader := NewReader(&fakeCatalog{
		devices: []catalog.Record{{"id": "d1", "board": "sdm660"}},
	}, cache)

	device, err := reader.GetDeviceInfo("id", "d1")
	require.NoError(t, err)

	assert.Equal(t, "snapdragon-660", device["board_db_platform"])
	assert.Equal(t, "Adreno 512", device["soc_db_gpu"],
		"chained source must resolve its match key from the accumulating record")
}

func TestReader_GetAllDevices(t *testing.T) {
	t.Parallel()

	specsPath := writeSourceFile(t, `[{"model":"X1","ram":"8GB"},{"model":"X2","ram":"12GB"}]`)
	cache := sources.LoadSources(t.Context(), []config.SourceConfig{
		{Name: "specs", Type: config.SourceTypeLocal, File: specsPath, LookupField: "model"},
	})

	reader := NewReader(&fakeCatalog{
		devices: []catalog.Record{
			{"id": "d1", "model": "X1"},
			{"id": "d2", "model": "X2"},
			{"id": "d3", "model": "X3"},
		},
	}, cache)

	devices, err := reader.GetAllDevices()
	require.NoError(t, err)

	require.Len(t, devices, 3, "catalog order and count must be preserved")
	assert.Equal(t, "8GB", devices[0]["specs_ram"])
	assert.Equal(t, "12GB", devices[1]["specs_ram"])
	assert.NotContains(t, devices[2], "specs_ram")
}

func TestReader_QueriesAreIdempotent(t *testing.T) {
	t.Parallel()

	specsPath := writeSourceFile(t, `[{"model":"X1","ram":"8GB"}]`)
	cache := sources.LoadSources(t.Context(), []config.SourceConfig{
		{Name: "specs", Type: config.SourceTypeLocal, File: specsPath, LookupField: "model"},
	})

	reader := NewReader(&fakeCatalog{
		devices: []catalog.Record{{"id": "d1", "model": "X1"}},
	}, cache)

	first, err := reader.GetDeviceInfo("id", "d1")
	require.NoError(t, err)
	second, err := reader.GetDeviceInfo("id", "d1")
	require.NoError(t, err)

	assert.Equal(t, first, second)

	// The cached source data itself must be untouched by merging.
	require.Equal(t, 1, cache.Len())
	assert.Equal(t, []sources.Record{{"model": "X1", "ram": "8GB"}}, cache.Entries()[0].Data)
}

func TestReader_GetAllJSONFiles(t *testing.T) {
	t.Parallel()

	files := []catalog.FileInfo{{Type: "stable", Directory: "/ota", File: "lavender.json"}}
	reader := NewReader(&fakeCatalog{files: files}, sources.LoadSources(t.Context(), nil))

	got, err := reader.GetAllJSONFiles()
	require.NoError(t, err)
	assert.Equal(t, files, got)
}
