package sources

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otahub/device-registry/internal/config"
)

func TestLocalSourceHandler_Validate(t *testing.T) {
	t.Parallel()

	handler := NewLocalSourceHandler()

	tests := []struct {
		name        string
		src         *config.SourceConfig
		expectError bool
	}{
		{
			name:        "valid configuration",
			src:         &config.SourceConfig{Name: "specs", Type: config.SourceTypeLocal, File: "specs.json"},
			expectError: false,
		},
		{
			name:        "nil configuration",
			src:         nil,
			expectError: true,
		},
		{
			name:        "missing file path",
			src:         &config.SourceConfig{Name: "specs", Type: config.SourceTypeLocal},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := handler.Validate(tt.src)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLocalSourceHandler_FetchRaw(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "specs.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"model":"X1"}]`), 0o600))

	handler := NewLocalSourceHandler()
	data, err := handler.FetchRaw(t.Context(), &config.SourceConfig{Name: "specs", File: path})

	require.NoError(t, err)
	assert.JSONEq(t, `[{"model":"X1"}]`, string(data))
}

func TestLocalSourceHandler_FetchRaw_MissingFile(t *testing.T) {
	t.Parallel()

	handler := NewLocalSourceHandler()
	data, err := handler.FetchRaw(t.Context(), &config.SourceConfig{
		Name: "specs",
		File: filepath.Join(t.TempDir(), "missing.json"),
	})

	require.Error(t, err)
	assert.Nil(t, data)
	assert.Contains(t, err.Error(), "file not found")
}
