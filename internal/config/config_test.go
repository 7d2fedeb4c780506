// SPDX-License-Identifier: Apache-2.0

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"

	"github.com/phunnicutt1/cxalloy-equip-mapping-sub002/internal/classify"
	"github.com/phunnicutt1/cxalloy-equip-mapping-sub002/internal/config"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	dictDir := t.TempDir()
	writeFile(t, dictDir, "acronyms.yaml", "acronyms:\n  - {acronym: tmp, expansion: Temperature, priority: 8}\n")

	tests := []struct {
		name           string
		content        string
		wantErr        bool
		errContains    string
		validateOutput func(t *testing.T, cfg *config.Config)
	}{
		{
			name: "full file",
			content: `logging:
  level: debug
  encoding: console
batch:
  strictMode: true
  maxPointsPerEquipment: 200
  skipEmptyFiles: true
  concurrency: 8
dictionaries:
  path: ` + dictDir + `
metadata:
  AHU-1:
    vendor: Trane
    model: UC600
`,
			validateOutput: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.True(t, cfg.Batch.StrictMode)
				assert.Equal(t, 200, cfg.Batch.MaxPointsPerEquipment)
				assert.True(t, cfg.Batch.SkipEmptyFiles)
				assert.Equal(t, 8, cfg.Batch.Concurrency)
				assert.Equal(t, "UC600", cfg.Metadata["AHU-1"].Model)

				tables, err := cfg.LoadDictionary()
				require.NoError(t, err)
				require.Len(t, tables.Acronyms, 1)
			},
		},
		{
			name:    "partial file keeps defaults",
			content: "batch:\n  strictMode: true\n",
			validateOutput: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, 5, cfg.Batch.Concurrency)
				assert.True(t, cfg.Batch.StrictMode)
			},
		},
		{
			name:    "unknown field",
			content: "logging:\n  colour: true\n",
			wantErr: true,
		},
		{
			name:        "bad level",
			content:     "logging:\n  level: loud\n",
			wantErr:     true,
			errContains: "logging.level",
		},
		{
			name:        "missing dictionary directory",
			content:     "dictionaries:\n  path: /does/not/exist\n",
			wantErr:     true,
			errContains: "dictionaries.path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "trionorm.yaml", tt.content)
			cfg, err := config.Load(path)
			if tt.wantErr {
				require.Error(t, err)
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				return
			}
			require.NoError(t, err)
			tt.validateOutput(t, cfg)
		})
	}
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)

	tables, err := cfg.LoadDictionary()
	require.NoError(t, err)
	assert.NotEmpty(t, tables.Acronyms)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Logging.Level = "loud"
	cfg.Logging.Encoding = "xml"
	cfg.Batch.Concurrency = -1
	cfg.Batch.MaxPointsPerEquipment = -1
	cfg.Metadata = classify.StaticMetadata{"AHU-1": {Model: "UC600"}}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 5)
}

func TestValidate_RejectsMetadataKeysDifferingByCase(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Metadata = classify.StaticMetadata{
		"AHU-1": {Vendor: "Trane", Model: "UC600"},
		"ahu-1": {Vendor: "Siemens", Model: "PXC"},
		"VAV-2": {Vendor: "Trane", Model: "UC400"},
	}

	err := cfg.Validate()
	require.Error(t, err)
	require.Len(t, multierr.Errors(err), 1)
	assert.Contains(t, err.Error(), "metadata.ahu-1: differs from AHU-1 only by case")
}

func TestNewLogger(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Logging.Level = "warn"

	logger, err := cfg.NewLogger()
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	cfg.Logging.Development = true
	cfg.Logging.Level = "debug"
	logger, err = cfg.NewLogger()
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}
