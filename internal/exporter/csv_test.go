package exporter

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gasrate/internal/config"
	"gasrate/internal/shared/testutil"
)

func TestCSVWriter_WriteCSV(t *testing.T) {
	paths, err := config.ResolvePaths(config.PathsConfig{BaseDir: t.TempDir()})
	require.NoError(t, err)

	logger, handler := testutil.NewTestLogger(t)
	w := NewCSVWriter(paths, logger)

	tests := []struct {
		name     string
		path     string
		options  WriteOptions
		wantPath string
		want     string
	}{
		{
			name:     "relative path lands in reports",
			path:     "nested/out.csv",
			options:  WriteOptions{Headers: []string{"a", "b"}, Records: [][]string{{"1", "2,5"}}},
			wantPath: filepath.Join(paths.ReportsDir, "nested", "out.csv"),
			want:     "a,b\n1,\"2,5\"\n",
		},
		{
			name:    "absolute path with BOM",
			path:    filepath.Join(t.TempDir(), "bom.csv"),
			options: WriteOptions{Headers: []string{"가열로명"}, BOMPrefix: true},
			want:    "\xEF\xBB\xBF가열로명\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := w.WriteCSV(tt.path, tt.options)
			require.NoError(t, err)
			if tt.wantPath != "" {
				assert.Equal(t, tt.wantPath, got)
			}

			content, err := os.ReadFile(got)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(content))
		})
	}

	assert.True(t, handler.ContainsMessage("Writing CSV file"))
}

func TestCSVWriter_WriteCSV_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w := NewCSVWriter(nil, nil)

	_, err := w.WriteCSV(path, WriteOptions{Records: [][]string{{"long", "row"}, {"second"}}})
	require.NoError(t, err)
	_, err = w.WriteCSV(path, WriteOptions{Records: [][]string{{"x"}}})
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x\n", string(content))
}

func TestCSVWriter_WriteCSV_Error(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := NewCSVWriter(nil, nil).WriteCSV(filepath.Join(blocker, "out.csv"), WriteOptions{})
	assert.Error(t, err)
}

func TestWriteCSV_Stream(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeCSV(&buf, tableOptions(remainderTable(sampleResult().Remainders), false)))
	assert.Equal(t, "last_date,furnace_id,unallocated_gas\n2024-03-04,F1,\"1,500\"\n", buf.String())
}
