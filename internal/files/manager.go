package files

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gasrate/internal/config"
	"gasrate/internal/dataprocessing"
	apierrors "gasrate/internal/errors"
	"gasrate/internal/infrastructure"
)

// Manager loads analysis inputs from disk and resolves paths against the
// configured directory layout.
type Manager struct {
	paths     *config.Paths
	discovery *Discovery
	logger    *slog.Logger
}

// NewManager creates a new file manager instance
func NewManager(paths *config.Paths, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		paths:     paths,
		discovery: NewDiscovery(paths.DataDir),
		logger:    infrastructure.WithComponent(logger, "file_manager"),
	}
}

// LoadInputs reads every data file in dir into memory. maxFiles > 0 caps
// the number of files; exceeding it is an error rather than a silent cut.
func (m *Manager) LoadInputs(ctx context.Context, dir string, maxFiles int) ([]dataprocessing.Input, error) {
	found, err := m.discovery.FindInputFiles(m.resolvePath(dir))
	if err != nil {
		return nil, err
	}
	if maxFiles > 0 && len(found) > maxFiles {
		return nil, fmt.Errorf("%w: %d files in %s, limit %d", dataprocessing.ErrTooManyFiles, len(found), dir, maxFiles)
	}

	inputs := make([]dataprocessing.Input, 0, len(found))
	for _, f := range found {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := os.ReadFile(f.Path)
		if err != nil {
			return nil, apierrors.NewStorageError("failed to read "+f.Path, err)
		}
		m.logger.DebugContext(ctx, "input file loaded",
			slog.String("file", f.Name),
			slog.Int64("size_bytes", f.Size))

		inputs = append(inputs, dataprocessing.Input{Name: f.Name, Data: bytes.NewReader(data)})
	}

	m.logger.InfoContext(ctx, "input files loaded",
		slog.String("dir", dir),
		slog.Int("files", len(inputs)))
	return inputs, nil
}

// ResolvePath returns the absolute location of path
func (m *Manager) ResolvePath(path string) string {
	return filepath.Clean(m.resolvePath(path))
}

// resolvePath resolves a path relative to the appropriate base directory
func (m *Manager) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	switch {
	case strings.HasPrefix(path, "uploads/"):
		return m.paths.GetUploadPath(strings.TrimPrefix(path, "uploads/"))
	case strings.HasPrefix(path, "reports/"):
		return m.paths.GetReportPath(strings.TrimPrefix(path, "reports/"))
	case strings.HasPrefix(path, "logs/"):
		return m.paths.GetLogPath(strings.TrimPrefix(path, "logs/"))
	default:
		return filepath.Join(m.paths.DataDir, path)
	}
}
