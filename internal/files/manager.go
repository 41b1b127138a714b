package files

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"retailpulse/internal/config"
	"retailpulse/internal/dataprocessing"
	apierrors "retailpulse/internal/errors"
	"retailpulse/internal/validation"
	"retailpulse/pkg/contracts/domain"
)

// Manager stores uploads and exports.
type Manager struct {
	dataDir   string
	exportDir string
	validator *validation.FileValidator
	logger    *slog.Logger
}

// NewManager creates a manager over the data and export directories.
func NewManager(paths config.PathsConfig, validator *validation.FileValidator, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if validator == nil {
		validator = validation.NewFileValidator(logger, 0)
	}
	return &Manager{
		dataDir:   paths.DataDir,
		exportDir: paths.ExportDir,
		validator: validator,
		logger:    logger.With(slog.String("component", "files")),
	}
}

// SaveUpload validates name, copies r into the data directory and returns
// the stored file. At most the validator's size limit is read; a larger
// body fails with ErrPayloadTooLarge and leaves nothing behind.
func (m *Manager) SaveUpload(name string, r io.Reader) (FileInfo, error) {
	if err := m.validator.ValidateFileName(name); err != nil {
		return FileInfo{}, err
	}
	format, err := dataprocessing.DetectFormat(name)
	if err != nil {
		return FileInfo{}, err
	}

	if max := m.validator.MaxBytes(); max > 0 {
		r = io.LimitReader(r, max+1)
	}
	var size int64
	path, err := m.writeAtomic(m.dataDir, name, func(w io.Writer) error {
		n, err := io.Copy(w, r)
		size = n
		if err != nil {
			return err
		}
		return m.validator.ValidateSize(n)
	})
	if err != nil {
		return FileInfo{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, apierrors.NewStorageError("failed to stat upload", err)
	}
	m.logger.Info("dataset stored",
		slog.String("file", name),
		slog.Int64("size_bytes", size))
	return FileInfo{Path: path, Name: name, Format: string(format), Size: size, ModTime: info.ModTime()}, nil
}

// WriteExport writes an export file called name and returns its path.
func (m *Manager) WriteExport(name string, write func(w io.Writer) error) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", apierrors.NewAppValidationError(fmt.Sprintf("invalid export name %q", name))
	}
	path, err := m.writeAtomic(m.exportDir, name, write)
	if err != nil {
		return "", err
	}
	m.logger.Info("export written", slog.String("path", path))
	return path, nil
}

// ReadDataset validates the dataset file at path and decodes its rows.
func (m *Manager) ReadDataset(path string) ([]domain.RawRow, error) {
	if err := m.validator.ValidateInputFile(path); err != nil {
		return nil, err
	}
	return dataprocessing.ReadFile(path)
}

// CheckExportDir creates the export directory and verifies it is writable.
func (m *Manager) CheckExportDir() error {
	return m.validator.ValidateOutputDirectory(m.exportDir)
}

// writeAtomic runs write against a temporary file in dir and renames it to
// name once write and the flush succeed.
func (m *Manager) writeAtomic(dir, name string, write func(w io.Writer) error) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", apierrors.NewStorageError("failed to create directory", err).WithContext("directory", dir)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-"+name+"-*")
	if err != nil {
		return "", apierrors.NewStorageError("failed to create temporary file", err)
	}
	cleanup := func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}

	if err := write(tmp); err != nil {
		cleanup()
		var apiErr *apierrors.APIError
		var appErr *apierrors.AppError
		if errors.As(err, &apiErr) || errors.As(err, &appErr) {
			return "", err
		}
		return "", apierrors.NewStorageError("failed to write file", err).WithContext("file", name)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return "", apierrors.NewStorageError("failed to flush file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", apierrors.NewStorageError("failed to close file", err)
	}

	path := filepath.Join(dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", apierrors.NewStorageError("failed to move file into place", err)
	}
	return path, nil
}
