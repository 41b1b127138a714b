package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"retailpulse/internal/dataprocessing"
	apierrors "retailpulse/internal/errors"
)

// FileValidator checks dataset files and output directories before any
// reader or writer touches them.
type FileValidator struct {
	logger   *slog.Logger
	maxBytes int64
}

// NewFileValidator creates a validator. maxBytes <= 0 disables the size check.
func NewFileValidator(logger *slog.Logger, maxBytes int64) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger:   logger.With(slog.String("component", "file_validator")),
		maxBytes: maxBytes,
	}
}

// MaxBytes is the configured size limit.
func (v *FileValidator) MaxBytes() int64 { return v.maxBytes }

// ValidateFileName accepts a bare file name with a supported dataset
// extension. Paths, hidden files and Excel lock files are rejected.
func (v *FileValidator) ValidateFileName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return apierrors.NewAppValidationError(fmt.Sprintf("invalid file name %q", name))
	}
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
		return apierrors.NewAppValidationError(fmt.Sprintf("%q is a hidden or temporary file", name))
	}
	if _, err := dataprocessing.DetectFormat(name); err != nil {
		return err
	}
	return nil
}

// ValidateSize rejects an empty file or one over the limit.
func (v *FileValidator) ValidateSize(size int64) error {
	if size == 0 {
		return apierrors.NewAppValidationError("file is empty")
	}
	if v.maxBytes > 0 && size > v.maxBytes {
		return apierrors.ErrPayloadTooLarge.WithDetails(map[string]any{
			"size_bytes": size,
			"max_bytes":  v.maxBytes,
		})
	}
	return nil
}

// ValidateInputFile checks that path is a readable dataset file within limits.
func (v *FileValidator) ValidateInputFile(path string) error {
	if err := v.ValidateFileName(filepath.Base(path)); err != nil {
		return err
	}
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		v.logger.Error("input file does not exist", slog.String("file", path))
		return apierrors.NewNotFoundError("file " + filepath.Base(path))
	}
	if err != nil {
		return apierrors.NewStorageError("failed to stat input file", err).WithContext("file", path)
	}
	if info.IsDir() {
		return apierrors.NewAppValidationError(fmt.Sprintf("%s is a directory, not a file", path))
	}
	if err := v.ValidateSize(info.Size()); err != nil {
		return err
	}

	v.logger.Debug("input file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputDirectory creates dir if needed and verifies it is writable.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		v.logger.Error("failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apierrors.NewStorageError("failed to create output directory", err).WithContext("directory", dir)
	}

	probe, err := os.CreateTemp(dir, ".write_test_*")
	if err != nil {
		v.logger.Error("output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apierrors.NewStorageError("output directory is not writable", err).WithContext("directory", dir)
	}
	probe.Close()
	os.Remove(probe.Name())
	return nil
}
