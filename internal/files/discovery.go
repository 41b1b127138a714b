package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"retailpulse/internal/dataprocessing"
	apierrors "retailpulse/internal/errors"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string    `json:"-"`
	Name    string    `json:"name"`
	Format  string    `json:"format"`
	Size    int64     `json:"size_bytes"`
	ModTime time.Time `json:"modified_at"`
}

// Discovery lists dataset files in one directory.
type Discovery struct {
	dir string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(dir string) *Discovery {
	return &Discovery{dir: dir}
}

// Dir is the directory searched.
func (d *Discovery) Dir() string { return d.dir }

// FindDatasets returns every readable dataset file, newest first. A
// missing directory yields no files.
func (d *Discovery) FindDatasets() ([]FileInfo, error) {
	entries, err := os.ReadDir(d.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", d.dir, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || isScratch(entry.Name()) {
			continue
		}
		format, err := dataprocessing.DetectFormat(entry.Name())
		if err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(d.dir, entry.Name()),
			Name:    entry.Name(),
			Format:  string(format),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		if files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].Name < files[j].Name
		}
		return files[i].ModTime.After(files[j].ModTime)
	})
	return files, nil
}

// Find returns the dataset called name.
func (d *Discovery) Find(name string) (FileInfo, error) {
	files, err := d.FindDatasets()
	if err != nil {
		return FileInfo{}, err
	}
	for _, f := range files {
		if f.Name == name {
			return f, nil
		}
	}
	return FileInfo{}, apierrors.NewNotFoundError("dataset " + name)
}

// GetLatestFile returns the most recently modified file from a list
func GetLatestFile(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}

	latest := files[0]
	for _, file := range files[1:] {
		if file.ModTime.After(latest.ModTime) {
			latest = file
		}
	}
	return latest, true
}

// isScratch matches hidden files, Excel lock files and in-flight writes.
func isScratch(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$")
}
