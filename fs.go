package cnext

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// FileSystem is the adapter every disk-touching component goes
// through (§5: "the adapter exposes read/write/exists/isFile/
// isDirectory/mkdir/readdir/stat and is fully mockable in tests").
// OSFileSystem is the production implementation; InMemoryFileSystem
// backs tests and "source mode" compilation.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
	RemoveFile(path string) error
	Exists(path string) bool
	IsFile(path string) bool
	IsDirectory(path string) bool
	Mkdir(path string) error
	ReadDir(path string) ([]string, error)
	Stat(path string) (os.FileInfo, error)
}

// OSFileSystem implements FileSystem against the real disk.
type OSFileSystem struct{}

func NewOSFileSystem() *OSFileSystem { return &OSFileSystem{} }

func (OSFileSystem) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

func (OSFileSystem) WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (OSFileSystem) RemoveFile(path string) error { return os.Remove(path) }

func (OSFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (OSFileSystem) IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (OSFileSystem) IsDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (OSFileSystem) Mkdir(path string) error { return os.MkdirAll(path, 0o755) }

func (OSFileSystem) ReadDir(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

func (OSFileSystem) Stat(path string) (os.FileInfo, error) { return os.Stat(path) }

// InMemoryFileSystem is a fully mockable FileSystem used by tests and
// by "source mode" (in-memory string -> string) compilation.
type InMemoryFileSystem struct {
	files map[string][]byte
	dirs  map[string]bool
}

func NewInMemoryFileSystem() *InMemoryFileSystem {
	return &InMemoryFileSystem{files: map[string][]byte{}, dirs: map[string]bool{"/": true}}
}

func (fs *InMemoryFileSystem) Add(path string, content []byte) {
	fs.files[path] = content
	fs.dirs[filepath.Dir(path)] = true
}

func (fs *InMemoryFileSystem) ReadFile(path string) ([]byte, error) {
	b, ok := fs.files[path]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	return b, nil
}

func (fs *InMemoryFileSystem) WriteFile(path string, data []byte) error {
	fs.Add(path, data)
	return nil
}

func (fs *InMemoryFileSystem) RemoveFile(path string) error {
	if _, ok := fs.files[path]; !ok {
		return fmt.Errorf("file not found: %s", path)
	}
	delete(fs.files, path)
	return nil
}

func (fs *InMemoryFileSystem) Exists(path string) bool {
	_, isFile := fs.files[path]
	return isFile || fs.dirs[path]
}

func (fs *InMemoryFileSystem) IsFile(path string) bool {
	_, ok := fs.files[path]
	return ok
}

func (fs *InMemoryFileSystem) IsDirectory(path string) bool { return fs.dirs[path] }

func (fs *InMemoryFileSystem) Mkdir(path string) error {
	fs.dirs[path] = true
	return nil
}

func (fs *InMemoryFileSystem) ReadDir(path string) ([]string, error) {
	var names []string
	for p := range fs.files {
		if filepath.Dir(p) == path {
			names = append(names, filepath.Base(p))
		}
	}
	sort.Strings(names)
	return names, nil
}

func (fs *InMemoryFileSystem) Stat(path string) (os.FileInfo, error) {
	return nil, fmt.Errorf("Stat not supported by InMemoryFileSystem")
}
