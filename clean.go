package cnext

import (
	"path/filepath"
	"strings"
)

// CleanGenerated walks dir and removes every .c/.cpp/.h/.hpp file whose
// first non-blank line carries the cnext:generated marker
// (include_resolver.go), leaving hand-written files untouched.
func CleanGenerated(fs FileSystem, dir string) error {
	return walkAndClean(fs, dir)
}

func walkAndClean(fs FileSystem, dir string) error {
	entries, err := fs.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, name := range entries {
		path := filepath.Join(dir, name)
		if fs.IsDirectory(path) {
			if err := walkAndClean(fs, path); err != nil {
				return err
			}
			continue
		}
		if !isGeneratedOutputExt(path) {
			continue
		}
		content, err := fs.ReadFile(path)
		if err != nil {
			return err
		}
		if !IsGeneratedHeader(content).IsGenerated {
			continue
		}
		if err := fs.RemoveFile(path); err != nil {
			return err
		}
	}
	return nil
}

func isGeneratedOutputExt(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".c", ".cpp", ".h", ".hpp":
		return true
	default:
		return false
	}
}
