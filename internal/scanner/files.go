package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// VideoExts are the extensions a scan picks up
var VideoExts = []string{".mkv", ".mp4", ".m4v", ".mov", ".avi", ".ts", ".wmv", ".webm", ".mpg", ".mpeg", ".m2ts"}

func isVideoFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, videoExt := range VideoExts {
		if ext == videoExt {
			return true
		}
	}
	return false
}

// IsVideoFile reports whether path has a video extension
func IsVideoFile(path string) bool {
	return isVideoFile(path)
}

// FindVideoFiles lists video files under root, sorted by path. Hidden
// directories are skipped when walking recursively.
func FindVideoFiles(root string, recursive bool) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scan folder not accessible: %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan folder is not a directory: %s", root)
	}

	var files []string

	if !recursive {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", root, err)
		}
		for _, entry := range entries {
			if entry.Type().IsRegular() && isVideoFile(entry.Name()) {
				files = append(files, filepath.Join(root, entry.Name()))
			}
		}
		sort.Strings(files)
		return files, nil
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && isVideoFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}
