package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidationResult describes one scan folder
type PathValidationResult struct {
	Path       string
	IsDir      bool
	Readable   bool
	Writable   bool
	VideoCount int
	Error      error
}

// ValidateScanRoot checks that root can be scanned, and renamed in when
// requireWritable is set. Warnings are non-fatal observations.
func ValidateScanRoot(root string, requireWritable bool) (PathValidationResult, []string, error) {
	result := PathValidationResult{Path: root}
	var warnings []string

	if root == "" {
		result.Error = fmt.Errorf("scan folder is empty")
		return result, nil, result.Error
	}

	realPath, err := filepath.EvalSymlinks(filepath.Clean(root))
	if err != nil {
		result.Error = fmt.Errorf("failed to resolve symlinks: %w", err)
		return result, nil, result.Error
	}
	result.Path = realPath

	info, err := os.Stat(realPath)
	if err != nil {
		result.Error = err
		return result, nil, err
	}
	if !info.IsDir() {
		result.Error = fmt.Errorf("path is not a directory: %s", realPath)
		return result, nil, result.Error
	}
	result.IsDir = true

	result.Readable = checkReadable(realPath)
	if !result.Readable {
		result.Error = fmt.Errorf("path is not readable: %s", realPath)
		return result, nil, result.Error
	}

	if requireWritable {
		if err := ValidatePathDepth(realPath, "rename"); err != nil {
			result.Error = err
			return result, nil, err
		}
		result.Writable = checkWritable(realPath)
		if !result.Writable {
			result.Error = fmt.Errorf("path is not writable (required for rename): %s", realPath)
			return result, nil, result.Error
		}
	}

	files, err := FindVideoFiles(realPath, false)
	if err == nil {
		result.VideoCount = len(files)
		if len(files) == 0 {
			warnings = append(warnings, fmt.Sprintf("No video files directly in %s", realPath))
		}
	}

	return result, warnings, nil
}

func checkReadable(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	_, err = file.Readdirnames(1)
	return err == nil || err.Error() == "EOF"
}

func checkWritable(path string) bool {
	testFile := filepath.Join(path, ".ezrename_write_test")
	file, err := os.Create(testFile)
	if err != nil {
		return false
	}
	file.Close()
	os.Remove(testFile)
	return true
}

// ValidatePathDepth refuses renames rooted at system directories or at
// paths shallower than two levels.
func ValidatePathDepth(path, operation string) error {
	if path == "" {
		return fmt.Errorf("path is empty")
	}

	cleanPath := filepath.Clean(path)

	realPath, err := filepath.EvalSymlinks(cleanPath)
	if err != nil {
		realPath = cleanPath
	}

	protectedPaths := []string{"/", "/mnt", "/home", "/usr", "/etc", "/var", "/tmp", "/opt"}
	for _, protected := range protectedPaths {
		if realPath == protected || cleanPath == protected {
			return fmt.Errorf("refusing to %s on protected path: %s", operation, realPath)
		}
	}

	parts := strings.Split(strings.TrimPrefix(realPath, "/"), "/")
	if len(parts) < 2 {
		return fmt.Errorf("path too shallow for safe %s (minimum 2 levels deep): %s", operation, realPath)
	}

	return nil
}
