package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDirFor creates the directory that will hold the file at path and
// returns it. Relative paths resolve against the working directory.
func EnsureDirFor(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", path, err)
	}

	dir := filepath.Dir(abs)

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}
