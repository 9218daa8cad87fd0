// Package scratch manages the ephemeral, request-scoped directories used
// for archive extraction and output staging.
package scratch

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// New creates a fresh scratch directory under root. An empty root falls
// back to the system temp directory.
func New(root string) (string, error) {
	if root == "" {
		root = os.TempDir()
	}
	dir := filepath.Join(root, "reproject-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create scratch dir: %w", err)
	}
	return dir, nil
}

// Remove deletes a scratch directory and everything under it. Removing a
// directory that is already gone is not an error, so cleanup stays
// idempotent no matter which owner runs last.
func Remove(dir string) error {
	if dir == "" {
		return nil
	}
	return os.RemoveAll(dir)
}

// RemoveAll removes every directory in dirs and reports the first error.
func RemoveAll(dirs ...string) error {
	var first error
	for _, d := range dirs {
		if err := Remove(d); err != nil && first == nil {
			first = err
		}
	}
	return first
}
