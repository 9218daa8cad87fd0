// Package shapefile validates zipped shapefile bundles and handles the zip
// packing and unpacking around them.
package shapefile

import (
	"archive/zip"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/openterra/reproject-backend/internal/reproject/domain"
	"github.com/openterra/reproject-backend/internal/scratch"
)

// requiredExts are the sidecars every complete shapefile bundle must carry.
var requiredExts = []string{".shp", ".shx", ".dbf", ".prj"}

// Validate extracts the archive into a fresh scratch directory and checks
// that a complete shapefile bundle is present at its top level. On success
// the caller owns the returned scratch directory and must eventually remove
// it; on failure the directory has already been removed.
//
// Archives holding several .shp candidates resolve to the lexicographically
// smallest name, so the choice is stable across file systems.
func Validate(archivePath, scratchRoot string) (string, string, error) {
	if !strings.EqualFold(filepath.Ext(archivePath), ".zip") {
		return "", "", fmt.Errorf("%w: input must be a zipped shapefile", domain.ErrInvalidInput)
	}

	dir, err := scratch.New(scratchRoot)
	if err != nil {
		return "", "", err
	}

	shpPath, err := validateExtracted(archivePath, dir)
	if err != nil {
		scratch.Remove(dir)
		return "", "", err
	}
	return shpPath, dir, nil
}

func validateExtracted(archivePath, dir string) (string, error) {
	if err := Extract(archivePath, dir); err != nil {
		if errors.Is(err, zip.ErrFormat) {
			return "", fmt.Errorf("%w: the provided file is not a valid zip archive", domain.ErrInvalidInput)
		}
		return "", err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("scan extracted archive: %w", err)
	}

	var candidates []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".shp") {
			candidates = append(candidates, e.Name())
		}
	}
	if len(candidates) == 0 {
		return "", domain.ErrMissingShapefile
	}
	sort.Strings(candidates)
	shpName := candidates[0]

	base := strings.TrimSuffix(shpName, filepath.Ext(shpName))
	var missing []string
	for _, ext := range requiredExts {
		if _, err := os.Stat(filepath.Join(dir, base+ext)); err != nil {
			missing = append(missing, ext)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: missing %s", domain.ErrIncompleteShapefile, strings.Join(missing, ", "))
	}

	return filepath.Join(dir, shpName), nil
}
