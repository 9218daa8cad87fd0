package domain

import (
	"errors"
	"time"
)

// ErrNotFound marks lookups of unknown or already-consumed download
// identifiers.
var ErrNotFound = errors.New("file not found or has expired")

// Record links a downloadable archive to the scratch directories that must
// be released once the file has been served (or evicted).
type Record struct {
	FileID      string    `json:"file_id"`
	Path        string    `json:"path"`
	ScratchDirs []string  `json:"scratch_dirs"`
	CreatedAt   time.Time `json:"created_at"`
}
