package domain

import "errors"

// Error kinds the HTTP boundary maps to status codes. Call sites wrap them
// with fmt.Errorf("%w: detail", ...) so errors.Is keeps matching while the
// message stays descriptive.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrMissingShapefile    = errors.New("no .shp file found in the archive")
	ErrIncompleteShapefile = errors.New("incomplete shapefile")
	ErrMissingSourceCRS    = errors.New("no CRS information found in shapefile")
)

// IsClientError reports whether err is one of the request/domain failures
// that translate to HTTP 400; everything else is treated as unexpected.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrMissingShapefile) ||
		errors.Is(err, ErrIncompleteShapefile) ||
		errors.Is(err, ErrMissingSourceCRS)
}
