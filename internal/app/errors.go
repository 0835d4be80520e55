package app

import "errors"

// Application-level errors. Handlers map them onto transport status codes.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrCatalogLoad      = errors.New("baseline catalog could not be loaded")
)

// IsClientError reports whether err was caused by the request rather than by
// the service.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidOperation)
}
