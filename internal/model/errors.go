package model

import (
	"errors"
	"fmt"
)

// ErrScanNotFound is returned when a scan id is unknown to the store.
var ErrScanNotFound = errors.New("scan not found")

// ValidationError marks bad caller input. The server maps it to 400.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
