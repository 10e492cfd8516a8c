package database

import "errors"

// ErrRecordNotFound reports that no row exists for the requested key.
// Callers distinguish an empty cache from a query failure with errors.Is.
var ErrRecordNotFound = errors.New("record not found")
