// Package repository holds the auditor's data access layer.
package repository

import "errors"

// ErrInvalidLimit is returned by list queries asked for zero or fewer rows.
var ErrInvalidLimit = errors.New("limit must be positive")
