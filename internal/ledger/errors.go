package ledger

import "errors"

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("ledger: record not found")
