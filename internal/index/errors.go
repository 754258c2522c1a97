package index

import "errors"

// ErrLocked indicates another process holds the index lock.
var ErrLocked = errors.New("index is locked by another process")
