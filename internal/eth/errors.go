package eth

import "errors"

// ErrNotBound is returned when a requested token is not part of the pool.
var ErrNotBound = errors.New("token not bound to pool")
