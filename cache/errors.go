package cache

import "errors"

// ErrNotFound indicates the key is absent from a tier.
var ErrNotFound = errors.New("cache entry not found")

// ErrStoreClosed indicates an operation against a closed durable store.
var ErrStoreClosed = errors.New("cache store is closed")
