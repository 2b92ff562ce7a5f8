package cache

import "errors"

var (
	// ErrInvalidArgument marks bad caller input: a reserved character in a
	// key, an unsupported ttl type or a nil bulk sequence. It is always
	// returned before the store is touched.
	ErrInvalidArgument = errors.New("cache: invalid argument")

	// ErrStorage marks a failure of the backing store itself.
	ErrStorage = errors.New("cache: storage failure")
)
