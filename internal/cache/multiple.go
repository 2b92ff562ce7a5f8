package cache

import (
	"context"
	"fmt"
	"iter"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// GetMultiple looks up each key in order through s. The result keeps the
// order of keys; a repeated key keeps its first position. The first error
// aborts the call and no partial result is returned.
func GetMultiple[V any](ctx context.Context, s SingleKey[V], keys iter.Seq[string], def V) (*orderedmap.OrderedMap[string, V], error) {
	if keys == nil {
		return nil, fmt.Errorf("%w: GetMultiple expects a sequence of keys", ErrInvalidArgument)
	}

	values := orderedmap.New[string, V]()
	for key := range keys {
		v, err := s.Get(ctx, key, def)
		if err != nil {
			return nil, err
		}
		values.Set(key, v)
	}
	return values, nil
}

// SetMultiple stores each pair in order through s and reports whether every
// Set succeeded. The first error aborts the call; pairs already stored stay.
func SetMultiple[V any](ctx context.Context, s SingleKey[V], values iter.Seq2[string, V], ttl TTL) (bool, error) {
	if values == nil {
		return false, fmt.Errorf("%w: SetMultiple expects a sequence of key-value pairs", ErrInvalidArgument)
	}

	result := true
	for key, value := range values {
		ok, err := s.Set(ctx, key, value, ttl)
		if err != nil {
			return false, err
		}
		result = ok && result
	}
	return result, nil
}

// DeleteMultiple deletes each key in order through s and reports whether
// every Delete succeeded. The first error aborts the call.
func DeleteMultiple[V any](ctx context.Context, s SingleKey[V], keys iter.Seq[string]) (bool, error) {
	if keys == nil {
		return false, fmt.Errorf("%w: DeleteMultiple expects a sequence of keys", ErrInvalidArgument)
	}

	result := true
	for key := range keys {
		ok, err := s.Delete(ctx, key)
		if err != nil {
			return false, err
		}
		result = ok && result
	}
	return result, nil
}

// Pairs iterates m from oldest to newest entry, for feeding SetMultiple.
func Pairs[V any](m *orderedmap.OrderedMap[string, V]) iter.Seq2[string, V] {
	if m == nil {
		return nil
	}
	return func(yield func(string, V) bool) {
		for p := m.Oldest(); p != nil; p = p.Next() {
			if !yield(p.Key, p.Value) {
				return
			}
		}
	}
}
