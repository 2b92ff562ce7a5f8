package cache

import (
	"context"
	"errors"
	"maps"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// recorder is a SingleKey that logs calls and can be told to fail.
type recorder struct {
	calls   []string
	refuse  map[string]bool
	failOn  string
	failErr error
}

func (r *recorder) Get(_ context.Context, key string, def int) (int, error) {
	r.calls = append(r.calls, "get:"+key)
	if key == r.failOn {
		return def, r.failErr
	}
	return len(key), nil
}

func (r *recorder) Set(_ context.Context, key string, _ int, _ TTL) (bool, error) {
	r.calls = append(r.calls, "set:"+key)
	if key == r.failOn {
		return false, r.failErr
	}
	return !r.refuse[key], nil
}

func (r *recorder) Delete(_ context.Context, key string) (bool, error) {
	r.calls = append(r.calls, "delete:"+key)
	if key == r.failOn {
		return false, r.failErr
	}
	return !r.refuse[key], nil
}

func TestGetMultiple_OrderAndDuplicates(t *testing.T) {
	r := &recorder{}
	got, err := GetMultiple[int](context.Background(), r, slices.Values([]string{"ccc", "a", "ccc", "bb"}), 0)
	require.NoError(t, err)
	require.Equal(t, []string{"get:ccc", "get:a", "get:ccc", "get:bb"}, r.calls)

	var keys []string
	for p := got.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	require.Equal(t, []string{"ccc", "a", "bb"}, keys)
	v, _ := got.Get("bb")
	require.Equal(t, 2, v)
}

func TestGetMultiple_FirstErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	r := &recorder{failOn: "b", failErr: boom}
	got, err := GetMultiple[int](context.Background(), r, slices.Values([]string{"a", "b", "c"}), 0)
	require.ErrorIs(t, err, boom)
	require.Nil(t, got)
	require.Equal(t, []string{"get:a", "get:b"}, r.calls)
}

func TestSetMultiple_ANDContinuesPastFalse(t *testing.T) {
	r := &recorder{refuse: map[string]bool{"b": true}}
	values := orderedmap.New[string, int]()
	values.Set("a", 1)
	values.Set("b", 2)
	values.Set("c", 3)

	ok, err := SetMultiple[int](context.Background(), r, Pairs(values), TTL{})
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, []string{"set:a", "set:b", "set:c"}, r.calls)
}

func TestSetMultiple_StorageErrorPropagates(t *testing.T) {
	r := &recorder{failOn: "b", failErr: ErrStorage}
	ok, err := SetMultiple[int](context.Background(), r, maps.All(map[string]int{"b": 1}), TTL{})
	require.ErrorIs(t, err, ErrStorage)
	require.False(t, ok)
}

func TestDeleteMultiple(t *testing.T) {
	r := &recorder{}
	ok, err := DeleteMultiple[int](context.Background(), r, slices.Values([]string{"x", "y"}))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"delete:x", "delete:y"}, r.calls)

	r = &recorder{refuse: map[string]bool{"x": true}}
	ok, err = DeleteMultiple[int](context.Background(), r, slices.Values([]string{"x", "y"}))
	require.NoError(t, err)
	require.False(t, ok)
	require.Len(t, r.calls, 2)
}

func TestPairs_StopsEarly(t *testing.T) {
	values := orderedmap.New[string, int]()
	values.Set("a", 1)
	values.Set("b", 2)

	var seen []string
	for k := range Pairs(values) {
		seen = append(seen, k)
		break
	}
	require.Equal(t, []string{"a"}, seen)
	require.Nil(t, Pairs[int](nil))
}
