// Package codec serializes cache values for drivers that persist them outside
// the process.
package codec

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/goccy/go-json"
)

// ErrUnregisteredType is returned when an interface-typed value holds a
// dynamic type that has not been registered with Register.
var ErrUnregisteredType = errors.New("codec: unregistered dynamic type")

// Codec converts values of type V to and from their stored form.
type Codec[V any] interface {
	Encode(value V) ([]byte, error)
	Decode(data []byte) (V, error)
}

// JSON encodes values as JSON.
//
// For a concrete V, decoding targets V itself, so an int stored is an int
// read back. When V is an interface type such as any, the value is wrapped in
// an envelope naming its dynamic type, and only types known to the registry
// (see Register) can be stored. Values nested inside a registered type are
// decoded by that type's static shape, so a registered map[string]any still
// loses the dynamic types of its elements; register concrete types instead.
type JSON[V any] struct{}

type envelope struct {
	Type  string          `json:"t"`
	Value json.RawMessage `json:"v,omitempty"`
}

// Encode implements Codec.
func (JSON[V]) Encode(value V) ([]byte, error) {
	if !isInterface[V]() {
		return json.Marshal(value)
	}

	dyn := any(value)
	if dyn == nil {
		return json.Marshal(envelope{})
	}
	rt := reflect.TypeOf(dyn)
	name := typeName(rt)
	if _, ok := lookup(name); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnregisteredType, rt)
	}
	raw, err := json.Marshal(dyn)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Type: name, Value: raw})
}

// Decode implements Codec.
func (JSON[V]) Decode(data []byte) (V, error) {
	var v V
	if !isInterface[V]() {
		if err := json.Unmarshal(data, &v); err != nil {
			return v, err
		}
		return v, nil
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return v, err
	}
	if env.Type == "" {
		return v, nil
	}
	rt, ok := lookup(env.Type)
	if !ok {
		return v, fmt.Errorf("%w: %s", ErrUnregisteredType, env.Type)
	}
	ptr := reflect.New(rt)
	if err := json.Unmarshal(env.Value, ptr.Interface()); err != nil {
		return v, err
	}
	out, ok := ptr.Elem().Interface().(V)
	if !ok {
		return v, fmt.Errorf("codec: %s does not implement %s", rt, reflect.TypeFor[V]())
	}
	return out, nil
}

func isInterface[V any]() bool {
	return reflect.TypeFor[V]().Kind() == reflect.Interface
}

var registry = struct {
	sync.RWMutex
	types map[string]reflect.Type
}{types: map[string]reflect.Type{}}

// Register makes T storable behind an interface-typed value.
func Register[T any]() {
	rt := reflect.TypeFor[T]()
	registry.Lock()
	registry.types[typeName(rt)] = rt
	registry.Unlock()
}

func lookup(name string) (reflect.Type, bool) {
	registry.RLock()
	defer registry.RUnlock()
	rt, ok := registry.types[name]
	return rt, ok
}

// typeName qualifies named types by import path so two packages' "Item"
// types stay apart.
func typeName(rt reflect.Type) string {
	if rt.Name() != "" && rt.PkgPath() != "" {
		return rt.PkgPath() + "." + rt.Name()
	}
	return rt.String()
}

func init() {
	Register[bool]()
	Register[string]()
	Register[int]()
	Register[int8]()
	Register[int16]()
	Register[int32]()
	Register[int64]()
	Register[uint]()
	Register[uint8]()
	Register[uint16]()
	Register[uint32]()
	Register[uint64]()
	Register[float32]()
	Register[float64]()
	Register[[]byte]()
	Register[[]bool]()
	Register[[]string]()
	Register[[]int]()
	Register[[]int64]()
	Register[[]float64]()
	Register[map[string]string]()
	Register[map[string]int]()
	Register[map[string]float64]()
}
