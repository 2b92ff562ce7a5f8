package codec

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type profile struct {
	Name  string   `json:"name"`
	Tags  []string `json:"tags"`
	Score float64  `json:"score"`
}

func TestJSON_KeepsStaticType(t *testing.T) {
	c := JSON[int]{}
	data, err := c.Encode(99)
	require.NoError(t, err)

	v, err := c.Decode(data)
	require.NoError(t, err)
	require.Equal(t, 99, v)
}

func TestJSON_Aggregate(t *testing.T) {
	c := JSON[profile]{}
	in := profile{Name: "alice", Tags: []string{"a", "b"}, Score: 1.5}
	data, err := c.Encode(in)
	require.NoError(t, err)

	out, err := c.Decode(data)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestJSON_DecodeGarbage(t *testing.T) {
	_, err := JSON[int]{}.Decode([]byte("not json"))
	require.Error(t, err)
}

func TestJSON_InterfaceKeepsDynamicType(t *testing.T) {
	Register[profile]()
	c := JSON[any]{}

	for _, in := range []any{
		nil,
		int64(9007199254740993),
		uint8(7),
		float32(0.5),
		"text",
		true,
		[]int{1, 2},
		map[string]int{"a": 1},
		profile{Name: "bob", Tags: []string{"x"}, Score: 2},
	} {
		data, err := c.Encode(in)
		require.NoError(t, err)

		out, err := c.Decode(data)
		require.NoError(t, err)
		require.Equal(t, in, out)
	}
}

func TestJSON_InterfaceRejectsUnregistered(t *testing.T) {
	type unknown struct{ N int }
	_, err := JSON[any]{}.Encode(unknown{N: 1})
	require.ErrorIs(t, err, ErrUnregisteredType)

	_, err = JSON[any]{}.Decode([]byte(`{"t":"nowhere.Type","v":1}`))
	require.ErrorIs(t, err, ErrUnregisteredType)
}

func TestJSON_InterfaceWrongImplementation(t *testing.T) {
	data, err := JSON[any]{}.Encode(5)
	require.NoError(t, err)

	_, err = JSON[fmt.Stringer]{}.Decode(data)
	require.Error(t, err)
}
