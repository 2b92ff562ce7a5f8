package redisdriver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEscapeGlob(t *testing.T) {
	require.Equal(t, "cache:", escapeGlob("cache:"))
	require.Equal(t, `a\*b\?c\[d\]e\\`, escapeGlob(`a*b?c[d]e\`))
}
