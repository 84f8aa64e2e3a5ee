package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeKeepsStringsRaw(t *testing.T) {
	v, err := encode(`{"id":"1"}`)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"1"}`, v)

	v, err = encode([]byte("https://example.com/a.wav"))
	require.NoError(t, err)
	assert.Equal(t, []byte("https://example.com/a.wav"), v)

	v, err = encode(map[string]int{"n": 1})
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"n":1}`), v)
}

func TestConfigAddr(t *testing.T) {
	cfg := &Config{Host: "cache", Port: 6380}
	assert.Equal(t, "cache:6380", cfg.Addr())
}
