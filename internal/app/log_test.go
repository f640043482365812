package app

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRingBuffer(t *testing.T) {
	buf := newBuffer(32)

	_, err := buf.Write([]byte("hello\n"))
	require.Nil(t, err)
	_, err = buf.Write([]byte("world\n"))
	require.Nil(t, err)
	require.Equal(t, "hello\nworld\n", string(buf.Bytes()))

	var out bytes.Buffer
	n, err := buf.WriteTo(&out)
	require.Nil(t, err)
	require.Equal(t, int64(12), n)
	require.Equal(t, "hello\nworld\n", out.String())

	buf.Reset()
	require.Empty(t, buf.Bytes())
}

func TestRingBufferOverflow(t *testing.T) {
	buf := newBuffer(16)

	_, _ = buf.Write([]byte("0123456789\n"))
	_, _ = buf.Write([]byte("abcdefghij\n"))

	// the oldest line is dropped whole, the tail survives
	require.Equal(t, "abcdefghij\n", string(buf.Bytes()))
	require.True(t, strings.HasSuffix(string(buf.Bytes()), "\n"))
}
