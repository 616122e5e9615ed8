package main

import (
	"bytes"
	"crypto/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_run(t *testing.T) {
	t.Run("default length", func(t *testing.T) {
		out := &bytes.Buffer{}

		err := run(nil, rand.Reader, out)

		require.NoError(t, err)
		require.Len(t, strings.TrimSpace(out.String()), 64, "32 bytes hex encoded")
	})

	t.Run("custom length", func(t *testing.T) {
		out := &bytes.Buffer{}

		err := run([]string{"--bytes", "4"}, bytes.NewReader([]byte{0xde, 0xad, 0xbe, 0xef}), out)

		require.NoError(t, err)
		require.Equal(t, "deadbeef\n", out.String())
	})

	t.Run("not enough randomness", func(t *testing.T) {
		err := run([]string{"-b", "8"}, bytes.NewReader([]byte{1, 2}), &bytes.Buffer{})

		require.Error(t, err)
	})

	t.Run("zero length", func(t *testing.T) {
		err := run([]string{"--bytes", "0"}, rand.Reader, &bytes.Buffer{})

		require.Error(t, err)
	})
}
