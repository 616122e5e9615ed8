package tracing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	t.Run("disabled without endpoint", func(t *testing.T) {
		shutdown, err := Setup(t.Context(), "usersvc", "")

		require.NoError(t, err)
		require.NotNil(t, shutdown)
		require.NoError(t, shutdown(t.Context()))
	})

	t.Run("enabled with endpoint", func(t *testing.T) {
		shutdown, err := Setup(t.Context(), "usersvc", "http://127.0.0.1:4318")

		require.NoError(t, err)
		require.NoError(t, shutdown(t.Context()), "shutdown without spans should not reach the collector")
	})
}
