package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// withBuildInfo подменяет значения, которые в релизной сборке выставляет -ldflags.
func withBuildInfo(t *testing.T, v, c, d string) {
	t.Helper()
	oldV, oldC, oldD := version, commit, date
	version, commit, date = v, c, d
	t.Cleanup(func() { version, commit, date = oldV, oldC, oldD })
}

func TestDefaultsForLocalBuild(t *testing.T) {
	require.Equal(t, "dev", GetVersion())
	require.Equal(t, "unknown", GetCommit())
	require.Equal(t, "unknown", GetDate())
}

func TestLinkerOverrides(t *testing.T) {
	withBuildInfo(t, "v1.4.0", "3f9c2ab", "2025-06-01T10:00:00Z")

	require.Equal(t, "v1.4.0", GetVersion())
	require.Equal(t, "3f9c2ab", GetCommit())
	require.Equal(t, "2025-06-01T10:00:00Z", GetDate())
	require.Equal(t, "version=v1.4.0 commit=3f9c2ab date=2025-06-01T10:00:00Z", String())
}
