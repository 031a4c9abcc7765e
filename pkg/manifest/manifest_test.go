package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestAddSnapshot(t *testing.T) {
	tests := []struct {
		name     string
		versions []string
		current  string
		previous string
		count    int
	}{
		{name: "first", versions: []string{"v1"}, current: "v1", count: 1},
		{name: "second", versions: []string{"v1", "v2"}, current: "v2", previous: "v1", count: 2},
		{name: "re-record current", versions: []string{"v1", "v2", "v2"}, current: "v2", previous: "v1", count: 2},
		{name: "back to older", versions: []string{"v1", "v2", "v1"}, current: "v1", previous: "v2", count: 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var m Manifest
			for _, v := range tc.versions {
				m.AddSnapshot(Snapshot{Name: "proxies", Version: v})
			}
			require.Equal(t, tc.current, m.CurrentVersion)
			require.Equal(t, tc.previous, m.PreviousVersion)
			require.Len(t, m.Snapshots, tc.count)
		})
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "manifest.yaml")

	m, err := Load(path)
	require.NoError(t, err)
	require.Empty(t, m.Snapshots)

	m.AddSnapshot(Snapshot{
		Name:    "proxies",
		Version: "v1",
		Dir:     "out/v1",
		Files:   []string{"proxytype_unsigned.go", "proxytype_signed.go"},
		Types:   []string{"proxies.Greeter"},
	})
	require.NoError(t, m.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(m, got); diff != "" {
		t.Fatalf("manifest mismatch (-want +got):\n%s", diff)
	}

	s, err := got.Snapshot("v1")
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join("out/v1", "proxytype_signed.go"),
		filepath.Join("out/v1", "proxytype_unsigned.go"),
	}, s.Paths())

	_, err = got.Snapshot("v9")
	require.ErrorIs(t, err, ErrNoSnapshot)
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("snapshots: {"), 0o644))
	_, err := Load(path)
	require.ErrorContains(t, err, "unmarshal manifest")
}
