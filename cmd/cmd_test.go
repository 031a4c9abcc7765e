package cmd

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cmmoran/proxytype/pkg/manifest"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "trace", want: LevelTrace},
		{in: "TRACE", want: LevelTrace},
		{in: "debug", want: slog.LevelDebug},
		{in: "warn", want: slog.LevelWarn},
		{in: "debug+1", want: slog.LevelDebug + 1},
		{in: "loud", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := parseLevel(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestSnapshotList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	var m manifest.Manifest
	m.AddSnapshot(manifest.Snapshot{Name: "proxies", Version: "v1", Types: []string{"a.A"}})
	m.AddSnapshot(manifest.Snapshot{Name: "proxies", Version: "v2"})
	require.NoError(t, m.Save(path))

	c := NewSnapshotCommand()
	var out bytes.Buffer
	c.SetOut(&out)
	c.SetArgs([]string{"list", "--manifest", path})
	require.NoError(t, c.Execute())
	require.Equal(t, "- v1\tproxies\t1 types\n* v2\tproxies\t0 types\n", out.String())
}

func TestCommandsRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	require.True(t, names["emit"])
	require.True(t, names["snapshot"])
}
