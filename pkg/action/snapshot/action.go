package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/go-cmp/cmp"

	"github.com/cmmoran/proxytype/pkg/action/emit"
	"github.com/cmmoran/proxytype/pkg/manifest"
)

// Generate emits the definitions into a directory named after the version
// below opts.OutDir and records the result as the current snapshot.
func Generate(ctx context.Context, opts *emit.Options, manifestPath, snapshotName, snapshotVersion string) (*manifest.Snapshot, error) {
	if snapshotVersion == "" {
		return nil, fmt.Errorf("snapshot version required")
	}
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return nil, err
	}

	vopts := *opts
	vopts.OutDir = filepath.Join(opts.OutDir, snapshotVersion)
	res, err := emit.Generate(ctx, &vopts)
	if err != nil {
		return nil, err
	}

	s := manifest.Snapshot{
		Name:    snapshotName,
		Version: snapshotVersion,
		Dir:     res.Dir,
		Files:   res.Files,
		Types:   res.Types,
	}
	m.AddSnapshot(s)

	if err := m.Save(manifestPath); err != nil {
		return nil, err
	}

	return &s, nil
}

// List returns all snapshots recorded in the manifest.
func List(manifestPath string) (*manifest.Manifest, error) {
	return manifest.Load(manifestPath)
}

// contents is what two snapshots are compared on: the baked type names and
// the generated files keyed by name.
type contents struct {
	Types []string
	Files map[string]string
}

func load(s manifest.Snapshot) (*contents, error) {
	c := &contents{Types: s.Types, Files: make(map[string]string, len(s.Files))}
	for _, f := range s.Files {
		data, err := os.ReadFile(filepath.Join(s.Dir, f))
		if err != nil {
			return nil, fmt.Errorf("read snapshot %s: %w", s.Version, err)
		}
		c.Files[f] = string(data)
	}
	return c, nil
}

// DiffCurrentWithPrevious loads the manifest, locates the current and previous
// snapshots, and returns a textual diff of their types and files. An empty
// string means they are identical.
func DiffCurrentWithPrevious(manifestPath string) (string, error) {
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return "", err
	}

	if m.CurrentVersion == "" || m.PreviousVersion == "" {
		return "", fmt.Errorf("no current/previous snapshots recorded")
	}

	current, err := m.Snapshot(m.CurrentVersion)
	if err != nil {
		return "", err
	}
	previous, err := m.Snapshot(m.PreviousVersion)
	if err != nil {
		return "", err
	}

	cur, err := load(current)
	if err != nil {
		return "", err
	}
	prev, err := load(previous)
	if err != nil {
		return "", err
	}

	return cmp.Diff(prev, cur), nil
}
