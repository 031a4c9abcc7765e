package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

var ErrNoSnapshot = errors.New("snapshot not recorded")

// Snapshot is one emitted set of proxy types.
type Snapshot struct {
	Name    string `yaml:"name" json:"name"`
	Version string `yaml:"version" json:"version"`
	// Dir is the directory Files were written to.
	Dir   string   `yaml:"dir" json:"dir"`
	Files []string `yaml:"files" json:"files"`
	// Types lists the full names of every baked type.
	Types []string `yaml:"types" json:"types"`
}

// Paths returns the generated files joined with Dir.
func (s Snapshot) Paths() []string {
	out := make([]string, len(s.Files))
	for i, f := range s.Files {
		out[i] = filepath.Join(s.Dir, f)
	}
	return out
}

// Manifest tracks the emitted snapshots and which two are current.
type Manifest struct {
	CurrentVersion  string     `yaml:"current_version" json:"current_version"`
	PreviousVersion string     `yaml:"previous_version" json:"previous_version"`
	Snapshots       []Snapshot `yaml:"snapshots" json:"snapshots"`
}

// Load reads a manifest from the provided path. If the file does not exist,
// an empty manifest is returned.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}

	return &m, nil
}

// Save writes the manifest to the provided path, creating parent directories as needed.
func (m *Manifest) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}

// AddSnapshot records s as the current snapshot. An entry with the same
// version is replaced in place; re-recording the current version keeps the
// previous pointer.
func (m *Manifest) AddSnapshot(s Snapshot) {
	files := append([]string(nil), s.Files...)
	sort.Strings(files)
	s.Files = files

	if m.CurrentVersion != "" && m.CurrentVersion != s.Version {
		m.PreviousVersion = m.CurrentVersion
	}
	m.CurrentVersion = s.Version

	for i := range m.Snapshots {
		if m.Snapshots[i].Version == s.Version {
			m.Snapshots[i] = s
			return
		}
	}

	m.Snapshots = append(m.Snapshots, s)
}

// Snapshot returns the entry recorded for version.
func (m *Manifest) Snapshot(version string) (Snapshot, error) {
	for _, s := range m.Snapshots {
		if s.Version == version {
			return s, nil
		}
	}
	return Snapshot{}, fmt.Errorf("%w: version %q", ErrNoSnapshot, version)
}
