// Package gomod locates the enclosing Go module of a directory and derives
// import paths for generated packages.
package gomod

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
)

var ErrNoModule = errors.New("no go.mod found")

// Module is a parsed go.mod and the directory holding it.
type Module struct {
	Dir      string
	Path     string
	Requires []module.Version
}

// FindDir walks up from dir until it finds go.mod.
func FindDir(dir string) (string, error) {
	from, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		if _, err = os.Stat(filepath.Join(from, "go.mod")); err == nil {
			return from, nil
		}
		parent := filepath.Dir(from)
		if parent == from {
			return "", fmt.Errorf("%w above %s", ErrNoModule, dir)
		}
		from = parent
	}
}

// Load parses the go.mod enclosing dir.
func Load(dir string) (*Module, error) {
	modDir, err := FindDir(dir)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(modDir, "go.mod"))
	if err != nil {
		return nil, fmt.Errorf("read go.mod: %w", err)
	}
	mf, err := modfile.Parse("go.mod", data, nil)
	if err != nil {
		return nil, fmt.Errorf("parse go.mod: %w", err)
	}
	if mf.Module == nil {
		return nil, fmt.Errorf("parse go.mod: %s has no module directive", modDir)
	}
	m := &Module{Dir: modDir, Path: mf.Module.Mod.Path}
	for _, r := range mf.Require {
		m.Requires = append(m.Requires, r.Mod)
	}
	return m, nil
}

// ImportPath returns the import path of the package in dir, which must lie
// inside the module.
func (m *Module) ImportPath(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(m.Dir, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside module %s", dir, m.Path)
	}
	p := path.Join(m.Path, filepath.ToSlash(rel))
	if err := module.CheckImportPath(p); err != nil {
		return "", err
	}
	return p, nil
}

// PackageName derives a package name from the last import path element.
func PackageName(importPath string) string {
	name := path.Base(importPath)
	if prefix, _, ok := module.SplitPathVersion(importPath); ok && prefix != importPath {
		name = path.Base(prefix)
	}
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return '_'
	}, name)
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "p" + name
	}
	return name
}
