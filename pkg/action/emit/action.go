// Package emit bakes definition files into Go source through the gosource host.
package emit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/cmmoran/proxytype/internal/definition"
	"github.com/cmmoran/proxytype/internal/gomod"
	"github.com/cmmoran/proxytype/internal/loader"
	"github.com/cmmoran/proxytype/pkg/blueprint"
	"github.com/cmmoran/proxytype/pkg/host/gosource"
	"github.com/cmmoran/proxytype/pkg/signing"
)

// Result describes what an emit run wrote.
type Result struct {
	Package string
	Dir     string
	// Files are relative to Dir, in order.
	Files []string
	// Types are the full names of every baked type, in order.
	Types []string
}

// Generate loads the templates, applies every definition file and writes one
// Go file per module that received types. Definition files are applied
// concurrently; they share the templates but not each other's types.
func Generate(ctx context.Context, opts *Options) (*Result, error) {
	if err := opts.Normalize(); err != nil {
		return nil, err
	}
	log := opts.Log.With("out", opts.OutDir)

	paths, err := expand(opts.Definitions)
	if err != nil {
		return nil, err
	}
	key, _ := opts.key()

	reg := definition.NewRegistry()
	if len(opts.Templates) > 0 {
		lopts := []loader.Option{loader.WithDir(opts.InDir), loader.WithLogger(log)}
		if opts.SignTemplates {
			signKey := key
			if signKey == nil {
				signKey = blueprint.DefaultKey
			}
			lopts = append(lopts, loader.WithDefaultKey(signKey))
		}
		templates, err := loader.New(lopts...).Load(ctx, opts.Templates...)
		if err != nil {
			return nil, fmt.Errorf("templates: %w", err)
		}
		reg.Add(templates...)
		log.With("count", len(templates)).Debug("templates loaded")
	}

	pkg, err := packageName(opts)
	if err != nil {
		return nil, err
	}
	h := gosource.New(pkg, gosource.WithLogger(log))

	bopts := []blueprint.Option{blueprint.WithLogger(log)}
	if opts.Strict {
		bopts = append(bopts, blueprint.WithStrictConstraints())
	}
	sopts := []blueprint.ScopeOption{
		blueprint.WithModulePrefix(opts.ModulePrefix),
		blueprint.WithBlueprintOptions(bopts...),
	}
	if key != nil {
		sopts = append(sopts, blueprint.WithKey(key))
	}
	scope := blueprint.NewScope(h, signing.NewCache(nil), sopts...)

	var (
		mu    sync.Mutex
		names []string
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, err := definition.Load(p)
			if err != nil {
				return err
			}
			types, err := definition.Apply(log, scope, f, reg)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			mu.Lock()
			defer mu.Unlock()
			for _, t := range types {
				names = append(names, t.FullName())
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Strings(names)

	res := &Result{Package: pkg, Dir: opts.OutDir, Types: names}
	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create out dir: %w", err)
	}
	for _, m := range h.Modules() {
		if len(m.Types()) == 0 {
			continue
		}
		name := FileName(m.Model().Name)
		if err := write(filepath.Join(opts.OutDir, name), m); err != nil {
			return nil, err
		}
		res.Files = append(res.Files, name)
		log.With("file", name, "types", len(m.Types())).Info("module written")
	}
	return res, nil
}

// FileName maps a module name onto the Go file it is written to.
func FileName(module string) string {
	return strings.NewReplacer(".", "_", "/", "_", "-", "_").Replace(module) + ".go"
}

func write(path string, m *gosource.Module) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	if err := m.Render(f); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	return nil
}

// expand resolves glob patterns; a pattern matching nothing is an error.
func expand(patterns []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, p := range patterns {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("definitions %q: %w", p, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%w: %q matched nothing", ErrNoDefinitions, p)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out, nil
}

// packageName uses Package when set, otherwise the last element of the
// output directory's import path.
func packageName(opts *Options) (string, error) {
	if opts.Package != "" {
		return opts.Package, nil
	}
	mod, err := gomod.Load(opts.OutDir)
	if errors.Is(err, gomod.ErrNoModule) {
		return gomod.PackageName(filepath.Base(opts.OutDir)), nil
	}
	if err != nil {
		return "", err
	}
	ip, err := mod.ImportPath(opts.OutDir)
	if err != nil {
		return "", err
	}
	return gomod.PackageName(ip), nil
}
