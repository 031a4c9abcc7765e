package emit

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

var ErrNoDefinitions = errors.New("no definition files")

// Options control an emit run.
//
// Definitions   – definition files or glob patterns, applied concurrently.
// Templates     – Go package patterns whose interfaces definitions may implement.
// InDir         – directory templates are loaded from.
// OutDir        – directory the generated Go files are written to.
// Package       – package name of the generated files; derived from OutDir when empty.
// ModulePrefix  – prefix of the signed and unsigned module names, and so of the files.
// Key           – hex public key of the signed module.
// SignTemplates – treat every template package as signed with Key.
// Strict        – fail instead of dropping constraints the host can not express.
type Options struct {
	Definitions   []string `json:"definitions,omitempty" yaml:"definitions,omitempty" mapstructure:"definitions,omitempty"`
	Templates     []string `json:"templates,omitempty" yaml:"templates,omitempty" mapstructure:"templates,omitempty"`
	InDir         string   `json:"in_dir,omitempty" yaml:"in_dir,omitempty" mapstructure:"in_dir,omitempty"`
	OutDir        string   `json:"out_dir,omitempty" yaml:"out_dir,omitempty" mapstructure:"out_dir,omitempty"`
	Package       string   `json:"package,omitempty" yaml:"package,omitempty" mapstructure:"package,omitempty"`
	ModulePrefix  string   `json:"module_prefix,omitempty" yaml:"module_prefix,omitempty" mapstructure:"module_prefix,omitempty"`
	Key           string   `json:"key,omitempty" yaml:"key,omitempty" mapstructure:"key,omitempty"`
	SignTemplates bool     `json:"sign_templates,omitempty" yaml:"sign_templates,omitempty" mapstructure:"sign_templates,omitempty"`
	Strict        bool     `json:"strict,omitempty" yaml:"strict,omitempty" mapstructure:"strict,omitempty"`

	Log *slog.Logger `json:"-" yaml:"-" mapstructure:"-"`
}

func NewOptions(opts ...Option) *Options {
	o := &Options{
		InDir:        ".",
		OutDir:       "proxies",
		ModulePrefix: "proxytype",
	}
	for _, fn := range opts {
		fn(o)
	}
	return o
}

// Normalize fills defaults, makes directories absolute and checks the key.
func (o *Options) Normalize() error {
	if len(o.Definitions) == 0 {
		return ErrNoDefinitions
	}
	if o.InDir == "" {
		o.InDir = "."
	}
	if o.OutDir == "" {
		o.OutDir = "proxies"
	}
	if o.ModulePrefix == "" {
		o.ModulePrefix = "proxytype"
	}
	var err error
	if o.InDir, err = filepath.Abs(o.InDir); err != nil {
		return fmt.Errorf("in dir: %w", err)
	}
	if o.OutDir, err = filepath.Abs(o.OutDir); err != nil {
		return fmt.Errorf("out dir: %w", err)
	}
	if _, err = o.key(); err != nil {
		return err
	}
	if o.Log == nil {
		o.Log = slog.Default()
	}
	return nil
}

// key decodes Key; nil means the scope default.
func (o *Options) key() ([]byte, error) {
	if o.Key == "" {
		return nil, nil
	}
	k, err := hex.DecodeString(strings.TrimPrefix(o.Key, "0x"))
	if err != nil {
		return nil, fmt.Errorf("key: %w", err)
	}
	return k, nil
}

// functional option pattern ---------------------------------------------------

type Option func(*Options)

func WithDefinitions(paths ...string) Option {
	return func(o *Options) { o.Definitions = append(o.Definitions, paths...) }
}
func WithTemplates(patterns ...string) Option {
	return func(o *Options) { o.Templates = append(o.Templates, patterns...) }
}
func WithInDir(d string) Option          { return func(o *Options) { o.InDir = d } }
func WithOutDir(d string) Option         { return func(o *Options) { o.OutDir = d } }
func WithPackage(p string) Option        { return func(o *Options) { o.Package = p } }
func WithModulePrefix(p string) Option   { return func(o *Options) { o.ModulePrefix = p } }
func WithKey(hexKey string) Option       { return func(o *Options) { o.Key = hexKey } }
func WithSignTemplates() Option          { return func(o *Options) { o.SignTemplates = true } }
func WithStrictConstraints() Option      { return func(o *Options) { o.Strict = true } }
func WithLogger(l *slog.Logger) Option   { return func(o *Options) { o.Log = l } }
