package blueprint

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cmmoran/proxytype/pkg/host"
	"github.com/cmmoran/proxytype/pkg/model"
	"github.com/cmmoran/proxytype/pkg/signing"
)

// DefaultKey is the public key of the signed module a Scope creates unless
// WithKey says otherwise.
var DefaultKey = []byte{0x00, 0x24, 0x00, 0x00, 0x04, 0x80, 0x00, 0x00}

// Scope owns the pair of modules blueprints are created in: a strong-signed
// one for types whose dependencies are all signed and an unsigned one for the
// rest. Modules are defined on first use. A Scope is safe for concurrent use.
type Scope struct {
	host   host.Host
	cache  *signing.Cache
	key    []byte
	prefix string
	opts   []Option

	mu       sync.Mutex
	signed   host.Module
	unsigned host.Module

	seq atomic.Uint64
}

type ScopeOption func(*Scope)

func WithKey(key []byte) ScopeOption { return func(s *Scope) { s.key = key } }

// WithModulePrefix names the modules <prefix>.signed and <prefix>.unsigned.
func WithModulePrefix(p string) ScopeOption { return func(s *Scope) { s.prefix = p } }

// WithBlueprintOptions applies opts to every blueprint the scope opens.
func WithBlueprintOptions(opts ...Option) ScopeOption {
	return func(s *Scope) { s.opts = append(s.opts, opts...) }
}

// NewScope returns a scope over h. A nil cache gets a private one using the
// default signing predicate.
func NewScope(h host.Host, cache *signing.Cache, opts ...ScopeOption) *Scope {
	if cache == nil {
		cache = signing.NewCache(nil)
	}
	s := &Scope{host: h, cache: cache, key: DefaultKey, prefix: "proxytype"}
	for _, fn := range opts {
		fn(s)
	}
	return s
}

// ModuleFor picks the module a type deriving from base and implementing
// ifaces may live in.
func (s *Scope) ModuleFor(base *model.Type, ifaces ...*model.Type) (host.Module, error) {
	unsigned := s.cache.AnyUnsigned(base, ifaces...)

	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	if unsigned {
		if s.unsigned == nil {
			s.unsigned, err = s.host.DefineModule(s.prefix+".unsigned", nil)
		}
		return s.unsigned, err
	}
	if s.signed == nil {
		s.signed, err = s.host.DefineModule(s.prefix+".signed", s.key)
	}
	return s.signed, err
}

// UniqueName returns prefix followed by a sequence number unique to s.
func (s *Scope) UniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, s.seq.Add(1))
}

// Blueprint opens a blueprint in the module ModuleFor selects.
func (s *Scope) Blueprint(name string, shape Shape, base *model.Type, ifaces []*model.Type, opts ...Option) (*Blueprint, error) {
	m, err := s.ModuleFor(base, ifaces...)
	if err != nil {
		return nil, fmt.Errorf("blueprint %s: %w", name, err)
	}
	return New(m, name, shape, base, ifaces, append(append([]Option(nil), s.opts...), opts...)...), nil
}
