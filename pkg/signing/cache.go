// Package signing answers whether a synthesized type may live in a
// strong-signed module: a signed module can only reference other signed
// modules, so any unsigned dependency forces the unsigned module.
package signing

import (
	"sync"

	"github.com/cmmoran/proxytype/pkg/model"
)

// Predicate decides whether a module is strong-signed.
type Predicate func(m *model.Module) bool

// Cache memoizes Predicate per module. The zero value is not usable; call
// NewCache.
type Cache struct {
	mu        sync.Mutex
	entries   map[*model.Module]bool
	predicate Predicate
}

// NewCache returns a cache over predicate, or over (*model.Module).Signed
// when predicate is nil.
func NewCache(predicate Predicate) *Cache {
	if predicate == nil {
		predicate = (*model.Module).Signed
	}
	return &Cache{
		entries:   make(map[*model.Module]bool),
		predicate: predicate,
	}
}

// IsModuleSigned reports whether m is signed, computing the answer once.
func (c *Cache) IsModuleSigned(m *model.Module) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	signed, ok := c.entries[m]
	if !ok {
		signed = c.predicate(m)
		c.entries[m] = signed
	}
	return signed
}

// AnyUnsigned reports whether base or any of ifaces, including the type
// arguments of constructed generics, comes from an unsigned module. It stops
// at the first unsigned module found.
func (c *Cache) AnyUnsigned(base *model.Type, ifaces ...*model.Type) bool {
	if base != nil && c.unsigned(base) {
		return true
	}
	for _, i := range ifaces {
		if c.unsigned(i) {
			return true
		}
	}
	return false
}

// Len returns the number of memoized modules.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) unsigned(t *model.Type) bool {
	switch t.Kind {
	case model.KindArray, model.KindByRef:
		return c.unsigned(t.Elem)
	case model.KindGenericParam:
		return false
	case model.KindGenericInstance:
		if c.unsigned(t.Definition) {
			return true
		}
		for _, a := range t.TypeArgs {
			if c.unsigned(a) {
				return true
			}
		}
		return false
	}
	return !c.IsModuleSigned(t.Module)
}
