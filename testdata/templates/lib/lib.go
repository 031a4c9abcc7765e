// Package lib holds the templates the e2e definitions implement.
package lib

type Entity interface {
	ID() string
}

type Named interface {
	Entity
	Name() string
}

type Repo[T Entity] interface {
	Get(id string) T
	Put(item T)
	Count() int32
}

type Counter interface {
	Add(n int64) int64
	Value() int64
}

// Pair is opaque to the loader.
type Pair struct {
	Left, Right string
}

type Lookup[K comparable, V any] interface {
	Find(key K) V
	Keys() []K
}

// Split has multiple results and is skipped.
type Split interface {
	Split(s string) (string, string)
}
