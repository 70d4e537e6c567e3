package loader

import (
	"fmt"

	"github.com/chazu/klass/klass"
)

// Finder produces the definition of a type by name. It is the local
// resolution step of a Loader. Implementations return an error wrapping
// ErrClassNotFound when they have no definition for the name.
type Finder interface {
	Find(name string) (klass.Definition, error)
}

// FinderFunc adapts a function to the Finder interface.
type FinderFunc func(name string) (klass.Definition, error)

// Find calls f(name).
func (f FinderFunc) Find(name string) (klass.Definition, error) {
	return f(name)
}

// MapFinder serves definitions from memory, keyed by name.
type MapFinder map[string]klass.Definition

// NewMapFinder indexes definitions by name.
func NewMapFinder(defs ...klass.Definition) MapFinder {
	m := make(MapFinder, len(defs))
	for _, def := range defs {
		m[def.Name] = def
	}
	return m
}

// Find implements Finder.
func (m MapFinder) Find(name string) (klass.Definition, error) {
	def, ok := m[name]
	if !ok {
		return klass.Definition{}, fmt.Errorf("%w: %s", ErrClassNotFound, name)
	}
	return def, nil
}

// emptyFinder finds nothing. Used when a loader is built without a finder.
type emptyFinder struct{}

func (emptyFinder) Find(name string) (klass.Definition, error) {
	return klass.Definition{}, fmt.Errorf("%w: %s", ErrClassNotFound, name)
}
