// Package loader resolves type names to registered descriptors through a
// chain of delegating loaders.
//
// A Loader always asks its parent first and only resolves a name itself
// when the parent cannot. Local resolution looks the definition up with a
// Finder, loads the superclass and interfaces through the same loader and
// then registers the type. Once a loader has resolved a name it returns
// the same descriptor for every later request.
package loader

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/chazu/klass/klass"
	"go.uber.org/zap"
)

var (
	// ErrClassNotFound is returned when neither a loader nor any of its
	// ancestors can resolve a name.
	ErrClassNotFound = errors.New("class not found")

	// ErrClassCircularity is returned when a definition is its own
	// supertype, directly or transitively.
	ErrClassCircularity = errors.New("class circularity")

	// ErrNoClassDef is returned when a definition was found but one of its
	// supertypes could not be. It does not wrap ErrClassNotFound, so a
	// child loader never mistakes it for a miss in its parent.
	ErrNoClassDef = errors.New("no class definition for supertype")

	// ErrNameMismatch is returned when a finder answers with a definition
	// for a different name.
	ErrNameMismatch = errors.New("definition name mismatch")
)

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for delegation events.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Loader resolves names into a shared registry, delegating to its parent
// first.
//
// A loader holds its own lock for the duration of a load and only ever
// calls into its parent while holding it, so locks are always taken child
// before parent.
type Loader struct {
	name     string
	parent   *Loader
	registry *klass.Registry
	finder   Finder
	logger   *zap.Logger

	mu     sync.Mutex
	loaded map[string]*klass.Descriptor
}

// New creates a loader. A nil parent makes it a bootstrap loader, which
// also adopts types that are already present in the registry. A nil
// finder resolves nothing locally.
func New(name string, parent *Loader, reg *klass.Registry, finder Finder, opts ...Option) *Loader {
	if finder == nil {
		finder = emptyFinder{}
	}
	l := &Loader{
		name:     name,
		parent:   parent,
		registry: reg,
		finder:   finder,
		logger:   zap.NewNop(),
		loaded:   make(map[string]*klass.Descriptor),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Name returns the loader's name.
func (l *Loader) Name() string { return l.name }

// Parent returns the parent loader, or nil for a bootstrap loader.
func (l *Loader) Parent() *Loader { return l.parent }

// Registry returns the registry this loader registers into.
func (l *Loader) Registry() *klass.Registry { return l.registry }

// FindLoaded returns a descriptor this loader has already resolved.
func (l *Loader) FindLoaded(name string) (*klass.Descriptor, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	d, ok := l.loaded[name]
	return d, ok
}

// Load resolves name to a registered descriptor.
func (l *Loader) Load(name string) (*klass.Descriptor, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadLocked(name, nil)
}

// loadLocked resolves name. resolving holds the names whose supertypes are
// being loaded by this loader, outermost first.
func (l *Loader) loadLocked(name string, resolving []string) (*klass.Descriptor, error) {
	if d, ok := l.loaded[name]; ok {
		return d, nil
	}
	if slices.Contains(resolving, name) {
		return nil, fmt.Errorf("%s: %w: %s -> %s", l.name, ErrClassCircularity,
			strings.Join(resolving, " -> "), name)
	}
	if elem, ok := strings.CutSuffix(name, klass.ArraySuffix); ok {
		return l.loadArrayLocked(name, elem, resolving)
	}

	if l.parent != nil {
		d, err := l.parent.Load(name)
		if err == nil {
			l.logger.Debug("resolved by parent",
				zap.String("loader", l.name),
				zap.String("parent", l.parent.name),
				zap.String("type", name),
			)
			l.loaded[name] = d
			return d, nil
		}
		if !errors.Is(err, ErrClassNotFound) {
			return nil, err
		}
	} else if d, ok := l.registry.Lookup(name); ok {
		l.loaded[name] = d
		return d, nil
	}

	d, err := l.defineLocked(name, resolving)
	if err != nil {
		return nil, err
	}
	l.loaded[name] = d
	return d, nil
}

// loadArrayLocked resolves an array type. Arrays are never looked up with
// a finder: the component is loaded through this loader and the registry
// derives the array from it.
func (l *Loader) loadArrayLocked(name, elem string, resolving []string) (*klass.Descriptor, error) {
	def := klass.Definition{Name: name, Kind: klass.KindArray, Element: elem}
	resolving = append(resolving, name)
	// A missing component makes the array itself missing.
	if _, err := l.loadLocked(elem, resolving); err != nil {
		return nil, err
	}
	if err := l.loadDependenciesLocked(def, resolving); err != nil {
		return nil, err
	}
	d, err := l.registry.Define(def)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.name, err)
	}
	l.loaded[name] = d
	return d, nil
}

// defineLocked finds the definition of name, loads its supertypes through
// this loader and registers it.
func (l *Loader) defineLocked(name string, resolving []string) (*klass.Descriptor, error) {
	def, err := l.finder.Find(name)
	if err != nil {
		if errors.Is(err, ErrClassNotFound) {
			return nil, fmt.Errorf("%s: %w", l.name, err)
		}
		return nil, fmt.Errorf("%s: find %s: %w", l.name, name, err)
	}
	if def.Name != name {
		return nil, fmt.Errorf("%s: %w: asked for %q, got %q", l.name, ErrNameMismatch, name, def.Name)
	}

	if err := l.loadDependenciesLocked(def, append(resolving, name)); err != nil {
		return nil, err
	}

	d, err := l.registry.Define(def)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.name, err)
	}
	l.logger.Debug("defined type",
		zap.String("loader", l.name),
		zap.String("type", name),
		zap.Uint32("id", uint32(d.ID())),
	)
	return d, nil
}

// loadDependenciesLocked loads every supertype of def through this loader.
func (l *Loader) loadDependenciesLocked(def klass.Definition, resolving []string) error {
	for _, dep := range l.dependencies(def) {
		if _, err := l.loadLocked(dep, resolving); err != nil {
			if errors.Is(err, ErrClassNotFound) {
				return fmt.Errorf("%s: %w %s of %s: %v", l.name, ErrNoClassDef, dep, def.Name, err)
			}
			return fmt.Errorf("%s: loading supertype %s of %s: %w", l.name, dep, def.Name, err)
		}
	}
	return nil
}

// dependencies lists the names that must be registered before def.
// Arrays also need the registry's array root and array interfaces.
func (l *Loader) dependencies(def klass.Definition) []string {
	if def.Kind == klass.KindArray {
		deps := []string{def.Element}
		if root := l.registry.ArrayRoot(); root != "" {
			deps = append(deps, root)
		}
		return append(deps, l.registry.ArrayInterfaces()...)
	}
	if def.Super == "" {
		return def.Interfaces
	}
	return append([]string{def.Super}, def.Interfaces...)
}
