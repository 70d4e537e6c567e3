package klass

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// ---------------------------------------------------------------------------
// Registry: identity -> descriptor table
// ---------------------------------------------------------------------------

// Registry owns every Descriptor of one type universe.
//
// Registration is serialized by the write lock. Lookups take the read lock
// only to resolve a name; descriptors themselves are immutable once
// published and are safe to query from any goroutine without locking.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Descriptor
	types  []*Descriptor // index is ID-1

	limit           int
	arrayRoot       string
	arrayInterfaces []string
	logger          *zap.Logger

	fastHits        atomic.Uint64
	fastMisses      atomic.Uint64
	cacheHits       atomic.Uint64
	secondaryHits   atomic.Uint64
	secondaryMisses atomic.Uint64
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) (*Registry, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.limit < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLimit, cfg.limit)
	}
	return &Registry{
		byName:          make(map[string]*Descriptor),
		limit:           cfg.limit,
		arrayRoot:       cfg.arrayRoot,
		arrayInterfaces: cfg.arrayInterfaces,
		logger:          cfg.logger,
	}, nil
}

// PrimaryLimit returns L, the capacity of every primary supers array.
func (r *Registry) PrimaryLimit() int { return r.limit }

// ArrayRoot returns the configured array root class name.
func (r *Registry) ArrayRoot() string { return r.arrayRoot }

// ArrayInterfaces returns the configured array interface names.
func (r *Registry) ArrayInterfaces() []string {
	return append([]string(nil), r.arrayInterfaces...)
}

// Register registers a class. An empty super makes the class a root.
func (r *Registry) Register(name, super string, interfaces ...string) (*Descriptor, error) {
	return r.Define(Definition{
		Name:       name,
		Kind:       KindClass,
		Super:      super,
		Interfaces: interfaces,
	})
}

// RegisterInterface registers an interface extending the given interfaces.
func (r *Registry) RegisterInterface(name string, supers ...string) (*Descriptor, error) {
	return r.Define(Definition{
		Name:       name,
		Kind:       KindInterface,
		Interfaces: supers,
	})
}

// Define registers the type described by def.
//
// Every referenced supertype must already be registered. A failed call
// leaves the registry unchanged. Array definitions are idempotent and
// delegate to ArrayOf.
func (r *Registry) Define(def Definition) (*Descriptor, error) {
	if def.Kind == KindArray {
		if def.Name != "" && def.Name != def.Element+ArraySuffix {
			return nil, fmt.Errorf("define %q: %w: array of %q must be named %q",
				def.Name, ErrInvalidName, def.Element, def.Element+ArraySuffix)
		}
		return r.ArrayOf(def.Element)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	d, err := r.newDescriptorLocked(def)
	if err != nil {
		return nil, err
	}
	encode(d, r.limit)
	r.publishLocked(d)
	return d, nil
}

// newDescriptorLocked validates def against the current table and returns
// an unencoded, unpublished descriptor.
func (r *Registry) newDescriptorLocked(def Definition) (*Descriptor, error) {
	name := def.Name
	if name == "" || strings.HasSuffix(name, ArraySuffix) {
		return nil, fmt.Errorf("register %q: %w", name, ErrInvalidName)
	}
	if _, ok := r.byName[name]; ok {
		return nil, fmt.Errorf("register %q: %w", name, ErrDuplicateIdentity)
	}
	if def.Kind != KindClass && def.Kind != KindInterface {
		return nil, fmt.Errorf("register %q: %w: cannot define %s", name, ErrKindMismatch, def.Kind)
	}

	d := &Descriptor{
		name:          name,
		kind:          def.Kind,
		bottomIsClass: def.Kind == KindClass,
	}

	if def.Super != "" {
		if def.Kind == KindInterface {
			return nil, fmt.Errorf("register %q: %w: interface cannot extend class %q",
				name, ErrKindMismatch, def.Super)
		}
		super, ok := r.byName[def.Super]
		if !ok {
			return nil, fmt.Errorf("register %q: %w %q", name, ErrUnknownSuperclass, def.Super)
		}
		if super.kind != KindClass {
			return nil, fmt.Errorf("register %q: %w: superclass %q is an %s",
				name, ErrKindMismatch, def.Super, super.kind)
		}
		d.super = super
	}

	seen := make(map[string]struct{}, len(def.Interfaces))
	for _, in := range def.Interfaces {
		if _, dup := seen[in]; dup {
			continue
		}
		seen[in] = struct{}{}
		iface, ok := r.byName[in]
		if !ok {
			return nil, fmt.Errorf("register %q: %w %q", name, ErrUnknownInterface, in)
		}
		if iface.kind != KindInterface {
			return nil, fmt.Errorf("register %q: %w: %q is a %s, not an interface",
				name, ErrKindMismatch, in, iface.kind)
		}
		d.interfaces = append(d.interfaces, iface)
	}
	return d, nil
}

// publishLocked assigns an identity to an encoded descriptor and makes it
// visible to lookups.
func (r *Registry) publishLocked(d *Descriptor) {
	d.id = TypeID(len(r.types) + 1)
	r.types = append(r.types, d)
	r.byName[d.name] = d

	r.logger.Debug("registered type",
		zap.String("name", d.name),
		zap.Stringer("kind", d.kind),
		zap.Uint32("id", uint32(d.id)),
		zap.Int("depth", d.depth),
		zap.Int("anchor", d.anchor),
		zap.Int("secondary", len(d.secondary)),
	)
}

// Lookup finds a descriptor by name.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byName[name]
	return d, ok
}

// LookupID finds a descriptor by its registry-assigned identity.
func (r *Registry) LookupID(id TypeID) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id == NoTypeID || int(id) > len(r.types) {
		return nil, false
	}
	return r.types[id-1], true
}

// Has returns true if a type with this name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// All returns every descriptor in registration order.
func (r *Registry) All() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Descriptor, len(r.types))
	copy(result, r.types)
	return result
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}

// resolve looks up two names for a query.
func (r *Registry) resolve(subject, candidate string) (*Descriptor, *Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byName[subject]
	if !ok {
		return nil, nil, fmt.Errorf("%w %q", ErrUnknownType, subject)
	}
	c, ok := r.byName[candidate]
	if !ok {
		return nil, nil, fmt.Errorf("%w %q", ErrUnknownType, candidate)
	}
	return s, c, nil
}
