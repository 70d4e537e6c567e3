package klass

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ---------------------------------------------------------------------------
// Array types
// ---------------------------------------------------------------------------

// ArrayOf returns the array type whose component is the named type,
// registering it (and any array types it depends on) on first use.
//
// Array supertypes follow the component's hierarchy:
//
//	String[][] -> Object[][] -> Object[] -> Object
//
// An array of a root class extends the array root. An array of an
// interface extends the array of the array root. Each array implements the
// arrays of its component's interfaces plus the configured array
// interfaces, which makes arrays covariant. Arrays of interfaces are never
// primary supers, so checks against them always use the secondary scan.
func (r *Registry) ArrayOf(element string) (*Descriptor, error) {
	if d, ok := r.Lookup(element + ArraySuffix); ok {
		return d, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Strip dimensions until a registered type is reached; the missing
	// levels are built innermost first below.
	base, dims := element, 0
	elem, ok := r.byName[base]
	for !ok {
		trimmed, cut := strings.CutSuffix(base, ArraySuffix)
		if !cut || trimmed == "" {
			return nil, fmt.Errorf("array of %q: %w %q", element, ErrUnknownType, base)
		}
		base, dims = trimmed, dims+1
		elem, ok = r.byName[base]
	}
	root, err := r.arrayRootLocked()
	if err != nil {
		return nil, fmt.Errorf("array of %q: %w", element, err)
	}
	ifaces, err := r.arrayInterfacesLocked()
	if err != nil {
		return nil, fmt.Errorf("array of %q: %w", element, err)
	}

	bottom := elem
	for bottom.kind == KindArray {
		bottom = bottom.element
	}
	if bottom.kind == KindClass && !IsSubtypeOf(bottom, root) {
		return nil, fmt.Errorf("array of %q: %w: %q does not extend %q",
			element, ErrNoArrayRoot, bottom.name, root.name)
	}

	for ; dims > 0; dims-- {
		elem = r.arrayOfLocked(elem, root, ifaces)
	}
	return r.arrayOfLocked(elem, root, ifaces), nil
}

// arrayRootLocked returns the configured array root, which must be a
// registered root class.
func (r *Registry) arrayRootLocked() (*Descriptor, error) {
	if r.arrayRoot == "" {
		return nil, ErrNoArrayRoot
	}
	root, ok := r.byName[r.arrayRoot]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not registered", ErrNoArrayRoot, r.arrayRoot)
	}
	if root.kind != KindClass || root.super != nil {
		return nil, fmt.Errorf("%w: %q is not a root class", ErrNoArrayRoot, r.arrayRoot)
	}
	return root, nil
}

func (r *Registry) arrayInterfacesLocked() ([]*Descriptor, error) {
	var out []*Descriptor
	for _, name := range r.arrayInterfaces {
		d, ok := r.byName[name]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownInterface, name)
		}
		if d.kind != KindInterface {
			return nil, fmt.Errorf("%w: array interface %q is a %s", ErrKindMismatch, name, d.kind)
		}
		out = append(out, d)
	}
	return out, nil
}

// arrayOfLocked creates elem's array type and its dependencies. The caller
// has validated that elem's bottom component can be arrayed.
func (r *Registry) arrayOfLocked(elem, root *Descriptor, arrayIfaces []*Descriptor) *Descriptor {
	name := elem.name + ArraySuffix
	if d, ok := r.byName[name]; ok {
		return d
	}

	var super *Descriptor
	switch {
	case elem.kind == KindInterface:
		super = r.arrayOfLocked(root, root, arrayIfaces)
	case elem.super == nil:
		super = root
	default:
		super = r.arrayOfLocked(elem.super, root, arrayIfaces)
	}

	var ifaces []*Descriptor
	// The root's array is the super of every interface array, so it must
	// not depend on them.
	if elem != root {
		for _, i := range elem.interfaces {
			ifaces = append(ifaces, r.arrayOfLocked(i, root, arrayIfaces))
		}
	}
	ifaces = append(ifaces, arrayIfaces...)

	d := &Descriptor{
		name:          name,
		kind:          KindArray,
		super:         super,
		interfaces:    ifaces,
		element:       elem,
		bottomIsClass: elem.bottomIsClass,
	}
	encode(d, r.limit)
	r.publishLocked(d)

	r.logger.Debug("created array type",
		zap.String("name", name),
		zap.String("element", elem.name),
		zap.String("super", super.name),
	)
	return d
}
