package klass

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// ---------------------------------------------------------------------------
// Kinds and identities
// ---------------------------------------------------------------------------

// TypeID is the dense, registry-assigned identity of a descriptor.
// IDs start at 1 and follow registration order; 0 is never assigned.
type TypeID uint32

// NoTypeID is the zero TypeID.
const NoTypeID TypeID = 0

// Kind distinguishes classes, interfaces and array types.
type Kind uint8

const (
	KindClass Kind = iota
	KindInterface
	KindArray
)

var kindNames = [...]string{
	KindClass:     "class",
	KindInterface: "interface",
	KindArray:     "array",
}

// String returns the lowercase kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind parses a kind name. The empty string parses as KindClass.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "", "class":
		return KindClass, nil
	case "interface":
		return KindInterface, nil
	case "array":
		return KindArray, nil
	}
	return 0, fmt.Errorf("unknown kind %q", s)
}

// Secondary is the anchor sentinel for types that are never stored in a
// primary supers array. Checks against such a type scan the secondary list.
const Secondary = -1

// ArraySuffix is appended to an element name to form its array type name.
const ArraySuffix = "[]"

// ---------------------------------------------------------------------------
// Definition: a registration event
// ---------------------------------------------------------------------------

// Definition describes one type as presented to Registry.Define.
// Super is empty for roots and interfaces. Element is set only for arrays.
type Definition struct {
	Name       string
	Kind       Kind
	Super      string
	Interfaces []string
	Element    string
}

// ---------------------------------------------------------------------------
// Descriptor
// ---------------------------------------------------------------------------

// Descriptor is the registry's metadata for one type.
//
// Every field is fixed when the descriptor is published by the registry.
// The only word that changes afterwards is the secondary hit cache, which
// is a lookup hint and never changes the result of a check.
type Descriptor struct {
	id    TypeID
	name  string
	kind  Kind
	depth int

	super      *Descriptor
	interfaces []*Descriptor
	element    *Descriptor

	// primary holds the root-most min(depth, L) ancestors, root first.
	primary []*Descriptor
	// secondary holds ancestors beyond L (root first) followed by every
	// interface, each exactly once. secondaryClasses counts the leading
	// ancestor entries.
	secondary        []*Descriptor
	secondaryClasses int

	anchor int

	// bottomIsClass is false for interfaces and arrays of interfaces.
	bottomIsClass bool

	cache atomic.Pointer[Descriptor]
}

// ID returns the registry-assigned identity.
func (d *Descriptor) ID() TypeID { return d.id }

// Name returns the type name.
func (d *Descriptor) Name() string { return d.name }

// Kind returns whether d is a class, interface or array.
func (d *Descriptor) Kind() Kind { return d.kind }

// IsInterface reports whether d is an interface.
func (d *Descriptor) IsInterface() bool { return d.kind == KindInterface }

// IsArray reports whether d is an array type.
func (d *Descriptor) IsArray() bool { return d.kind == KindArray }

// Super returns the direct superclass, or nil for roots and interfaces.
func (d *Descriptor) Super() *Descriptor { return d.super }

// Element returns the component type of an array, or nil.
func (d *Descriptor) Element() *Descriptor { return d.element }

// Depth returns the length of the superclass chain (0 for roots and interfaces).
func (d *Descriptor) Depth() int { return d.depth }

// Anchor returns the index this type occupies in the primary supers of its
// subtypes, or Secondary.
func (d *Descriptor) Anchor() int { return d.anchor }

// IsPrimary reports whether d is checked through the primary array.
func (d *Descriptor) IsPrimary() bool { return d.anchor != Secondary }

// Interfaces returns the directly implemented (or extended) interfaces.
// The returned slice is a copy.
func (d *Descriptor) Interfaces() []*Descriptor { return cloneDescriptors(d.interfaces) }

// PrimarySupers returns a copy of the primary supers array.
func (d *Descriptor) PrimarySupers() []*Descriptor { return cloneDescriptors(d.primary) }

// SecondarySupers returns a copy of the secondary supers array.
func (d *Descriptor) SecondarySupers() []*Descriptor { return cloneDescriptors(d.secondary) }

// Ancestors returns the full superclass chain, root first, excluding d.
func (d *Descriptor) Ancestors() []*Descriptor {
	return d.chain()
}

// chain rebuilds the ancestor chain from the encoded arrays without
// following superclass pointers.
func (d *Descriptor) chain() []*Descriptor {
	result := make([]*Descriptor, 0, d.depth)
	result = append(result, d.primary...)
	result = append(result, d.secondary[:d.secondaryClasses]...)
	return result
}

// secondaryInterfaces returns the interface portion of the secondary array.
func (d *Descriptor) secondaryInterfaces() []*Descriptor {
	return d.secondary[d.secondaryClasses:]
}

// Definition returns the registration event that produced d.
func (d *Descriptor) Definition() Definition {
	def := Definition{Name: d.name, Kind: d.kind}
	if d.kind == KindArray {
		def.Element = d.element.name
		return def
	}
	if d.super != nil {
		def.Super = d.super.name
	}
	if len(d.interfaces) > 0 {
		def.Interfaces = Names(d.interfaces)
	}
	return def
}

// String implements the Stringer interface.
func (d *Descriptor) String() string {
	return d.name
}

// Names maps descriptors to their names.
func Names(ds []*Descriptor) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.name
	}
	return out
}

func cloneDescriptors(ds []*Descriptor) []*Descriptor {
	if len(ds) == 0 {
		return nil
	}
	out := make([]*Descriptor, len(ds))
	copy(out, ds)
	return out
}
