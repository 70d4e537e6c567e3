package klass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRegistry creates a registry or fails the test.
func newTestRegistry(t *testing.T, opts ...Option) *Registry {
	t.Helper()
	r, err := NewRegistry(opts...)
	require.NoError(t, err)
	return r
}

// mustRegister registers a class or fails the test.
func mustRegister(t *testing.T, r *Registry, name, super string, interfaces ...string) *Descriptor {
	t.Helper()
	d, err := r.Register(name, super, interfaces...)
	require.NoError(t, err, "Register(%q)", name)
	return d
}

// mustInterface registers an interface or fails the test.
func mustInterface(t *testing.T, r *Registry, name string, supers ...string) *Descriptor {
	t.Helper()
	d, err := r.RegisterInterface(name, supers...)
	require.NoError(t, err, "RegisterInterface(%q)", name)
	return d
}

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

func TestNewRegistryDefaults(t *testing.T) {
	r := newTestRegistry(t)
	assert.Equal(t, DefaultPrimaryLimit, r.PrimaryLimit())
	assert.Zero(t, r.Len())
}

func TestNewRegistryInvalidLimit(t *testing.T) {
	for _, limit := range []int{0, -1} {
		_, err := NewRegistry(WithPrimaryLimit(limit))
		assert.ErrorIs(t, err, ErrInvalidLimit, "limit=%d", limit)
	}
}

// ---------------------------------------------------------------------------
// Registration
// ---------------------------------------------------------------------------

func TestRegisterRoot(t *testing.T) {
	r := newTestRegistry(t)
	object := mustRegister(t, r, "Object", "")

	assert.Equal(t, TypeID(1), object.ID())
	assert.Nil(t, object.Super(), "root class should have nil superclass")
	assert.Zero(t, object.Depth())
	assert.Zero(t, object.Anchor())
	assert.Empty(t, object.PrimarySupers())
	assert.Empty(t, object.SecondarySupers())
}

func TestRegisterAssignsSequentialIDs(t *testing.T) {
	r := newTestRegistry(t)
	object := mustRegister(t, r, "Object", "")
	point := mustRegister(t, r, "Point", "Object")

	assert.Equal(t, object.ID()+1, point.ID())
	got, ok := r.LookupID(point.ID())
	require.True(t, ok)
	assert.Same(t, point, got)

	_, ok = r.LookupID(NoTypeID)
	assert.False(t, ok)
	_, ok = r.LookupID(99)
	assert.False(t, ok)
}

func TestRegisterDuplicate(t *testing.T) {
	r := newTestRegistry(t)
	first := mustRegister(t, r, "Object", "")

	_, err := r.Register("Object", "")
	require.ErrorIs(t, err, ErrDuplicateIdentity)

	got, _ := r.Lookup("Object")
	assert.Same(t, first, got, "duplicate registration replaced the first descriptor")
	assert.Equal(t, 1, r.Len())
}

func TestRegisterUnknownSuperclassLeavesRegistryUnchanged(t *testing.T) {
	r := newTestRegistry(t)
	mustRegister(t, r, "Object", "")
	before := r.All()

	_, err := r.Register("Point", "Shape")
	require.ErrorIs(t, err, ErrUnknownSuperclass)
	assert.False(t, r.Has("Point"), "failed registration should not be visible")
	assert.Equal(t, before, r.All())

	// The next successful registration still gets the next ID.
	shape := mustRegister(t, r, "Shape", "Object")
	assert.Equal(t, TypeID(2), shape.ID())
}

func TestRegisterUnknownInterface(t *testing.T) {
	r := newTestRegistry(t)
	mustRegister(t, r, "Object", "")
	mustInterface(t, r, "Comparable")

	_, err := r.Register("String", "Object", "Comparable", "CharSequence")
	require.ErrorIs(t, err, ErrUnknownInterface)
	assert.Equal(t, 2, r.Len())
}

func TestRegisterKindMismatch(t *testing.T) {
	r := newTestRegistry(t)
	mustRegister(t, r, "Object", "")
	mustInterface(t, r, "Runnable")

	tests := []struct {
		name string
		def  Definition
	}{
		{"class extends interface", Definition{Name: "Task", Super: "Runnable"}},
		{"class implements class", Definition{Name: "Task", Super: "Object", Interfaces: []string{"Object"}}},
		{"interface extends class", Definition{Name: "Callable", Kind: KindInterface, Super: "Object"}},
		{"interface extends class as interface", Definition{Name: "Callable", Kind: KindInterface, Interfaces: []string{"Object"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Define(tt.def)
			assert.ErrorIs(t, err, ErrKindMismatch)
		})
	}
	assert.Equal(t, 2, r.Len())
}

func TestRegisterInvalidName(t *testing.T) {
	r := newTestRegistry(t)
	for _, name := range []string{"", "Object[]"} {
		_, err := r.Register(name, "")
		assert.ErrorIs(t, err, ErrInvalidName, "Register(%q)", name)
	}
}

func TestRegisterDeduplicatesDirectInterfaces(t *testing.T) {
	r := newTestRegistry(t)
	mustRegister(t, r, "Object", "")
	mustInterface(t, r, "Runnable")
	task := mustRegister(t, r, "Task", "Object", "Runnable", "Runnable")

	assert.Equal(t, []string{"Runnable"}, Names(task.Interfaces()))
	assert.Equal(t, []string{"Runnable"}, Names(task.SecondarySupers()))
}

// ---------------------------------------------------------------------------
// Lookup
// ---------------------------------------------------------------------------

func TestLookupIsIdempotent(t *testing.T) {
	r := newTestRegistry(t)
	registered := mustRegister(t, r, "Object", "")

	for i := 0; i < 3; i++ {
		got, ok := r.Lookup("Object")
		require.True(t, ok)
		require.Same(t, registered, got, "lookup #%d", i)
	}
}

func TestLookupUnknown(t *testing.T) {
	r := newTestRegistry(t)
	d, ok := r.Lookup("Missing")
	assert.False(t, ok)
	assert.Nil(t, d)
}

func TestAllInRegistrationOrder(t *testing.T) {
	r := newTestRegistry(t)
	mustRegister(t, r, "Object", "")
	mustInterface(t, r, "Runnable")
	mustRegister(t, r, "Thread", "Object", "Runnable")

	assert.Equal(t, []string{"Object", "Runnable", "Thread"}, Names(r.All()))
}

func TestDefinitionRoundTrip(t *testing.T) {
	r := newTestRegistry(t)
	mustRegister(t, r, "Object", "")
	mustInterface(t, r, "Runnable")
	thread := mustRegister(t, r, "Thread", "Object", "Runnable")

	want := Definition{Name: "Thread", Kind: KindClass, Super: "Object", Interfaces: []string{"Runnable"}}
	assert.Equal(t, want, thread.Definition())
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"", KindClass},
		{"class", KindClass},
		{"Interface", KindInterface},
		{"array", KindArray},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if assert.NoError(t, err, "ParseKind(%q)", tt.in) {
			assert.Equal(t, tt.want, got, "ParseKind(%q)", tt.in)
		}
	}
	_, err := ParseKind("struct")
	assert.Error(t, err)
}
