package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/klass/klass"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildRegistry registers a small hierarchy with a chain deeper than the
// primary limit, an interface hierarchy and a few arrays.
func buildRegistry(t *testing.T) *klass.Registry {
	t.Helper()
	reg, err := klass.NewRegistry(
		klass.WithPrimaryLimit(3),
		klass.WithArrayRoot("Object"),
		klass.WithArrayInterfaces("Cloneable", "Serializable"),
	)
	require.NoError(t, err)

	steps := []klass.Definition{
		{Name: "Cloneable", Kind: klass.KindInterface},
		{Name: "Serializable", Kind: klass.KindInterface},
		{Name: "Comparable", Kind: klass.KindInterface},
		{Name: "Ordered", Kind: klass.KindInterface, Interfaces: []string{"Comparable"}},
		{Name: "Object"},
		{Name: "A", Super: "Object"},
		{Name: "B", Super: "A", Interfaces: []string{"Serializable"}},
		{Name: "C", Super: "B"},
		{Name: "D", Super: "C", Interfaces: []string{"Ordered"}},
		{Name: "C[]", Kind: klass.KindArray, Element: "C"},
		{Name: "Ordered[]", Kind: klass.KindArray, Element: "Ordered"},
		{Name: "D[]", Kind: klass.KindArray, Element: "D"},
		{Name: "D[][]", Kind: klass.KindArray, Element: "D[]"},
	}
	for _, def := range steps {
		_, err := reg.Define(def)
		require.NoError(t, err, "define %s", def.Name)
	}
	return reg
}

func TestCaptureRecordsRegistrationOrder(t *testing.T) {
	reg := buildRegistry(t)
	s := Capture(reg)

	assert.Equal(t, uint8(Version), s.Version)
	assert.Equal(t, 3, s.PrimaryLimit)
	assert.Equal(t, "Object", s.ArrayRoot)
	assert.Equal(t, []string{"Cloneable", "Serializable"}, s.ArrayInterfaces)
	require.Len(t, s.Types, reg.Len())

	for i, d := range reg.All() {
		rec := s.Types[i]
		assert.Equal(t, uint32(d.ID()), rec.ID)
		assert.Equal(t, d.Name(), rec.Name)
		assert.Equal(t, d.Kind(), rec.Kind)
	}

	d, ok := lookupRecord(s, "D")
	require.True(t, ok)
	assert.Equal(t, "C", d.Super)
	assert.Equal(t, []string{"Ordered"}, d.Interfaces)

	arr, ok := lookupRecord(s, "C[]")
	require.True(t, ok)
	assert.Equal(t, "C", arr.Element)
	assert.Empty(t, arr.Super)
}

func TestCaptureAssignsFreshIDs(t *testing.T) {
	reg := buildRegistry(t)
	assert.NotEqual(t, Capture(reg).ID, Capture(reg).ID)
}

func TestMarshalRoundTrip(t *testing.T) {
	s := Capture(buildRegistry(t))

	data, err := Marshal(s)
	require.NoError(t, err)
	got, err := Unmarshal(data)
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(s, got), "snapshot mismatch (-want +got)")
}

func TestMarshalIsDeterministic(t *testing.T) {
	s := Capture(buildRegistry(t))

	first, err := Marshal(s)
	require.NoError(t, err)
	second, err := Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRestoreAnswersIdentically(t *testing.T) {
	orig := buildRegistry(t)
	restored, err := Restore(Capture(orig))
	require.NoError(t, err)

	require.Equal(t, orig.Len(), restored.Len())
	assert.Equal(t, orig.PrimaryLimit(), restored.PrimaryLimit())

	for _, want := range orig.All() {
		got, ok := restored.LookupID(want.ID())
		require.True(t, ok, "missing %s", want.Name())
		assert.Equal(t, want.Name(), got.Name())
		assert.Equal(t, want.Anchor(), got.Anchor(), "anchor of %s", want.Name())
		assert.Equal(t, klass.Names(want.PrimarySupers()), klass.Names(got.PrimarySupers()), "primary of %s", want.Name())
		assert.Equal(t, klass.Names(want.SecondarySupers()), klass.Names(got.SecondarySupers()), "secondary of %s", want.Name())
	}

	for _, sub := range orig.All() {
		for _, super := range orig.All() {
			want, err := orig.IsSubtypeOf(sub.Name(), super.Name())
			require.NoError(t, err)
			got, err := restored.IsSubtypeOf(sub.Name(), super.Name())
			require.NoError(t, err)
			assert.Equal(t, want, got, "%s <: %s", sub.Name(), super.Name())
		}
	}
}

func TestRestoreAppliesExtraOptions(t *testing.T) {
	restored, err := Restore(Capture(buildRegistry(t)), klass.WithPrimaryLimit(8))
	require.NoError(t, err)
	assert.Equal(t, 8, restored.PrimaryLimit())

	d, ok := restored.Lookup("D")
	require.True(t, ok)
	assert.True(t, d.IsPrimary())
}

func TestRestoreRejectsBrokenSnapshots(t *testing.T) {
	s := Capture(buildRegistry(t))
	s.Types = s.Types[1:] // drop Cloneable

	_, err := Restore(s)
	require.Error(t, err)
}

func TestUnsupportedVersion(t *testing.T) {
	s := Capture(buildRegistry(t))
	s.Version = Version + 1

	_, err := Restore(s)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	data, err := Marshal(s)
	require.NoError(t, err)
	_, err = Unmarshal(data)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestUnmarshalGarbage(t *testing.T) {
	_, err := Unmarshal([]byte{0xff, 0x00, 0x13})
	assert.Error(t, err)
}

func TestWriteAndReadFile(t *testing.T) {
	s := Capture(buildRegistry(t))
	path := filepath.Join(t.TempDir(), "registry.cbor")

	require.NoError(t, WriteFile(path, s))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(s, got), "snapshot mismatch (-want +got)")

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.cbor"))
	assert.Error(t, err)
}

func lookupRecord(s *Snapshot, name string) (TypeRecord, bool) {
	for _, rec := range s.Types {
		if rec.Name == name {
			return rec, true
		}
	}
	return TypeRecord{}, false
}
