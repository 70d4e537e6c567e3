// Package snapshot serializes a type registry to CBOR so it can be
// restored without replaying the manifests and loaders that built it.
package snapshot

import (
	"errors"
	"fmt"
	"os"

	"github.com/chazu/klass/klass"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// Version is the snapshot format written by Marshal.
const Version = 1

// ErrUnsupportedVersion is returned when decoding a snapshot written in an
// unknown format.
var ErrUnsupportedVersion = errors.New("unsupported snapshot version")

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("snapshot: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Snapshot is the serialized form of a registry: its configuration and
// every registered type in registration order.
type Snapshot struct {
	Version         uint8        `cbor:"1,keyasint"`
	ID              uuid.UUID    `cbor:"2,keyasint"`
	PrimaryLimit    int          `cbor:"3,keyasint"`
	ArrayRoot       string       `cbor:"4,keyasint,omitempty"`
	ArrayInterfaces []string     `cbor:"5,keyasint,omitempty"`
	Types           []TypeRecord `cbor:"6,keyasint"`
}

// TypeRecord is one registration event.
type TypeRecord struct {
	ID         uint32     `cbor:"1,keyasint"`
	Name       string     `cbor:"2,keyasint"`
	Kind       klass.Kind `cbor:"3,keyasint"`
	Super      string     `cbor:"4,keyasint,omitempty"`
	Interfaces []string   `cbor:"5,keyasint,omitempty"`
	Element    string     `cbor:"6,keyasint,omitempty"` // arrays only
}

// Definition converts the record back into a registration event.
func (r TypeRecord) Definition() klass.Definition {
	return klass.Definition{
		Name:       r.Name,
		Kind:       r.Kind,
		Super:      r.Super,
		Interfaces: append([]string(nil), r.Interfaces...),
		Element:    r.Element,
	}
}

// Capture records the current contents of reg under a fresh snapshot ID.
func Capture(reg *klass.Registry) *Snapshot {
	types := reg.All()
	s := &Snapshot{
		Version:         Version,
		ID:              uuid.New(),
		PrimaryLimit:    reg.PrimaryLimit(),
		ArrayRoot:       reg.ArrayRoot(),
		ArrayInterfaces: reg.ArrayInterfaces(),
		Types:           make([]TypeRecord, 0, len(types)),
	}
	for _, d := range types {
		def := d.Definition()
		s.Types = append(s.Types, TypeRecord{
			ID:         uint32(d.ID()),
			Name:       def.Name,
			Kind:       def.Kind,
			Super:      def.Super,
			Interfaces: def.Interfaces,
			Element:    def.Element,
		})
	}
	return s
}

// Restore builds a new registry from s. Options in opts are applied after
// the recorded configuration.
//
// Records are replayed in order, so every type receives the ID it had when
// it was captured.
func Restore(s *Snapshot, opts ...klass.Option) (*klass.Registry, error) {
	if s.Version != Version {
		return nil, fmt.Errorf("snapshot: %w: %d", ErrUnsupportedVersion, s.Version)
	}

	base := []klass.Option{klass.WithPrimaryLimit(s.PrimaryLimit)}
	if s.ArrayRoot != "" {
		base = append(base, klass.WithArrayRoot(s.ArrayRoot))
	}
	if len(s.ArrayInterfaces) > 0 {
		base = append(base, klass.WithArrayInterfaces(s.ArrayInterfaces...))
	}
	reg, err := klass.NewRegistry(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	for _, rec := range s.Types {
		d, err := reg.Define(rec.Definition())
		if err != nil {
			return nil, fmt.Errorf("snapshot: restore %s: %w", rec.Name, err)
		}
		if uint32(d.ID()) != rec.ID {
			return nil, fmt.Errorf("snapshot: type %q restored as #%d, recorded as #%d",
				rec.Name, d.ID(), rec.ID)
		}
	}
	return reg, nil
}

// Marshal serializes s to canonical CBOR.
func Marshal(s *Snapshot) ([]byte, error) {
	return cborEncMode.Marshal(s)
}

// Unmarshal deserializes a snapshot and checks its version.
func Unmarshal(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("snapshot: unmarshal: %w", err)
	}
	if s.Version != Version {
		return nil, fmt.Errorf("snapshot: %w: %d", ErrUnsupportedVersion, s.Version)
	}
	return &s, nil
}

// WriteFile marshals s to path.
func WriteFile(path string, s *Snapshot) error {
	data, err := Marshal(s)
	if err != nil {
		return fmt.Errorf("snapshot: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	return nil
}

// ReadFile reads and unmarshals the snapshot at path.
func ReadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return Unmarshal(data)
}
