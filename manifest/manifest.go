// Package manifest handles hierarchy.toml type definition files.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/chazu/klass/klass"
	"github.com/chazu/klass/loader"
	"go.uber.org/zap"
)

// FileName is the manifest file looked up by Load and FindAndLoad.
const FileName = "hierarchy.toml"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid manifest")

// Manifest represents a hierarchy.toml file.
type Manifest struct {
	Project  Project        `toml:"project"`
	Registry RegistryConfig `toml:"registry"`
	Types    []TypeDecl     `toml:"types"`

	// Path is the file the manifest was loaded from (set at load time).
	Path string `toml:"-"`

	index map[string]int
}

// Project contains descriptive metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// RegistryConfig configures the registry the manifest is applied to.
type RegistryConfig struct {
	PrimaryLimit    int      `toml:"primary-limit"`
	ArrayRoot       string   `toml:"array-root"`
	ArrayInterfaces []string `toml:"array-interfaces"`
}

// TypeDecl declares one class or interface.
type TypeDecl struct {
	Name       string   `toml:"name"`
	Kind       string   `toml:"kind"`
	Super      string   `toml:"super"`
	Interfaces []string `toml:"interfaces"`
}

// Definition converts the declaration.
func (t TypeDecl) Definition() (klass.Definition, error) {
	kind, err := klass.ParseKind(t.Kind)
	if err != nil {
		return klass.Definition{}, fmt.Errorf("%w: type %q: %v", ErrInvalid, t.Name, err)
	}
	return klass.Definition{
		Name:       t.Name,
		Kind:       kind,
		Super:      t.Super,
		Interfaces: append([]string(nil), t.Interfaces...),
	}, nil
}

// Load parses the hierarchy.toml file in the given directory.
func Load(dir string) (*Manifest, error) {
	return LoadFile(filepath.Join(dir, FileName))
}

// LoadFile parses a manifest file at an explicit path.
func LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	m.Path, err = filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes and validates manifest contents.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if _, err := toml.Decode(string(data), &m); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// FindAndLoad walks up from startDir to find a hierarchy.toml file, then
// loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// validate checks names, kinds and per-kind constraints, and builds the
// name index.
func (m *Manifest) validate() error {
	if m.Registry.PrimaryLimit < 0 {
		return fmt.Errorf("%w: primary-limit must not be negative", ErrInvalid)
	}

	m.index = make(map[string]int, len(m.Types))
	for i, t := range m.Types {
		if t.Name == "" {
			return fmt.Errorf("%w: type #%d has no name", ErrInvalid, i+1)
		}
		if _, dup := m.index[t.Name]; dup {
			return fmt.Errorf("%w: type %q declared twice", ErrInvalid, t.Name)
		}
		kind, err := klass.ParseKind(t.Kind)
		if err != nil {
			return fmt.Errorf("%w: type %q: %v", ErrInvalid, t.Name, err)
		}
		switch kind {
		case klass.KindArray:
			return fmt.Errorf("%w: type %q: array types are derived, not declared", ErrInvalid, t.Name)
		case klass.KindInterface:
			if t.Super != "" {
				return fmt.Errorf("%w: interface %q cannot have a superclass", ErrInvalid, t.Name)
			}
		}
		m.index[t.Name] = i
	}
	return nil
}

// Lookup returns the declaration for name.
func (m *Manifest) Lookup(name string) (TypeDecl, bool) {
	if m.index == nil {
		// Built in code rather than parsed.
		for _, t := range m.Types {
			if t.Name == name {
				return t, true
			}
		}
		return TypeDecl{}, false
	}
	i, ok := m.index[name]
	if !ok {
		return TypeDecl{}, false
	}
	return m.Types[i], true
}

// Find implements loader.Finder.
func (m *Manifest) Find(name string) (klass.Definition, error) {
	t, ok := m.Lookup(name)
	if !ok {
		return klass.Definition{}, fmt.Errorf("%w: %s", loader.ErrClassNotFound, name)
	}
	return t.Definition()
}

// Options returns the registry options described by the [registry] table.
func (m *Manifest) Options() []klass.Option {
	var opts []klass.Option
	if m.Registry.PrimaryLimit > 0 {
		opts = append(opts, klass.WithPrimaryLimit(m.Registry.PrimaryLimit))
	}
	if m.Registry.ArrayRoot != "" {
		opts = append(opts, klass.WithArrayRoot(m.Registry.ArrayRoot))
	}
	if len(m.Registry.ArrayInterfaces) > 0 {
		opts = append(opts, klass.WithArrayInterfaces(m.Registry.ArrayInterfaces...))
	}
	return opts
}

// NewRegistry creates a registry configured by the manifest. Options in
// extra are applied after the manifest's own and take precedence.
func (m *Manifest) NewRegistry(extra ...klass.Option) (*klass.Registry, error) {
	return klass.NewRegistry(append(m.Options(), extra...)...)
}

// Apply registers every declared type in dependency order.
func (m *Manifest) Apply(reg *klass.Registry, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	defs, err := m.Ordered()
	if err != nil {
		return err
	}
	for _, def := range defs {
		if _, err := reg.Define(def); err != nil {
			return fmt.Errorf("applying %s: %w", m.describe(), err)
		}
	}
	logger.Debug("applied manifest",
		zap.String("manifest", m.describe()),
		zap.Int("types", len(defs)),
	)
	return nil
}

func (m *Manifest) describe() string {
	switch {
	case m.Path != "":
		return m.Path
	case m.Project.Name != "":
		return m.Project.Name
	}
	return FileName
}
