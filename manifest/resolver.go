package manifest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/klass/klass"
)

// ErrCycle is returned when declared types form an inheritance cycle.
var ErrCycle = errors.New("inheritance cycle")

// Ordered returns the declared types topologically sorted: every
// superclass and interface declared in the manifest comes before the types
// that reference it. Otherwise declaration order is preserved. Names that
// are not declared in the manifest are left for the registry to resolve.
func (m *Manifest) Ordered() ([]klass.Definition, error) {
	r := &orderer{
		m:     m,
		state: make(map[string]visitState, len(m.Types)),
	}
	for _, t := range m.Types {
		if err := r.visit(t.Name, nil); err != nil {
			return nil, err
		}
	}
	return r.order, nil
}

type visitState uint8

const (
	unvisited visitState = iota
	visiting
	done
)

type orderer struct {
	m     *Manifest
	state map[string]visitState
	order []klass.Definition
}

// visit appends name after its supertypes. path is the chain of names
// currently being visited, used to report cycles.
func (r *orderer) visit(name string, path []string) error {
	t, ok := r.m.Lookup(name)
	if !ok {
		return nil // external, resolved by the registry
	}

	switch r.state[name] {
	case done:
		return nil
	case visiting:
		return fmt.Errorf("%w: %s -> %s", ErrCycle, strings.Join(path, " -> "), name)
	}

	r.state[name] = visiting
	path = append(path, name)
	if t.Super != "" {
		if err := r.visit(t.Super, path); err != nil {
			return err
		}
	}
	for _, i := range t.Interfaces {
		if err := r.visit(i, path); err != nil {
			return err
		}
	}
	r.state[name] = done

	def, err := t.Definition()
	if err != nil {
		return err
	}
	r.order = append(r.order, def)
	return nil
}
