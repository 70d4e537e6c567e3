package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/chazu/klass/klass"
	"github.com/chazu/klass/loader"
	"github.com/chazu/klass/manifest"
	"github.com/chazu/klass/snapshot"
	"github.com/chazu/klass/store"
	"go.uber.org/zap"
)

var errNoSource = errors.New("no type source: pass --manifest, --db or --snapshot, or run inside a directory with a hierarchy.toml")

// session is a populated registry plus the loader that resolves names
// not registered yet. loader is nil for registries restored from a
// snapshot.
type session struct {
	reg      *klass.Registry
	loader   *loader.Loader
	manifest *manifest.Manifest
}

// openSession builds the registry for one command.
func (a *app) openSession() (*session, error) {
	if path := a.v.GetString(cfgSnapshot); path != "" {
		return a.restoreSession(path)
	}

	m, err := a.findManifest()
	if err != nil {
		return nil, err
	}
	if m == nil && a.v.GetString(cfgDB) == "" {
		return nil, errNoSource
	}

	reg, err := a.newRegistry(m)
	if err != nil {
		return nil, err
	}

	s := &session{reg: reg, manifest: m}
	var boot *loader.Loader
	if db := a.v.GetString(cfgDB); db != "" {
		st, err := a.openStore()
		if err != nil {
			return nil, err
		}
		boot = loader.New("bootstrap", nil, reg, st, loader.WithLogger(a.logger))
		if err := a.loadStored(boot, st); err != nil {
			return nil, err
		}
		s.loader = boot
	}

	if m != nil {
		s.loader = loader.New("app", boot, reg, m, loader.WithLogger(a.logger))
		for _, t := range m.Types {
			if _, err := s.loader.Load(t.Name); err != nil {
				return nil, err
			}
		}
	}

	a.logger.Debug("registry ready",
		zap.Int("types", reg.Len()),
		zap.Int("primary_limit", reg.PrimaryLimit()),
	)
	return s, nil
}

func (a *app) restoreSession(path string) (*session, error) {
	snap, err := snapshot.ReadFile(path)
	if err != nil {
		return nil, err
	}
	reg, err := snapshot.Restore(snap, klass.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}
	a.logger.Debug("restored snapshot",
		zap.String("path", path),
		zap.Stringer("id", snap.ID),
		zap.Int("types", reg.Len()),
	)
	return &session{reg: reg}, nil
}

func (a *app) findManifest() (*manifest.Manifest, error) {
	if path := a.v.GetString(cfgManifest); path != "" {
		return manifest.LoadFile(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return manifest.FindAndLoad(wd)
}

// newRegistry applies, lowest first: the manifest's [registry] table, the
// config file, flags and environment.
func (a *app) newRegistry(m *manifest.Manifest) (*klass.Registry, error) {
	var opts []klass.Option
	if m != nil {
		opts = m.Options()
	}
	if root := a.v.GetString(cfgArrayRoot); root != "" {
		opts = append(opts, klass.WithArrayRoot(root))
	}
	if ifaces := a.v.GetStringSlice(cfgArrayInterfaces); len(ifaces) > 0 {
		opts = append(opts, klass.WithArrayInterfaces(ifaces...))
	}
	if limit := a.v.GetInt(cfgPrimaryLimit); limit != 0 {
		opts = append(opts, klass.WithPrimaryLimit(limit))
	}
	opts = append(opts, klass.WithLogger(a.logger))
	return klass.NewRegistry(opts...)
}

func (a *app) openStore() (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	st, err := store.Open(a.v.GetString(cfgDB), store.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}
	a.store = st
	return st, nil
}

// loadStored resolves every stored class and interface through boot.
// Arrays are derived on demand.
func (a *app) loadStored(boot *loader.Loader, st *store.Store) error {
	defs, err := st.Definitions()
	if err != nil {
		return err
	}
	for _, def := range defs {
		if def.Kind == klass.KindArray {
			continue
		}
		if _, err := boot.Load(def.Name); err != nil {
			return err
		}
	}
	return nil
}

// resolve returns the descriptor for name, loading or deriving it when it
// is not registered yet.
func (s *session) resolve(name string) (*klass.Descriptor, error) {
	if s.loader != nil {
		return s.loader.Load(name)
	}
	if d, ok := s.reg.Lookup(name); ok {
		return d, nil
	}
	if elem, ok := strings.CutSuffix(name, klass.ArraySuffix); ok {
		e, err := s.resolve(elem)
		if err != nil {
			return nil, err
		}
		return s.reg.ArrayOf(e.Name())
	}
	return nil, fmt.Errorf("%w: %s", klass.ErrUnknownType, name)
}
