// Package store persists type definitions in SQLite so a bootstrap loader
// can resolve them across runs.
package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/chazu/klass/klass"
	"github.com/chazu/klass/loader"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Store is a SQLite-backed definition store. It implements loader.Finder.
type Store struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for write events.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open opens (creating if needed) the store at path.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{path: path, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	s.db = db
	return s, nil
}

// Path returns the database file.
func (s *Store) Path() string { return s.path }

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Put stores def. Names are unique: storing a name twice returns
// klass.ErrDuplicateIdentity.
func (s *Store) Put(def klass.Definition) error {
	if def.Name == "" {
		return fmt.Errorf("store: %w: empty name", klass.ErrInvalidName)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	if err := putTx(tx, def); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}

	s.logger.Debug("stored type",
		zap.String("type", def.Name),
		zap.Stringer("kind", def.Kind),
	)
	return nil
}

// PutRegistry stores every type registered in reg that is not stored yet,
// in registration order, and returns how many were added.
func (s *Store) PutRegistry(reg *klass.Registry) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	added := 0
	for _, d := range reg.All() {
		exists, err := hasTx(tx, d.Name())
		if err != nil {
			return 0, err
		}
		if exists {
			continue
		}
		if err := putTx(tx, d.Definition()); err != nil {
			return 0, err
		}
		added++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit: %w", err)
	}

	s.logger.Debug("stored registry",
		zap.Int("added", added),
		zap.Int("registered", reg.Len()),
	)
	return added, nil
}

func hasTx(tx *sql.Tx, name string) (bool, error) {
	var n int
	if err := tx.QueryRow("SELECT COUNT(*) FROM types WHERE name = ?", name).Scan(&n); err != nil {
		return false, fmt.Errorf("store: querying %s: %w", name, err)
	}
	return n > 0, nil
}

func putTx(tx *sql.Tx, def klass.Definition) error {
	exists, err := hasTx(tx, def.Name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("store: %w: %q", klass.ErrDuplicateIdentity, def.Name)
	}

	res, err := tx.Exec(
		"INSERT INTO types (name, kind, super, element) VALUES (?, ?, ?, ?)",
		def.Name, def.Kind.String(), def.Super, def.Element,
	)
	if err != nil {
		return fmt.Errorf("store: inserting %s: %w", def.Name, err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("store: inserting %s: %w", def.Name, err)
	}

	for i, iface := range def.Interfaces {
		if _, err := tx.Exec(
			"INSERT INTO type_interfaces (type_seq, position, name) VALUES (?, ?, ?)",
			seq, i, iface,
		); err != nil {
			return fmt.Errorf("store: inserting interfaces of %s: %w", def.Name, err)
		}
	}
	return nil
}

// Definitions returns every stored definition in insertion order.
func (s *Store) Definitions() ([]klass.Definition, error) {
	rows, err := s.db.Query("SELECT seq, name, kind, super, element FROM types ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("store: querying types: %w", err)
	}
	defer rows.Close()

	var defs []klass.Definition
	index := make(map[int64]int)
	for rows.Next() {
		var seq int64
		def, err := scanDefinition(rows, &seq)
		if err != nil {
			return nil, err
		}
		index[seq] = len(defs)
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: reading types: %w", err)
	}

	irows, err := s.db.Query("SELECT type_seq, name FROM type_interfaces ORDER BY type_seq, position")
	if err != nil {
		return nil, fmt.Errorf("store: querying interfaces: %w", err)
	}
	defer irows.Close()

	for irows.Next() {
		var seq int64
		var name string
		if err := irows.Scan(&seq, &name); err != nil {
			return nil, fmt.Errorf("store: reading interfaces: %w", err)
		}
		if i, ok := index[seq]; ok {
			defs[i].Interfaces = append(defs[i].Interfaces, name)
		}
	}
	if err := irows.Err(); err != nil {
		return nil, fmt.Errorf("store: reading interfaces: %w", err)
	}
	return defs, nil
}

// Find implements loader.Finder.
func (s *Store) Find(name string) (klass.Definition, error) {
	var seq int64
	def, err := scanDefinition(s.db.QueryRow(
		"SELECT seq, name, kind, super, element FROM types WHERE name = ?", name,
	), &seq)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return klass.Definition{}, fmt.Errorf("%w: %s", loader.ErrClassNotFound, name)
		}
		return klass.Definition{}, err
	}

	rows, err := s.db.Query(
		"SELECT name FROM type_interfaces WHERE type_seq = ? ORDER BY position", seq,
	)
	if err != nil {
		return klass.Definition{}, fmt.Errorf("store: querying interfaces of %s: %w", name, err)
	}
	defer rows.Close()
	for rows.Next() {
		var iface string
		if err := rows.Scan(&iface); err != nil {
			return klass.Definition{}, fmt.Errorf("store: reading interfaces of %s: %w", name, err)
		}
		def.Interfaces = append(def.Interfaces, iface)
	}
	if err := rows.Err(); err != nil {
		return klass.Definition{}, fmt.Errorf("store: reading interfaces of %s: %w", name, err)
	}
	return def, nil
}

// Len returns the number of stored definitions.
func (s *Store) Len() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM types").Scan(&n); err != nil {
		return 0, fmt.Errorf("store: counting types: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDefinition(row scanner, seq *int64) (klass.Definition, error) {
	var def klass.Definition
	var kind string
	if err := row.Scan(seq, &def.Name, &kind, &def.Super, &def.Element); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return def, err
		}
		return def, fmt.Errorf("store: reading type: %w", err)
	}
	k, err := klass.ParseKind(kind)
	if err != nil {
		return def, fmt.Errorf("store: type %s: %w", def.Name, err)
	}
	def.Kind = k
	return def, nil
}
