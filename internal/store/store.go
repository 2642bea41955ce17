// Package store persists the user's goals, booking templates and planned
// blocks in a single YAML state file.
package store

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"weekplan/internal/model"
)

// State is the persisted document. Instances are deliberately absent:
// occurrences are recomputed from templates on every run.
type State struct {
	Goals     []model.Goal     `yaml:"goals"`
	Templates []model.Template `yaml:"templates"`
	Blocks    []model.Block    `yaml:"blocks"`
}

// Store wraps a YAML state file with atomic saves. All methods are safe
// for concurrent use by the web handlers and the refresh loop.
type Store struct {
	mu   sync.Mutex
	path string
}

// New creates a Store backed by the given path. The file is created on the
// first Save; Load of a missing file returns an empty state.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("store path is empty")
	}
	return &Store{path: path}, nil
}

// Load reads the current state. A missing file yields an empty state, not
// an error, so first runs need no setup step.
func (s *Store) Load() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() (State, error) {
	var st State
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return st, nil
		}
		return st, err
	}
	if err := yaml.Unmarshal(data, &st); err != nil {
		return State{}, err
	}
	return st, nil
}

// Save writes the state atomically (temp file + rename, 0600).
func (s *Store) Save(st State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(st)
}

func (s *Store) save(st State) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(&st)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".weekplan-state-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}

// Update applies fn to the current state and saves the result under one
// lock, so read-modify-write cycles from the web layer do not race the
// refresh loop.
func (s *Store) Update(fn func(*State) error) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load()
	if err != nil {
		return State{}, err
	}
	if err := fn(&st); err != nil {
		return State{}, err
	}
	if err := s.save(st); err != nil {
		return State{}, err
	}
	return st, nil
}
