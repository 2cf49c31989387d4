// Package store persists containers as versioned JSON snapshots on an afero
// filesystem, one file per container under <root>/containers.
//
// A Store is constructed up front but touches the filesystem only on first
// use. Close releases it; any call after Close fails with ErrClosed.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/arthur-debert/opshell/pkg/opshell/container"
)

// SnapshotVersion is written into every snapshot and required on load.
const SnapshotVersion = "1"

const (
	containersDir = "containers"
	snapshotExt   = ".json"
)

// Metadata describes a snapshot file.
type Metadata struct {
	Version string    `json:"version"`
	SavedAt time.Time `json:"saved_at"`
}

// Snapshot is the on-disk shape of one container.
type Snapshot struct {
	Metadata  Metadata             `json:"metadata"`
	Container *container.Container `json:"container"`
}

// ErrClosed is returned by every call made after Close.
var ErrClosed = errors.New("store is closed")

// NotFoundError reports an unknown container id or prefix.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("container %s not found", e.ID)
}

// AmbiguousError reports an id prefix matching more than one container.
type AmbiguousError struct {
	Prefix  string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("id prefix %q matches %d containers: %s", e.Prefix, len(e.Matches), strings.Join(e.Matches, ", "))
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the store logger
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithClock sets the time source for snapshot metadata
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store is the persistence handle for containers.
type Store struct {
	fs   afero.Afero
	root string

	openOnce sync.Once
	openErr  error

	mu     sync.Mutex
	closed bool

	logger zerolog.Logger
	now    func() time.Time
}

// New returns a store rooted at root on fs. Nothing is created until the
// first call that needs the filesystem.
func New(fs afero.Fs, root string, opts ...Option) *Store {
	s := &Store{
		fs:     afero.Afero{Fs: fs},
		root:   root,
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) dir() string {
	return filepath.Join(s.root, containersDir)
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir(), id+snapshotExt)
}

// ready opens the store on first use. Callers hold s.mu.
func (s *Store) ready() error {
	if s.closed {
		return ErrClosed
	}
	s.openOnce.Do(func() {
		if err := s.fs.MkdirAll(s.dir(), 0o755); err != nil {
			s.openErr = fmt.Errorf("failed to open store at %s: %w", s.root, err)
			return
		}
		s.logger.Debug().Str("root", s.root).Msg("store opened")
	})
	return s.openErr
}

// Save writes a snapshot of c, replacing any previous one.
func (s *Store) Save(c *container.Container) error {
	if c == nil {
		return errors.New("cannot save nil container")
	}
	if !container.ValidID(c.ID) {
		return fmt.Errorf("cannot save container with invalid id %q", c.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}

	snap := Snapshot{
		Metadata:  Metadata{Version: SnapshotVersion, SavedAt: s.now().UTC()},
		Container: c,
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode container %s: %w", c.ID, err)
	}

	final := s.path(c.ID)
	tmp := final + ".tmp"
	if err := s.fs.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write container %s: %w", c.ID, err)
	}
	if err := s.fs.Rename(tmp, final); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("failed to commit container %s: %w", c.ID, err)
	}
	s.logger.Debug().Str("container", c.ID).Int("bytes", len(data)).Msg("container saved")
	return nil
}

// Load reads the container with the exact id.
func (s *Store) Load(id string) (*container.Container, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.load(id)
}

func (s *Store) load(id string) (*container.Container, error) {
	if !container.ValidID(id) {
		return nil, &NotFoundError{ID: id}
	}
	data, err := s.fs.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &NotFoundError{ID: id}
		}
		return nil, fmt.Errorf("failed to read container %s: %w", id, err)
	}

	snap, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("container %s: %w", id, err)
	}
	if snap.Container.ID != id {
		return nil, fmt.Errorf("container %s: snapshot holds id %s", id, snap.Container.ID)
	}
	return snap.Container, nil
}

// Decode parses and checks one snapshot document.
func Decode(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	if snap.Metadata.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %q", snap.Metadata.Version)
	}
	if snap.Container == nil {
		return nil, errors.New("snapshot has no container")
	}
	if snap.Container.Filesystem == nil {
		return nil, errors.New("snapshot has no filesystem")
	}
	return &snap, nil
}

// IDs returns the ids of every stored container, sorted.
func (s *Store) IDs() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.ids()
}

func (s *Store) ids() ([]string, error) {
	infos, err := s.fs.ReadDir(s.dir())
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}
	var ids []string
	for _, info := range infos {
		name := info.Name()
		if info.IsDir() || !strings.HasSuffix(name, snapshotExt) {
			continue
		}
		id := strings.TrimSuffix(name, snapshotExt)
		if container.ValidID(id) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// List loads every stored container, oldest first. Unreadable snapshots are
// logged and skipped.
func (s *Store) List() ([]*container.Container, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}

	ids, err := s.ids()
	if err != nil {
		return nil, err
	}
	out := make([]*container.Container, 0, len(ids))
	for _, id := range ids {
		c, err := s.load(id)
		if err != nil {
			s.logger.Warn().Err(err).Str("container", id).Msg("skipping unreadable snapshot")
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes the container with the exact id.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}
	if !container.ValidID(id) {
		return &NotFoundError{ID: id}
	}
	exists, err := s.fs.Exists(s.path(id))
	if err != nil {
		return fmt.Errorf("failed to stat container %s: %w", id, err)
	}
	if !exists {
		return &NotFoundError{ID: id}
	}
	if err := s.fs.Remove(s.path(id)); err != nil {
		return fmt.Errorf("failed to delete container %s: %w", id, err)
	}
	s.logger.Debug().Str("container", id).Msg("container deleted")
	return nil
}

// Resolve expands a unique id prefix to a full id. The "cntr_" prefix may be
// left out.
func (s *Store) Resolve(prefix string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return "", err
	}
	if prefix == "" {
		return "", &NotFoundError{ID: prefix}
	}
	if !strings.HasPrefix(prefix, container.IDPrefix) {
		prefix = container.IDPrefix + prefix
	}

	ids, err := s.ids()
	if err != nil {
		return "", err
	}
	var matches []string
	for _, id := range ids {
		if id == prefix {
			return id, nil
		}
		if strings.HasPrefix(id, prefix) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return "", &NotFoundError{ID: prefix}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousError{Prefix: prefix, Matches: matches}
	}
}

// Close releases the store. Closing twice is an error.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	s.logger.Debug().Str("root", s.root).Msg("store closed")
	return nil
}
