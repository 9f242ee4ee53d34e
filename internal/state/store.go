package state

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/senbaris/clustereye-pgcheck/internal/logger"
)

// FileName is the fixed name of the state file inside the state directory.
const FileName = "last_check"

// ErrMalformed is returned by Load when the state file cannot be parsed.
var ErrMalformed = errors.New("malformed state file")

var loadOptions = ini.LoadOptions{
	IgnoreInlineComment: true,
}

// Store reads and writes the Snapshot of one probe target.
type Store struct {
	path     string
	lockFile *os.File
}

// NewStore returns a store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the state file path.
func (s *Store) Path() string {
	return s.path
}

// DefaultPath returns the state file location for a probe target. The
// directory is scoped by the invoking OS user, the sub-directory by target.
func DefaultPath(host, port, dbUser string) string {
	dir := filepath.Join(os.TempDir(), "check_postgre-"+identity())
	target := sanitize(host) + "_" + sanitize(port) + "_" + sanitize(dbUser)
	return filepath.Join(dir, target, FileName)
}

// Load reads the snapshot. A missing file is created empty and yields an
// empty snapshot, an empty file yields an empty snapshot, and an unparsable
// file yields an error wrapping ErrMalformed.
func (s *Store) Load() (Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Debug("State file %s not found, starting with empty state", s.path)
		if err := s.create(); err != nil {
			return nil, err
		}
		return Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state file: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return Snapshot{}, nil
	}

	f, err := ini.LoadSources(loadOptions, data)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrMalformed, s.path, err)
	}

	snap := Snapshot{}
	for _, sec := range f.Sections() {
		keys := sec.Keys()
		if sec.Name() == ini.DefaultSection && len(keys) == 0 {
			continue
		}
		values := make(Section, len(keys))
		for _, k := range keys {
			values[k.Name()] = k.Value()
		}
		snap[sec.Name()] = values
	}
	logger.Debug("Loaded %d state sections from %s", len(snap), s.path)
	return snap, nil
}

// Save replaces the state file with snap. The content is written to a
// temporary file in the same directory and renamed over the old file, so
// a failed save leaves the previous state in place.
func (s *Store) Save(snap Snapshot) error {
	f := ini.Empty(loadOptions)
	for _, name := range snap.Keys() {
		sec, err := f.NewSection(name)
		if err != nil {
			return fmt.Errorf("adding section %q: %w", name, err)
		}
		values := snap[name]
		for _, key := range sortedKeys(values) {
			if _, err := sec.NewKey(key, values[key]); err != nil {
				return fmt.Errorf("adding key %q to section %q: %w", key, name, err)
			}
		}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, FileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err := f.WriteTo(tmp); err != nil {
		return fmt.Errorf("writing temp state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp state file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing state file: %w", err)
	}
	committed = true

	logger.Debug("Saved %d state sections to %s", len(snap), s.path)
	return nil
}

// Lock takes an exclusive advisory lock on <path>.lock. It blocks until the
// lock is free and is held until Unlock.
func (s *Store) Lock() error {
	if s.lockFile != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	f, err := os.OpenFile(s.path+".lock", os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("opening lock file: %w", err)
	}
	if err := lockFile(f); err != nil {
		f.Close()
		return fmt.Errorf("locking state file: %w", err)
	}
	s.lockFile = f
	return nil
}

// Unlock releases the lock taken by Lock.
func (s *Store) Unlock() error {
	if s.lockFile == nil {
		return nil
	}
	f := s.lockFile
	s.lockFile = nil
	err := unlockFile(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

func (s *Store) create() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("creating state file: %w", err)
	}
	return f.Close()
}

func identity() string {
	if u, err := user.Current(); err == nil && u.Uid != "" {
		return sanitize(u.Uid)
	}
	return strconv.Itoa(os.Getuid())
}

func sanitize(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-':
			return r
		}
		return '_'
	}, s)
}
