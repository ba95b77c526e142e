package filestore

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/helpdesk-console/sessions"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var _ sessions.Store = (*Store)(nil)

// Store keeps one tenant session in a JSON file named "<prefix>session.json".
type Store struct {
	path string
	key  *[32]byte // nil when encryption is disabled
	mu   sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithEncryptionKey seals the file with NaCl secretbox using a key derived
// from passphrase. An empty passphrase leaves the file in plain JSON.
func WithEncryptionKey(passphrase string) Option {
	return func(s *Store) {
		if passphrase == "" {
			return
		}
		key := sha256.Sum256([]byte(passphrase))
		s.key = &key
	}
}

// New returns a file store for one tenant rooted at dir.
func New(dir, prefix string, options ...Option) (*Store, error) {
	if prefix == "" {
		return nil, errors.New("[filestore.New] storage prefix is required")
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("[filestore.New] resolve dir: %w", err)
	}
	if err := os.MkdirAll(absDir, 0o700); err != nil {
		return nil, fmt.Errorf("[filestore.New] create dir: %w", err)
	}

	s := &Store{path: filepath.Join(absDir, prefix+"session.json")}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Path returns the file backing the store.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Save(_ context.Context, identity sessions.Identity, credentials sessions.Credentials) error {
	data, err := sessions.Encode(sessions.New(identity, credentials))
	if err != nil {
		return fmt.Errorf("[filestore.Save] encode: %w", err)
	}
	if s.key != nil {
		if data, err = s.seal(data); err != nil {
			return fmt.Errorf("[filestore.Save] seal: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return writeAtomic(s.path, data)
}

func (s *Store) Load(_ context.Context) (*sessions.Session, bool) {
	s.mu.Lock()
	data, err := os.ReadFile(s.path)
	s.mu.Unlock()

	if errors.Is(err, os.ErrNotExist) {
		return nil, false
	}
	if err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("session file unreadable")
		return nil, false
	}

	if s.key != nil {
		if data, err = s.open(data); err != nil {
			log.Warn().Err(err).Str("path", s.path).Msg("session file could not be decrypted")
			return nil, false
		}
	}

	session, err := sessions.Decode(data)
	if err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("discarding persisted session")
		return nil, false
	}
	return session, true
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("[filestore.Clear] remove: %w", err)
	}
	return nil
}

func (s *Store) seal(plain []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, err
	}
	return secretbox.Seal(nonce[:], plain, &nonce, s.key), nil
}

func (s *Store) open(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, errors.New("sealed payload too short")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, s.key)
	if !ok {
		return nil, errors.New("secretbox authentication failed")
	}
	return plain, nil
}

// writeAtomic replaces path with data via a temp file and rename, so readers
// see either the old or the new session.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	return os.Rename(tmpName, path)
}
