// Package keyring inspects and extends the apt trust store: the legacy
// trusted.gpg keyring plus the fragment files under trusted.gpg.d.
package keyring

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"golang.org/x/crypto/openpgp"       //nolint:staticcheck // apt keyrings are plain OpenPGP packets
	"golang.org/x/crypto/openpgp/armor" //nolint:staticcheck // same

	"github.com/felixgeelhaar/crostini-setup/internal/ports"
	"github.com/felixgeelhaar/crostini-setup/internal/validation"
)

// ErrKeyMismatch is returned when fetched key material does not carry the
// requested key id.
var ErrKeyMismatch = errors.New("key material does not contain requested key id")

// Store reads and writes apt trust store files.
type Store struct {
	fs      ports.FileSystem
	keyring string
	dir     string
}

// NewStore creates a Store over the legacy keyring file and the fragment directory.
func NewStore(fs ports.FileSystem, keyring, dir string) *Store {
	return &Store{fs: fs, keyring: keyring, dir: dir}
}

// Files lists the keyring files apt would consult, keyring first.
func (s *Store) Files() []string {
	files := []string{}
	if s.fs.Exists(s.keyring) {
		files = append(files, s.keyring)
	}
	for _, pattern := range []string{"*.gpg", "*.asc"} {
		matches, err := s.fs.Glob(filepath.Join(s.dir, pattern))
		if err != nil {
			continue
		}
		sort.Strings(matches)
		files = append(files, matches...)
	}
	return files
}

// KeyIDs returns the 16 hex digit ids of every primary key and subkey in the
// trust store. Files that cannot be read or parsed are skipped.
func (s *Store) KeyIDs(ctx context.Context) map[string]bool {
	log := ports.ContextLogger(ctx)
	ids := make(map[string]bool)

	for _, path := range s.Files() {
		data, err := s.fs.ReadFile(path)
		if err != nil {
			log.Debug(ctx, "skipping unreadable keyring", ports.F("path", path), ports.Err(err))
			continue
		}
		entities, err := Parse(data)
		if err != nil {
			log.Debug(ctx, "skipping unparseable keyring", ports.F("path", path), ports.Err(err))
			continue
		}
		for id := range entityIDs(entities) {
			ids[id] = true
		}
	}
	return ids
}

// Has reports whether every given key id is trusted.
func (s *Store) Has(ctx context.Context, ids ...string) bool {
	trusted := s.KeyIDs(ctx)
	for _, id := range ids {
		if !trusted[validation.NormalizeKeyID(id)] {
			return false
		}
	}
	return true
}

// Install verifies that key carries id and writes it, dearmored, to
// <dir>/<name>.gpg.
func (s *Store) Install(name string, key []byte, id string) (string, error) {
	entities, err := Parse(key)
	if err != nil {
		return "", err
	}
	if !entityIDs(entities)[validation.NormalizeKeyID(id)] {
		return "", fmt.Errorf("%w: %s", ErrKeyMismatch, validation.NormalizeKeyID(id))
	}

	var buf bytes.Buffer
	for _, e := range entities {
		if err := e.Serialize(&buf); err != nil {
			return "", fmt.Errorf("serialize key %s: %w", e.PrimaryKey.KeyIdString(), err)
		}
	}

	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", s.dir, err)
	}
	path := filepath.Join(s.dir, name+".gpg")
	if err := s.fs.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// Parse reads an armored or binary public keyring.
func Parse(data []byte) (openpgp.EntityList, error) {
	if bytes.Contains(data, []byte("-----BEGIN PGP")) {
		block, err := armor.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode armor: %w", err)
		}
		if block.Type != openpgp.PublicKeyType {
			return nil, fmt.Errorf("unexpected armor block %q", block.Type)
		}
		return readKeyRing(block.Body)
	}
	return readKeyRing(bytes.NewReader(data))
}

func readKeyRing(r io.Reader) (openpgp.EntityList, error) {
	entities, err := openpgp.ReadKeyRing(r)
	if err != nil {
		return nil, fmt.Errorf("read keyring: %w", err)
	}
	return entities, nil
}

func entityIDs(entities openpgp.EntityList) map[string]bool {
	ids := make(map[string]bool)
	for _, e := range entities {
		ids[e.PrimaryKey.KeyIdString()] = true
		for _, sub := range e.Subkeys {
			ids[sub.PublicKey.KeyIdString()] = true
		}
	}
	return ids
}
