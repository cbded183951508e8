// Package credentials loads provider secrets from key files kept next to the
// binary (or in a configured directory).
package credentials

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrMissingCredential is returned when a key file is absent, ambiguous or
// malformed. Callers treat it as fatal.
var ErrMissingCredential = errors.New("missing credential")

const (
	IEXCloudFile = "iexcloud_key.txt"
	TradierFile  = "tradier_bearer.txt"
)

// Spec describes one key file and the marker its contents must carry.
type Spec struct {
	Filename    string
	Marker      string
	Description string
}

var (
	IEXCloud = Spec{Filename: IEXCloudFile, Marker: "sk_", Description: "IEX Cloud"}
	Tradier  = Spec{Filename: TradierFile, Marker: "Bearer", Description: "Tradier"}
)

// Store reads key files from a single directory.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir. An empty dir means the working
// directory.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = "."
	}
	return &Store{dir: dir}
}

// Load reads and validates the key described by spec. Surrounding whitespace
// is trimmed.
func (s *Store) Load(spec Spec) (string, error) {
	path := filepath.Join(s.dir, spec.Filename)

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s key file %s not found", ErrMissingCredential, spec.Description, path)
	}

	// A second extension usually means the editor hid the real one and the
	// wrong file is about to be read.
	if _, err := os.Stat(path + ".txt"); err == nil {
		return "", fmt.Errorf("%w: %s key is ambiguous, both %s and %s.txt exist", ErrMissingCredential, spec.Description, path, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: reading %s: %v", ErrMissingCredential, path, err)
	}

	key := strings.TrimSpace(string(data))
	if !strings.Contains(key, spec.Marker) {
		return "", fmt.Errorf("%w: %s key in %s does not look right (expected %q)", ErrMissingCredential, spec.Description, path, spec.Marker)
	}

	return key, nil
}

// Keys holds every secret the scanner needs.
type Keys struct {
	IEXCloud      string
	TradierBearer string
}

// LoadAll reads both provider keys.
func (s *Store) LoadAll() (Keys, error) {
	iex, err := s.Load(IEXCloud)
	if err != nil {
		return Keys{}, err
	}
	tradier, err := s.Load(Tradier)
	if err != nil {
		return Keys{}, err
	}
	return Keys{IEXCloud: iex, TradierBearer: tradier}, nil
}
