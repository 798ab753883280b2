// Package secret keeps the JSON-RPC bearer token in the operating system
// keyring, with a hex file in the config directory as a fallback when no
// keyring service is available.
package secret

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/zalando/go-keyring"

	"github.com/cookieport/cookieport/common"
)

const (
	keyField    = "rpc-secret"
	fileName    = "rpc.secret"
	fileMode    = 0600
	secretBytes = 32
)

// ErrNotFound is returned by Get when no secret has been stored.
var ErrNotFound = errors.New("secret not found")

var (
	keyringSet    = keyring.Set
	keyringGet    = keyring.Get
	keyringDelete = keyring.Delete
	randRead      = rand.Read
)

// Store reads and writes the RPC secret.
type Store struct {
	Service string
	fs      afero.Fs
	dir     string
}

// New returns a Store whose fallback file lives in configDir on fs.
func New(fs afero.Fs, configDir string) *Store {
	return &Store{Service: common.AppName, fs: fs, dir: configDir}
}

func (s *Store) path() string {
	return filepath.Join(s.dir, fileName)
}

// Get returns the stored secret, preferring the keyring.
func (s *Store) Get() (string, error) {
	v, err := keyringGet(s.Service, keyField)
	if err == nil && v != "" {
		return v, nil
	}
	data, ferr := afero.ReadFile(s.fs, s.path())
	if ferr != nil {
		if os.IsNotExist(ferr) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("read secret file: %w", ferr)
	}
	v = strings.TrimSpace(string(data))
	if _, err := hex.DecodeString(v); err != nil || v == "" {
		return "", fmt.Errorf("invalid secret file %s", s.path())
	}
	return v, nil
}

// GetOrCreate returns the stored secret, generating and storing a new one
// when none exists. created reports whether a new secret was made.
func (s *Store) GetOrCreate() (secret string, created bool, err error) {
	secret, err = s.Get()
	if err == nil {
		return secret, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", false, err
	}
	secret, err = s.Generate()
	if err != nil {
		return "", false, err
	}
	return secret, true, nil
}

// Generate creates a new random secret, replacing any stored one.
func (s *Store) Generate() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := randRead(buf); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	v := hex.EncodeToString(buf)
	if err := keyringSet(s.Service, keyField, v); err == nil {
		return v, nil
	}
	if err := s.writeFile(v); err != nil {
		return "", err
	}
	return v, nil
}

func (s *Store) writeFile(v string) error {
	if err := s.fs.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp, err := afero.TempFile(s.fs, s.dir, ".rpc.secret.tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(v); err != nil {
		tmp.Close()
		s.fs.Remove(tmpPath)
		return fmt.Errorf("write secret: %w", err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := s.fs.Chmod(tmpPath, fileMode); err != nil {
		s.fs.Remove(tmpPath)
		return fmt.Errorf("set permissions: %w", err)
	}
	if err := s.fs.Rename(tmpPath, s.path()); err != nil {
		s.fs.Remove(tmpPath)
		return fmt.Errorf("rename secret file: %w", err)
	}
	return nil
}

// Delete removes the secret from the keyring and the fallback file.
func (s *Store) Delete() error {
	kerr := keyringDelete(s.Service, keyField)
	if kerr != nil && errors.Is(kerr, keyring.ErrNotFound) {
		kerr = nil
	}
	ferr := s.fs.Remove(s.path())
	if ferr != nil && os.IsNotExist(ferr) {
		ferr = nil
	}
	return errors.Join(kerr, ferr)
}
