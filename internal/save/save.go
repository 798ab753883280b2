// Package save writes exported payloads to disk the way a browser download
// would: into a fixed directory, never overwriting an existing file.
package save

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// ErrInvalidName is returned for names that are empty or contain a path
// separator.
var ErrInvalidName = errors.New("invalid file name")

// Saver persists data under a suggested name and reports where it went.
type Saver interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// DirSaver saves into a directory on an afero filesystem. Each file is
// written to a temporary name and renamed into place, so a reader never
// sees a partial export. When name is taken, " (1)", " (2)", ... is
// inserted before the extension.
type DirSaver struct {
	fs  afero.Fs
	dir string

	mu sync.Mutex
}

// NewDirSaver returns a DirSaver writing into dir.
func NewDirSaver(fs afero.Fs, dir string) *DirSaver {
	return &DirSaver{fs: fs, dir: dir}
}

// Dir returns the destination directory.
func (s *DirSaver) Dir() string {
	return s.dir
}

// Save writes data and returns the final path.
func (s *DirSaver) Save(ctx context.Context, name string, data []byte) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := s.fs.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("cannot create %s: %w", s.dir, err)
	}

	tmp, err := afero.TempFile(s.fs, s.dir, ".cookieport-*.part")
	if err != nil {
		return "", fmt.Errorf("cannot create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return "", fmt.Errorf("cannot write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return "", fmt.Errorf("cannot write %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	dest, err := s.available(name)
	if err != nil {
		s.fs.Remove(tmpName)
		return "", err
	}
	if err := s.fs.Rename(tmpName, dest); err != nil {
		s.fs.Remove(tmpName)
		return "", fmt.Errorf("cannot save %s: %w", name, err)
	}
	return dest, nil
}

// available returns the first free path for name in the directory.
func (s *DirSaver) available(name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 0; i < 10000; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		p := filepath.Join(s.dir, candidate)
		_, err := s.fs.Stat(p)
		if os.IsNotExist(err) {
			return p, nil
		}
		if err != nil {
			return "", fmt.Errorf("cannot stat %s: %w", p, err)
		}
	}
	return "", fmt.Errorf("no free file name for %s in %s", name, s.dir)
}

var _ Saver = (*DirSaver)(nil)
