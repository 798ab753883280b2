package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Snapshot copies a SQLite cookie database (and its -wal and -shm
// companions if they exist) into a temporary directory so it can be read
// while the browser holds the original open.
//
// It returns the path of the copied database and a cleanup function that
// removes the temporary directory. The caller must call cleanup.
func Snapshot(srcPath string) (string, func(), error) {
	info, err := os.Stat(srcPath)
	if err != nil {
		return "", nil, fmt.Errorf("cookie database not found: %s", srcPath)
	}
	if info.IsDir() {
		return "", nil, fmt.Errorf("%s is a directory, expected a cookie database", srcPath)
	}
	if info.Size() == 0 {
		return "", nil, fmt.Errorf("cookie database at %s is empty or corrupted", srcPath)
	}

	tempDir, err := os.MkdirTemp("", "cookieport-snapshot-*")
	if err != nil {
		return "", nil, fmt.Errorf("cannot create temp directory: %w", err)
	}
	cleanup := func() {
		os.RemoveAll(tempDir)
	}

	baseName := filepath.Base(srcPath)
	dst := filepath.Join(tempDir, baseName)
	if err := copyFile(srcPath, dst); err != nil {
		cleanup()
		return "", nil, err
	}
	// WAL and SHM are best-effort
	for _, suffix := range []string{"-wal", "-shm"} {
		companion := srcPath + suffix
		if _, err := os.Stat(companion); err == nil {
			_ = copyFile(companion, dst+suffix)
		}
	}
	return dst, cleanup, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("cannot open source file %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("cannot create destination file %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("cannot copy file: %w", err)
	}
	return out.Close()
}
