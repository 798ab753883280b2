package firefox

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-ini/ini"
)

// ErrNoProfile is returned when no Firefox profile with a cookie database
// can be located.
var ErrNoProfile = errors.New("no firefox profile found")

// ProfilesIniPaths returns candidate profiles.ini locations for Firefox and
// LibreWolf under the given home directory, in priority order. appData is
// only consulted on Windows.
func ProfilesIniPaths(goos, home, appData string) []string {
	switch goos {
	case "windows":
		return []string{
			filepath.Join(appData, "Mozilla", "Firefox", "profiles.ini"),
			filepath.Join(appData, "LibreWolf", "profiles.ini"),
		}
	case "darwin":
		return []string{
			filepath.Join(home, "Library", "Application Support", "Firefox", "profiles.ini"),
			filepath.Join(home, "Library", "Application Support", "librewolf", "profiles.ini"),
		}
	default:
		return []string{
			filepath.Join(home, ".mozilla", "firefox", "profiles.ini"),
			filepath.Join(home, "snap", "firefox", "common", ".mozilla", "firefox", "profiles.ini"),
			filepath.Join(home, ".librewolf", "profiles.ini"),
		}
	}
}

// DefaultProfileDir parses a profiles.ini file and returns the absolute path
// of its default profile directory.
//
// Priority:
//  1. [Install*] section Default= key, written by modern Firefox
//  2. [Profile*] section with Default=1
//
// An empty string means the file holds no identifiable default profile.
func DefaultProfileDir(iniPath string) (string, error) {
	cfg, err := ini.Load(iniPath)
	if err != nil {
		return "", err
	}
	root := filepath.Dir(iniPath)

	for _, sec := range cfg.Sections() {
		if !strings.HasPrefix(sec.Name(), "Install") {
			continue
		}
		if def := sec.Key("Default").String(); def != "" {
			return resolveProfilePath(root, def, true), nil
		}
	}
	for _, sec := range cfg.Sections() {
		if !strings.HasPrefix(sec.Name(), "Profile") {
			continue
		}
		if sec.Key("Default").String() != "1" {
			continue
		}
		p := sec.Key("Path").String()
		if p == "" {
			continue
		}
		relative := sec.Key("IsRelative").MustString("1") == "1"
		return resolveProfilePath(root, p, relative), nil
	}
	return "", nil
}

func resolveProfilePath(root, p string, relative bool) string {
	p = filepath.FromSlash(p)
	if relative && !filepath.IsAbs(p) {
		return filepath.Join(root, p)
	}
	return p
}

// Locate resolves the cookies.sqlite path to use. override may name a
// cookies.sqlite file or a profile directory; when empty the default
// profile of the first profiles.ini candidate that has one is used.
func Locate(override string) (string, error) {
	if override = strings.TrimSpace(override); override != "" {
		info, err := os.Stat(override)
		if err != nil {
			return "", fmt.Errorf("firefox profile %q: %w", override, err)
		}
		if !info.IsDir() {
			return override, nil
		}
		db := filepath.Join(override, "cookies.sqlite")
		if _, err := os.Stat(db); err != nil {
			return "", fmt.Errorf("cookies.sqlite not found in %q", override)
		}
		return db, nil
	}

	home, _ := os.UserHomeDir()
	return locateIn(ProfilesIniPaths(runtime.GOOS, home, os.Getenv("APPDATA")))
}

func locateIn(candidates []string) (string, error) {
	for _, iniPath := range candidates {
		dir, err := DefaultProfileDir(iniPath)
		if err != nil || dir == "" {
			continue
		}
		db := filepath.Join(dir, "cookies.sqlite")
		if _, err := os.Stat(db); err != nil {
			continue
		}
		return db, nil
	}
	return "", ErrNoProfile
}
