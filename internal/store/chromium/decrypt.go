package chromium

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha1"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/zalando/go-keyring"
	"golang.org/x/crypto/pbkdf2"
)

// ErrUndecryptable is returned for encrypted values no known key opens.
var ErrUndecryptable = errors.New("cannot decrypt cookie value")

const (
	cbcSalt = "saltysalt"
	cbcIV   = "                "
	keyLen  = 16

	iterationsLinux  = 1
	iterationsDarwin = 1003

	// linuxV10Password is the fixed password Chromium uses on Linux when
	// no keyring is available.
	linuxV10Password = "peanuts"

	// metaVersionHashPrefix is the first database version that prepends a
	// SHA-256 of the host to every plaintext.
	metaVersionHashPrefix = 24
)

// keyringGet is replaced in tests.
var keyringGet = keyring.Get

// decrypter opens the v10/v11 AES-CBC values written by Chromium on Linux
// and macOS. Windows values are DPAPI/AES-GCM wrapped and are not
// supported.
type decrypter struct {
	goos       string
	vendor     string
	iterations int

	once     sync.Once
	password string
	keys     map[string][][]byte
	err      error
}

// newDecrypter returns a decrypter for the Cookies database at path. An
// empty password is looked up in the OS keyring on first use.
func newDecrypter(path, password, goos string) *decrypter {
	d := &decrypter{goos: goos, vendor: vendorFor(path), password: password, iterations: iterationsLinux}
	if goos == "darwin" {
		d.iterations = iterationsDarwin
	}
	return d
}

func (d *decrypter) init() {
	switch d.goos {
	case "linux":
		if d.password == "" {
			d.password, _ = keyringGet(d.vendor+" Safe Storage", d.vendor)
		}
		empty := deriveKey("", d.iterations)
		d.keys = map[string][][]byte{
			"v10": {deriveKey(linuxV10Password, d.iterations), empty},
			"v11": {deriveKey(strings.TrimSpace(d.password), d.iterations), empty},
		}
	case "darwin":
		if d.password == "" {
			pw, err := keyringGet(d.vendor+" Safe Storage", d.vendor)
			if err != nil {
				d.err = fmt.Errorf("%s Safe Storage password: %w", d.vendor, err)
				return
			}
			d.password = pw
		}
		d.keys = map[string][][]byte{
			"v10": {deriveKey(strings.TrimSpace(d.password), d.iterations)},
		}
	default:
		d.err = fmt.Errorf("encrypted cookies are not supported on %s", d.goos)
	}
}

// Decrypt returns the plaintext value of an encrypted_value blob.
func (d *decrypter) Decrypt(enc []byte, metaVersion int64) (string, error) {
	d.once.Do(d.init)
	if d.err != nil {
		return "", d.err
	}
	if len(enc) < 3 {
		return "", ErrUndecryptable
	}
	for _, key := range d.keys[string(enc[:3])] {
		plain, err := decryptCBC(enc[3:], key)
		if err != nil {
			continue
		}
		if metaVersion >= metaVersionHashPrefix && len(plain) >= 32 {
			plain = plain[32:]
		}
		plain = bytes.TrimLeftFunc(plain, func(r rune) bool { return r < 0x20 })
		if !utf8.Valid(plain) {
			continue
		}
		return string(plain), nil
	}
	return "", ErrUndecryptable
}

func deriveKey(password string, iterations int) []byte {
	return pbkdf2.Key([]byte(password), []byte(cbcSalt), iterations, keyLen, sha1.New)
}

func decryptCBC(ciphertext, key []byte) ([]byte, error) {
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, errors.New("cipher input not full blocks")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, []byte(cbcIV)).CryptBlocks(out, ciphertext)

	n := int(out[len(out)-1])
	if n == 0 || n > aes.BlockSize || n > len(out) {
		return nil, errors.New("invalid padding")
	}
	for _, b := range out[len(out)-n:] {
		if int(b) != n {
			return nil, errors.New("invalid padding")
		}
	}
	return out[:len(out)-n], nil
}

// vendorFor guesses the browser that owns a Cookies database from its
// path. The name selects the "<vendor> Safe Storage" keyring entry.
func vendorFor(path string) string {
	p := strings.ToLower(filepath.ToSlash(path))
	switch {
	case strings.Contains(p, "bravesoftware"):
		return "Brave"
	case strings.Contains(p, "microsoft-edge"), strings.Contains(p, "microsoft edge"):
		return "Microsoft Edge"
	case strings.Contains(p, "vivaldi"):
		return "Vivaldi"
	case strings.Contains(p, "/chromium/"):
		return "Chromium"
	default:
		return "Chrome"
	}
}

var defaultGOOS = runtime.GOOS
