package common

// AppName identifies cookieport in export metadata, keyring entries and
// config directories.
const AppName = "cookieport"

// MaxMessageSize limits a single native messaging or RPC payload (1 MiB,
// the browser native messaging limit for host-to-browser messages).
const MaxMessageSize = 1 << 20

// Defaults used when neither a flag nor an environment variable is set.
const (
	DefaultStore   = "cdp"
	DefaultCDPURL  = "http://127.0.0.1:9222"
	DefaultRPCAddr = "127.0.0.1:8729"
)
