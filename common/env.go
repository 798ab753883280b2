// Package common provides constants shared by the cookieport CLI, the
// native messaging host and the JSON-RPC service.
package common

// Environment variable names for configuration.
const (
	// StoreEnv selects the cookie store adapter (cdp, firefox, netscape,
	// chromium, file).
	StoreEnv = "COOKIEPORT_STORE"

	// CDPURLEnv is the DevTools HTTP endpoint of a Chromium browser.
	CDPURLEnv = "COOKIEPORT_CDP_URL"

	// FirefoxProfileEnv names a Firefox profile, profile dir or cookies.sqlite path.
	FirefoxProfileEnv = "COOKIEPORT_FIREFOX_PROFILE"

	// CookieFileEnv is the cookie file used by the netscape, chromium and
	// file stores.
	CookieFileEnv = "COOKIEPORT_COOKIE_FILE"

	// ChromiumPasswordEnv overrides the "Safe Storage" keyring password used
	// to decrypt Chromium cookie values.
	ChromiumPasswordEnv = "COOKIEPORT_CHROMIUM_PASSWORD"

	// ActiveURLEnv is the active tab URL used by file-backed stores.
	ActiveURLEnv = "COOKIEPORT_URL"

	// DownloadDirEnv is the directory exports are saved into.
	DownloadDirEnv = "COOKIEPORT_DOWNLOAD_DIR"

	// RPCAddrEnv is the JSON-RPC listen address.
	RPCAddrEnv = "COOKIEPORT_RPC_ADDR"

	// RPCSecretEnv is the JSON-RPC bearer token.
	RPCSecretEnv = "COOKIEPORT_RPC_SECRET"

	// ConfigDirEnv overrides the directory holding the fallback RPC secret.
	ConfigDirEnv = "COOKIEPORT_CONFIG_DIR"

	// TimeoutEnv bounds a single CLI operation, e.g. "30s".
	TimeoutEnv = "COOKIEPORT_TIMEOUT"

	// DebugEnv is the environment variable to enable debug logging.
	DebugEnv = "COOKIEPORT_DEBUG"
)
