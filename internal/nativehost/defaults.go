package nativehost

// OfficialChromeExtensionID is the Chrome Web Store id of the cookieport
// extension. Empty until the extension is published.
const OfficialChromeExtensionID = ""

// OfficialFirefoxExtensionID is the addons.mozilla.org id of the cookieport
// extension.
const OfficialFirefoxExtensionID = "cookieport@cookieport.dev"

// HasOfficialExtensions reports whether at least one official extension id
// is known, so install can run without explicit ids.
func HasOfficialExtensions() bool {
	return OfficialChromeExtensionID != "" || OfficialFirefoxExtensionID != ""
}
