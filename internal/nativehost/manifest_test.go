package nativehost

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func pinPlatform(t *testing.T, platform string) {
	t.Helper()
	orig := detectPlatform
	detectPlatform = func() string { return platform }
	t.Cleanup(func() { detectPlatform = orig })
}

func TestChromeManifest(t *testing.T) {
	hostPath := "/usr/local/bin/cookieport"
	extensionID := "abcdefghijklmnopqrstuvwxyzabcdef"

	var m ChromeManifest
	if err := json.Unmarshal(GenerateChromeManifest(hostPath, extensionID), &m); err != nil {
		t.Fatalf("Failed to unmarshal manifest: %v", err)
	}
	if m.Name != HostName || m.Path != hostPath || m.Type != "stdio" || m.Description == "" {
		t.Errorf("unexpected manifest %+v", m)
	}
	want := "chrome-extension://" + extensionID + "/"
	if len(m.AllowedOrigins) != 1 || m.AllowedOrigins[0] != want {
		t.Errorf("AllowedOrigins = %v, want [%s]", m.AllowedOrigins, want)
	}
}

func TestFirefoxManifest(t *testing.T) {
	var m FirefoxManifest
	if err := json.Unmarshal(GenerateFirefoxManifest("/opt/cookieport", "cookieport@example.com"), &m); err != nil {
		t.Fatalf("Failed to unmarshal manifest: %v", err)
	}
	if m.Name != HostName || m.Path != "/opt/cookieport" || m.Type != "stdio" {
		t.Errorf("unexpected manifest %+v", m)
	}
	if len(m.AllowedExtensions) != 1 || m.AllowedExtensions[0] != "cookieport@example.com" {
		t.Errorf("AllowedExtensions = %v", m.AllowedExtensions)
	}
}

func TestManifestPaths(t *testing.T) {
	tests := []struct {
		browser  Browser
		platform string
		contains string
	}{
		{BrowserChrome, "darwin", "Google/Chrome/NativeMessagingHosts"},
		{BrowserChrome, "linux", ".config/google-chrome/NativeMessagingHosts"},
		{BrowserFirefox, "darwin", "Mozilla/NativeMessagingHosts"},
		{BrowserFirefox, "linux", ".mozilla/native-messaging-hosts"},
		{BrowserChromium, "linux", ".config/chromium/NativeMessagingHosts"},
		{BrowserEdge, "darwin", "Microsoft Edge/NativeMessagingHosts"},
		{BrowserBrave, "linux", ".config/BraveSoftware/Brave-Browser/NativeMessagingHosts"},
		{BrowserVivaldi, "darwin", "Vivaldi/NativeMessagingHosts"},
		{BrowserVivaldi, "linux", ".config/vivaldi/NativeMessagingHosts"},
	}
	for _, tt := range tests {
		t.Run(string(tt.browser)+"_"+tt.platform, func(t *testing.T) {
			path := filepath.ToSlash(getManifestPath(tt.browser, tt.platform, "/home/testuser"))
			if !strings.Contains(path, tt.contains) {
				t.Errorf("Path %s should contain %s", path, tt.contains)
			}
			if !strings.HasSuffix(path, HostName+".json") {
				t.Errorf("Path %s should end with the host name", path)
			}
		})
	}
	if p := getManifestPath(BrowserChrome, "plan9", "/home/testuser"); p != "" {
		t.Errorf("expected no path for unknown platform, got %s", p)
	}
}

func TestInstallManifest(t *testing.T) {
	pinPlatform(t, "linux")
	tmpDir := t.TempDir()
	hostPath := filepath.Join(tmpDir, "cookieport")

	installer := &ManifestInstaller{
		HostPath:           hostPath,
		ChromeExtensionID:  "testextension",
		FirefoxExtensionID: "testextension@example.com",
		BaseDir:            tmpDir,
	}

	chromePath, err := installer.InstallChrome(BrowserChrome)
	if err != nil {
		t.Fatalf("InstallChrome failed: %v", err)
	}
	if chromePath != installer.ManifestPath(BrowserChrome) {
		t.Errorf("InstallChrome wrote %s, ManifestPath says %s", chromePath, installer.ManifestPath(BrowserChrome))
	}
	content, err := os.ReadFile(chromePath)
	if err != nil {
		t.Fatalf("Failed to read manifest: %v", err)
	}
	var m ChromeManifest
	if err := json.Unmarshal(content, &m); err != nil {
		t.Fatalf("Failed to parse manifest: %v", err)
	}
	if m.Path != hostPath {
		t.Errorf("Manifest path = %s, want %s", m.Path, hostPath)
	}

	firefoxPath, err := installer.InstallFirefox()
	if err != nil {
		t.Fatalf("InstallFirefox failed: %v", err)
	}
	if !strings.Contains(filepath.ToSlash(firefoxPath), ".mozilla/native-messaging-hosts") {
		t.Errorf("unexpected firefox manifest path %s", firefoxPath)
	}
}

func TestManifestInstallerValidation(t *testing.T) {
	pinPlatform(t, "linux")
	base := t.TempDir()
	tests := []struct {
		name      string
		installer ManifestInstaller
		install   func(*ManifestInstaller) (string, error)
	}{
		{
			name:      "missing host path",
			installer: ManifestInstaller{ChromeExtensionID: "id", BaseDir: base},
			install:   func(m *ManifestInstaller) (string, error) { return m.InstallChrome(BrowserChrome) },
		},
		{
			name:      "relative host path",
			installer: ManifestInstaller{HostPath: "bin/cookieport", ChromeExtensionID: "id", BaseDir: base},
			install:   func(m *ManifestInstaller) (string, error) { return m.InstallChrome(BrowserChrome) },
		},
		{
			name:      "missing chrome id",
			installer: ManifestInstaller{HostPath: "/usr/bin/cookieport", BaseDir: base},
			install:   func(m *ManifestInstaller) (string, error) { return m.InstallChrome(BrowserEdge) },
		},
		{
			name:      "firefox through chrome installer",
			installer: ManifestInstaller{HostPath: "/usr/bin/cookieport", ChromeExtensionID: "id", BaseDir: base},
			install:   func(m *ManifestInstaller) (string, error) { return m.InstallChrome(BrowserFirefox) },
		},
		{
			name:      "missing firefox id",
			installer: ManifestInstaller{HostPath: "/usr/bin/cookieport", ChromeExtensionID: "id", BaseDir: base},
			install:   func(m *ManifestInstaller) (string, error) { return m.InstallFirefox() },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.install(&tt.installer); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestUninstallManifest(t *testing.T) {
	manifestPath := filepath.Join(t.TempDir(), HostName+".json")
	if err := os.WriteFile(manifestPath, []byte(`{"name":"test"}`), 0644); err != nil {
		t.Fatalf("Failed to create test manifest: %v", err)
	}
	if err := UninstallManifest(manifestPath); err != nil {
		t.Fatalf("UninstallManifest failed: %v", err)
	}
	if _, err := os.Stat(manifestPath); !os.IsNotExist(err) {
		t.Error("Manifest should have been removed")
	}
	if err := UninstallManifest(manifestPath); err != nil {
		t.Errorf("UninstallManifest should not error on missing file: %v", err)
	}
}

func TestParseBrowser(t *testing.T) {
	for _, b := range SupportedBrowsers() {
		got, err := ParseBrowser(string(b))
		if err != nil || got != b {
			t.Errorf("ParseBrowser(%q) = %q, %v", b, got, err)
		}
	}
	if _, err := ParseBrowser("netscape"); err == nil {
		t.Error("expected error for unsupported browser")
	}
}

func TestHasOfficialExtensions(t *testing.T) {
	want := OfficialChromeExtensionID != "" || OfficialFirefoxExtensionID != ""
	if got := HasOfficialExtensions(); got != want {
		t.Errorf("HasOfficialExtensions() = %v, want %v", got, want)
	}
}
