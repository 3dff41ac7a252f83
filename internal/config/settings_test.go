package config

import (
	"testing"
	"time"

	"fyne.io/fyne/v2/test"

	"github.com/tdlgui/tdl-gui/internal/platform"
)

func TestNewSettings(t *testing.T) {
	app := test.NewApp()
	settings := NewSettings(app)

	if settings.app != app {
		t.Error("Settings app reference should match provided app")
	}
}

func TestTDLPath(t *testing.T) {
	app := test.NewApp()
	settings := NewSettings(app)

	// Empty by default: discovery decides
	if path := settings.GetTDLPath(); path != "" {
		t.Errorf("Expected empty tdl path by default, got %s", path)
	}

	settings.SetTDLPath("/opt/tdl/tdl")
	if path := settings.GetTDLPath(); path != "/opt/tdl/tdl" {
		t.Errorf("Expected /opt/tdl/tdl, got %s", path)
	}
}

func TestTDLPathEnvOverride(t *testing.T) {
	app := test.NewApp()
	settings := NewSettings(app)

	settings.SetTDLPath("/stored/tdl")
	t.Setenv(EnvTDLPath, "/env/tdl")

	if path := settings.GetTDLPath(); path != "/env/tdl" {
		t.Errorf("Environment override should win, got %s", path)
	}
}

func TestDownloadDirectory(t *testing.T) {
	app := test.NewApp()
	settings := NewSettings(app)

	// Test default value
	dir := settings.GetDownloadDirectory()
	if dir == "" {
		t.Error("Download directory should not be empty")
	}

	// Test setting custom value
	customDir := "/custom/downloads"
	settings.SetDownloadDirectory(customDir)

	retrievedDir := settings.GetDownloadDirectory()
	if retrievedDir != customDir {
		t.Errorf("Expected download directory %s, got %s", customDir, retrievedDir)
	}
}

func TestMaxParallelSources(t *testing.T) {
	app := test.NewApp()
	settings := NewSettings(app)

	// Test default value
	maxParallel := settings.GetMaxParallelSources()
	if maxParallel != DefaultMaxParallel {
		t.Errorf("Expected default max parallel %d, got %d", DefaultMaxParallel, maxParallel)
	}

	// Test setting custom value
	settings.SetMaxParallelSources(5)

	retrievedMax := settings.GetMaxParallelSources()
	if retrievedMax != 5 {
		t.Errorf("Expected max parallel 5, got %d", retrievedMax)
	}

	// Test boundary values
	settings.SetMaxParallelSources(0) // Should be clamped to 1
	if settings.GetMaxParallelSources() != MinParallel {
		t.Error("Max parallel should be clamped to minimum 1")
	}

	settings.SetMaxParallelSources(15) // Should be clamped to 10
	if settings.GetMaxParallelSources() != MaxParallel {
		t.Error("Max parallel should be clamped to maximum 10")
	}
}

func TestIdleTimeout(t *testing.T) {
	app := test.NewApp()
	settings := NewSettings(app)

	// Test default value
	if timeout := settings.GetIdleTimeout(); timeout != DefaultIdleTimeout {
		t.Errorf("Expected default idle timeout %s, got %s", DefaultIdleTimeout, timeout)
	}

	// Test setting custom value
	settings.SetIdleTimeout(42 * time.Second)
	if timeout := settings.GetIdleTimeout(); timeout != 42*time.Second {
		t.Errorf("Expected 42s, got %s", timeout)
	}

	// Zero disables the timeout and must round-trip as zero
	settings.SetIdleTimeout(0)
	if timeout := settings.GetIdleTimeout(); timeout != 0 {
		t.Errorf("Expected disabled timeout to stay 0, got %s", timeout)
	}
}

func TestProxyMode(t *testing.T) {
	app := test.NewApp()
	settings := NewSettings(app)

	// Test default value
	if mode := settings.GetProxyMode(); mode != DefaultProxyMode {
		t.Errorf("Expected default proxy mode %s, got %s", DefaultProxyMode, mode)
	}

	// Test setting custom value
	settings.SetProxyMode(ProxyManual)
	if mode := settings.GetProxyMode(); mode != ProxyManual {
		t.Errorf("Expected proxy mode %s, got %s", ProxyManual, mode)
	}
}

func TestGetProxyModeOptions(t *testing.T) {
	app := test.NewApp()
	settings := NewSettings(app)

	options := settings.GetProxyModeOptions()
	expectedOptions := []ProxyMode{ProxyDisabled, ProxySystem, ProxyManual}

	if len(options) != len(expectedOptions) {
		t.Fatalf("Expected %d proxy options, got %d", len(expectedOptions), len(options))
	}

	for i, expected := range expectedOptions {
		if options[i] != expected {
			t.Errorf("Proxy option %d: expected %s, got %s", i, expected, options[i])
		}
	}
}

func TestRunOptionsDisabledProxy(t *testing.T) {
	app := test.NewApp()
	settings := NewSettings(app)

	settings.SetProxyMode(ProxyDisabled)
	settings.SetProxyURL("socks5://localhost:1080")
	t.Setenv("HTTPS_PROXY", "http://proxy.example:3128")

	opts := settings.RunOptions()
	if opts.Proxy != "" {
		t.Errorf("Disabled proxy mode must not emit a proxy, got %s", opts.Proxy)
	}
}

func TestRunOptionsManualProxy(t *testing.T) {
	app := test.NewApp()
	settings := NewSettings(app)

	settings.SetProxyMode(ProxyManual)
	settings.SetProxyURL("socks5://localhost:1080")

	opts := settings.RunOptions()
	if opts.Proxy != "socks5://localhost:1080" {
		t.Errorf("Expected manual proxy URL, got %s", opts.Proxy)
	}
}

func TestRunOptionsSystemProxy(t *testing.T) {
	app := test.NewApp()
	settings := NewSettings(app)

	settings.SetProxyMode(ProxySystem)
	t.Setenv("HTTPS_PROXY", "http://proxy.example:3128")

	opts := settings.RunOptions()
	if opts.Proxy != "http://proxy.example:3128" {
		t.Errorf("Expected system proxy from environment, got %s", opts.Proxy)
	}
}

func TestRunOptionsCarriesStorageAndNamespace(t *testing.T) {
	app := test.NewApp()
	settings := NewSettings(app)

	settings.SetStorageDriver("file")
	settings.SetStoragePath("/data/tdl")
	settings.SetNamespace("work")
	settings.SetNTPServer("pool.ntp.org")
	settings.SetReconnectTimeout("2m")
	settings.SetDebugLogging(true)

	opts := settings.RunOptions()
	if opts.StorageDriver != "file" || opts.StoragePath != "/data/tdl" {
		t.Errorf("Storage settings lost: %+v", opts)
	}
	if opts.Namespace != "work" {
		t.Errorf("Expected namespace work, got %s", opts.Namespace)
	}
	if opts.NTPServer != "pool.ntp.org" {
		t.Errorf("Expected NTP server, got %s", opts.NTPServer)
	}
	if opts.ReconnectTimeout != "2m" {
		t.Errorf("Expected reconnect timeout 2m, got %s", opts.ReconnectTimeout)
	}
	if !opts.Debug {
		t.Error("Expected debug flag to carry through")
	}

	// And the flag builder turns them into tdl arguments
	args := platform.BuildGlobalArgs(opts)
	for _, want := range []string{"--debug", "type=file,path=/data/tdl", "--ns", "work", "--ntp", "--reconnect-timeout"} {
		if !containsArg(args, want) {
			t.Errorf("expected %q in args, got %v", want, args)
		}
	}
}

func containsArg(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}

func TestNamespaceDefault(t *testing.T) {
	app := test.NewApp()
	settings := NewSettings(app)

	if ns := settings.GetNamespace(); ns != platform.DefaultNamespace {
		t.Errorf("Expected default namespace, got %s", ns)
	}
}

func TestDebugEnvOverride(t *testing.T) {
	app := test.NewApp()
	settings := NewSettings(app)

	settings.SetDebugLogging(false)
	t.Setenv(EnvDebug, "true")

	if !settings.GetDebugLogging() {
		t.Error("Environment override should enable debug logging")
	}
}

func TestAutoCheckUpdates(t *testing.T) {
	app := test.NewApp()
	settings := NewSettings(app)

	if !settings.GetAutoCheckUpdates() {
		t.Error("Auto update check should default to enabled")
	}

	settings.SetAutoCheckUpdates(false)
	if settings.GetAutoCheckUpdates() {
		t.Error("Expected auto update check disabled")
	}
}
