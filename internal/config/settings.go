package config

import (
	"os"
	"strconv"
	"time"

	"fyne.io/fyne/v2"

	"github.com/tdlgui/tdl-gui/internal/platform"
)

// Proxy modes
type ProxyMode string

const (
	ProxyDisabled ProxyMode = "disabled"
	ProxySystem   ProxyMode = "system"
	ProxyManual   ProxyMode = "manual"
)

// Settings keys for Fyne preferences
const (
	KeyTDLPath          = "tdl_binary_path"
	KeyDownloadDir      = "download_directory"
	KeyMaxParallel      = "max_parallel_sources"
	KeyIdleTimeout      = "command_idle_timeout_seconds"
	KeyProxyMode        = "proxy_mode"
	KeyProxyURL         = "proxy_url"
	KeyStorageDriver    = "storage_driver"
	KeyStoragePath      = "storage_path"
	KeyNamespace        = "namespace"
	KeyNTPServer        = "ntp_server"
	KeyReconnectTimeout = "reconnect_timeout"
	KeyDebugLogging     = "debug_logging"
	KeyAutoCheckUpdates = "auto_check_updates"
)

// Environment variables that override stored preferences. Loaded from a
// .env file by the entrypoint when one is present.
const (
	EnvTDLPath     = "TDL_GUI_TDL_PATH"
	EnvDownloadDir = "TDL_GUI_DOWNLOAD_DIR"
	EnvProxy       = "TDL_GUI_PROXY"
	EnvNamespace   = "TDL_GUI_NS"
	EnvDebug       = "TDL_GUI_DEBUG"
)

// Default values
const (
	DefaultMaxParallel      = 2
	MinParallel             = 1
	MaxParallel             = 10
	DefaultIdleTimeout      = 300 * time.Second
	DefaultProxyMode        = ProxyDisabled
	DefaultAutoCheckUpdates = true
)

// Settings manages application configuration
type Settings struct {
	app fyne.App
}

// NewSettings creates a new settings manager
func NewSettings(app fyne.App) *Settings {
	return &Settings{app: app}
}

// GetTDLPath returns the configured tdl binary path. An empty value means
// discovery: the managed bin directory first, then PATH.
func (s *Settings) GetTDLPath() string {
	if env := os.Getenv(EnvTDLPath); env != "" {
		return env
	}
	return s.app.Preferences().String(KeyTDLPath)
}

// SetTDLPath sets the tdl binary path
func (s *Settings) SetTDLPath(path string) {
	s.app.Preferences().SetString(KeyTDLPath, path)
}

// GetDownloadDirectory returns the configured download directory
func (s *Settings) GetDownloadDirectory() string {
	if env := os.Getenv(EnvDownloadDir); env != "" {
		return env
	}

	dir := s.app.Preferences().String(KeyDownloadDir)
	if dir == "" {
		defaultDir, err := platform.GetHomeDownloadsDir()
		if err != nil {
			defaultDir = os.TempDir()
		}
		s.SetDownloadDirectory(defaultDir)
		return defaultDir
	}
	return dir
}

// SetDownloadDirectory sets the download directory
func (s *Settings) SetDownloadDirectory(dir string) {
	s.app.Preferences().SetString(KeyDownloadDir, dir)
}

// GetMaxParallelSources returns how many sources may run concurrently
func (s *Settings) GetMaxParallelSources() int {
	value := s.app.Preferences().Int(KeyMaxParallel)
	if value <= 0 {
		s.SetMaxParallelSources(DefaultMaxParallel)
		return DefaultMaxParallel
	}
	return value
}

// SetMaxParallelSources sets the concurrency limit, clamped to sane bounds
func (s *Settings) SetMaxParallelSources(count int) {
	if count < MinParallel {
		count = MinParallel
	}
	if count > MaxParallel {
		count = MaxParallel
	}
	s.app.Preferences().SetInt(KeyMaxParallel, count)
}

// GetIdleTimeout returns how long a source may stay silent before it is
// considered hung. Zero disables the timeout.
func (s *Settings) GetIdleTimeout() time.Duration {
	seconds := s.app.Preferences().IntWithFallback(KeyIdleTimeout, -1)
	if seconds < 0 {
		s.SetIdleTimeout(DefaultIdleTimeout)
		return DefaultIdleTimeout
	}
	return time.Duration(seconds) * time.Second
}

// SetIdleTimeout sets the per-source idle timeout
func (s *Settings) SetIdleTimeout(timeout time.Duration) {
	if timeout < 0 {
		timeout = 0
	}
	s.app.Preferences().SetInt(KeyIdleTimeout, int(timeout/time.Second))
}

// GetProxyMode returns the configured proxy mode
func (s *Settings) GetProxyMode() ProxyMode {
	mode := s.app.Preferences().String(KeyProxyMode)
	if mode == "" {
		s.SetProxyMode(DefaultProxyMode)
		return DefaultProxyMode
	}
	return ProxyMode(mode)
}

// SetProxyMode sets the proxy mode
func (s *Settings) SetProxyMode(mode ProxyMode) {
	s.app.Preferences().SetString(KeyProxyMode, string(mode))
}

// GetProxyURL returns the manual proxy URL
func (s *Settings) GetProxyURL() string {
	return s.app.Preferences().String(KeyProxyURL)
}

// SetProxyURL sets the manual proxy URL
func (s *Settings) SetProxyURL(url string) {
	s.app.Preferences().SetString(KeyProxyURL, url)
}

// GetStorageDriver returns the tdl storage driver
func (s *Settings) GetStorageDriver() string {
	return s.app.Preferences().StringWithFallback(KeyStorageDriver, platform.DefaultStorageDriver)
}

// SetStorageDriver sets the tdl storage driver
func (s *Settings) SetStorageDriver(driver string) {
	s.app.Preferences().SetString(KeyStorageDriver, driver)
}

// GetStoragePath returns the tdl storage path; empty means tdl's default
func (s *Settings) GetStoragePath() string {
	return s.app.Preferences().String(KeyStoragePath)
}

// SetStoragePath sets the tdl storage path
func (s *Settings) SetStoragePath(path string) {
	s.app.Preferences().SetString(KeyStoragePath, path)
}

// GetNamespace returns the tdl account namespace
func (s *Settings) GetNamespace() string {
	if env := os.Getenv(EnvNamespace); env != "" {
		return env
	}
	return s.app.Preferences().StringWithFallback(KeyNamespace, platform.DefaultNamespace)
}

// SetNamespace sets the tdl account namespace
func (s *Settings) SetNamespace(ns string) {
	s.app.Preferences().SetString(KeyNamespace, ns)
}

// GetNTPServer returns the NTP server tdl should sync against
func (s *Settings) GetNTPServer() string {
	return s.app.Preferences().String(KeyNTPServer)
}

// SetNTPServer sets the NTP server
func (s *Settings) SetNTPServer(server string) {
	s.app.Preferences().SetString(KeyNTPServer, server)
}

// GetReconnectTimeout returns tdl's reconnect timeout as a duration string
func (s *Settings) GetReconnectTimeout() string {
	return s.app.Preferences().StringWithFallback(KeyReconnectTimeout, platform.DefaultReconnectTimeout)
}

// SetReconnectTimeout sets tdl's reconnect timeout
func (s *Settings) SetReconnectTimeout(timeout string) {
	s.app.Preferences().SetString(KeyReconnectTimeout, timeout)
}

// GetDebugLogging returns whether tdl runs with --debug
func (s *Settings) GetDebugLogging() bool {
	if env := os.Getenv(EnvDebug); env != "" {
		debug, err := strconv.ParseBool(env)
		if err == nil {
			return debug
		}
	}
	return s.app.Preferences().Bool(KeyDebugLogging)
}

// SetDebugLogging sets whether tdl runs with --debug
func (s *Settings) SetDebugLogging(debug bool) {
	s.app.Preferences().SetBool(KeyDebugLogging, debug)
}

// GetAutoCheckUpdates returns whether to check for tdl updates on startup
func (s *Settings) GetAutoCheckUpdates() bool {
	return s.app.Preferences().BoolWithFallback(KeyAutoCheckUpdates, DefaultAutoCheckUpdates)
}

// SetAutoCheckUpdates sets whether to check for tdl updates on startup
func (s *Settings) SetAutoCheckUpdates(check bool) {
	s.app.Preferences().SetBool(KeyAutoCheckUpdates, check)
}

// GetProxyModeOptions returns available proxy mode options
func (s *Settings) GetProxyModeOptions() []ProxyMode {
	return []ProxyMode{ProxyDisabled, ProxySystem, ProxyManual}
}

// effectiveProxy resolves the proxy URL passed to tdl for the current mode
func (s *Settings) effectiveProxy() string {
	switch s.GetProxyMode() {
	case ProxyManual:
		if env := os.Getenv(EnvProxy); env != "" {
			return env
		}
		return s.GetProxyURL()
	case ProxySystem:
		for _, key := range []string{"HTTPS_PROXY", "https_proxy", "HTTP_PROXY", "http_proxy"} {
			if v := os.Getenv(key); v != "" {
				return v
			}
		}
	}
	return ""
}

// RunOptions snapshots the current settings into the global tdl flags used
// for one job
func (s *Settings) RunOptions() platform.RunOptions {
	return platform.RunOptions{
		Debug:            s.GetDebugLogging(),
		Proxy:            s.effectiveProxy(),
		StorageDriver:    s.GetStorageDriver(),
		StoragePath:      s.GetStoragePath(),
		Namespace:        s.GetNamespace(),
		NTPServer:        s.GetNTPServer(),
		ReconnectTimeout: s.GetReconnectTimeout(),
	}
}
