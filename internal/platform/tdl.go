package platform

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// BinaryLocation tells where the tdl executable was found
type BinaryLocation string

const (
	// LocationLocal means the binary lives in the application's bin directory
	LocationLocal BinaryLocation = "local"

	// LocationPath means the binary was found on the system PATH
	LocationPath BinaryLocation = "path"
)

// ExecutableName returns the platform-specific tdl executable name
func ExecutableName() string {
	if runtime.GOOS == OSWindows {
		return "tdl.exe"
	}
	return "tdl"
}

// LocateBinary looks for the tdl executable, preferring a copy in binDir
// over one on the system PATH. Returns the resolved path and where it was
// found, or an error when the binary is absent from both.
func LocateBinary(binDir string) (string, BinaryLocation, error) {
	local := filepath.Join(binDir, ExecutableName())
	if _, err := os.Stat(local); err == nil {
		return local, LocationLocal, nil
	}

	if found, err := exec.LookPath(ExecutableName()); err == nil {
		return found, LocationPath, nil
	}

	return "", "", fmt.Errorf("tdl executable not found in %s or on PATH", binDir)
}

// DefaultBinDir returns the per-user directory where tdl-gui installs the
// tdl binary
func DefaultBinDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, "tdl-gui", "bin"), nil
}
