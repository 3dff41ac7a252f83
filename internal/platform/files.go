package platform

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

// Operating system constants
const (
	OSDarwin  = "darwin"
	OSWindows = "windows"
	OSLinux   = "linux"
)

// File permissions
const (
	DefaultDirPermissions  = 0755
	DefaultExePermissions  = 0755
	DefaultFilePermissions = 0644
)

// CreateDirectoryIfNotExists creates the directory and its parents when absent
func CreateDirectoryIfNotExists(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, DefaultDirPermissions)
	}
	return nil
}

// ReplaceFile atomically swaps target with the file at tempPath. The temp
// file must live on the same filesystem as the target so the rename is
// atomic. The target is never deleted first: if the rename fails, the
// existing file is left untouched and the temp file is cleaned up.
func ReplaceFile(tempPath, target string) error {
	info, err := os.Stat(tempPath)
	if err != nil {
		return fmt.Errorf("staged file missing: %w", err)
	}
	if info.Size() == 0 {
		os.Remove(tempPath)
		return fmt.Errorf("staged file %s is empty", tempPath)
	}

	if err := os.Rename(tempPath, target); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace %s: %w", target, err)
	}

	if runtime.GOOS != OSWindows {
		if err := os.Chmod(target, DefaultExePermissions); err != nil {
			return fmt.Errorf("failed to mark %s executable: %w", target, err)
		}
	}
	return nil
}

// CopyFile copies src to dst, creating or truncating dst
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, DefaultFilePermissions)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy to %s: %w", dst, err)
	}
	return out.Sync()
}

// GetHomeDownloadsDir returns the user's Downloads directory
func GetHomeDownloadsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home dir: %w", err)
	}
	return filepath.Join(home, "Downloads"), nil
}
