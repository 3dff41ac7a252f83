package platform

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCreateDirectoryIfNotExists(t *testing.T) {
	base := t.TempDir()

	// Nested path that does not exist yet
	dir := filepath.Join(base, "a", "b", "c")
	if err := CreateDirectoryIfNotExists(dir); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("directory should exist: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected a directory")
	}

	// Calling again on an existing directory is a no-op
	if err := CreateDirectoryIfNotExists(dir); err != nil {
		t.Errorf("expected no error for existing directory, got %v", err)
	}
}

func TestReplaceFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "tdl")
	temp := filepath.Join(dir, "tdl.new")

	if err := os.WriteFile(target, []byte("old binary"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(temp, []byte("new binary"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := ReplaceFile(temp, target); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "new binary" {
		t.Errorf("expected replaced content, got %q", string(data))
	}

	if _, err := os.Stat(temp); !os.IsNotExist(err) {
		t.Error("temp file should be gone after the swap")
	}
}

func TestReplaceFileRejectsEmptyStagedFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "tdl")
	temp := filepath.Join(dir, "tdl.new")

	if err := os.WriteFile(target, []byte("old binary"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(temp, nil, 0644); err != nil {
		t.Fatal(err)
	}

	if err := ReplaceFile(temp, target); err == nil {
		t.Fatal("expected error for empty staged file")
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "old binary" {
		t.Error("target must be left untouched when the staged file is rejected")
	}
}

func TestReplaceFileMissingStagedFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "tdl")

	if err := os.WriteFile(target, []byte("old binary"), 0755); err != nil {
		t.Fatal(err)
	}

	if err := ReplaceFile(filepath.Join(dir, "nope"), target); err == nil {
		t.Fatal("expected error for missing staged file")
	}

	data, _ := os.ReadFile(target)
	if string(data) != "old binary" {
		t.Error("target must be left untouched")
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")

	if err := os.WriteFile(src, []byte("payload"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "payload" {
		t.Errorf("expected copied content, got %q", string(data))
	}
}

func TestLocateBinaryLocal(t *testing.T) {
	binDir := t.TempDir()
	local := filepath.Join(binDir, ExecutableName())
	if err := os.WriteFile(local, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}

	path, location, err := LocateBinary(binDir)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if path != local {
		t.Errorf("expected %s, got %s", local, path)
	}
	if location != LocationLocal {
		t.Errorf("expected location %s, got %s", LocationLocal, location)
	}
}

func TestLocateBinaryNotFound(t *testing.T) {
	// Empty PATH guarantees the lookup cannot succeed via the system
	t.Setenv("PATH", "")

	_, _, err := LocateBinary(t.TempDir())
	if err == nil {
		t.Fatal("expected error when binary is absent everywhere")
	}
}
