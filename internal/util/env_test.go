package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("GT_STRING", "o200k_base")
	t.Setenv("GT_BLANK", "  ")
	t.Setenv("GT_INT", " 512 ")
	t.Setenv("GT_BAD_INT", "many")
	t.Setenv("GT_BOOL", "true")
	t.Setenv("GT_BAD_BOOL", "yes")

	if got := GetEnv("GT_STRING"); got != "o200k_base" {
		t.Errorf("GetEnv() = %q", got)
	}
	if got := GetEnv("GT_MISSING"); got != "" {
		t.Errorf("GetEnv() for missing key = %q, want empty", got)
	}
	if got := GetEnvString("GT_BLANK", "cl100k_base"); got != "cl100k_base" {
		t.Errorf("GetEnvString() for blank = %q, want default", got)
	}
	if got := GetEnvInt("GT_INT", 1024); got != 512 {
		t.Errorf("GetEnvInt() = %d, want 512", got)
	}
	if got := GetEnvInt("GT_BAD_INT", 1024); got != 1024 {
		t.Errorf("GetEnvInt() for invalid = %d, want default", got)
	}
	if got := GetEnvBool("GT_BOOL", false); !got {
		t.Errorf("GetEnvBool() = false, want true")
	}
	if got := GetEnvBool("GT_BAD_BOOL", false); got {
		t.Errorf("GetEnvBool() for invalid = true, want default")
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("GT_FROM_FILE=42\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("GT_FROM_FILE", "")
	os.Unsetenv("GT_FROM_FILE")

	LoadEnv(path)

	if got := GetEnvInt("GT_FROM_FILE", 0); got != 42 {
		t.Fatalf("GetEnvInt() after LoadEnv = %d, want 42", got)
	}
}
