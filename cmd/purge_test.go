package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cryptodoc/cryptodoc-cli/pkg/vault"
)

func TestPurgeCommand_Exists(t *testing.T) {
	if purgeCmd == nil {
		t.Fatal("purge command should be registered")
	}

	if purgeCmd.Use != "purge" {
		t.Errorf("expected Use to be 'purge', got '%s'", purgeCmd.Use)
	}

	if purgeCmd.Short == "" {
		t.Error("purge command should have a short description")
	}

	if purgeCmd.Long == "" {
		t.Error("purge command should have a long description")
	}
}

func TestPurgeCommand_Flags(t *testing.T) {
	forceFlag := purgeCmd.Flags().Lookup("force")
	if forceFlag == nil {
		t.Fatal("expected 'force' flag to exist")
	}

	if forceFlag.Shorthand != "f" {
		t.Errorf("expected force flag shorthand to be 'f', got '%s'", forceFlag.Shorthand)
	}

	if forceFlag.DefValue != "false" {
		t.Errorf("expected force flag default to be 'false', got '%s'", forceFlag.DefValue)
	}

	if purgeCmd.Flags().Lookup("keep-config") == nil {
		t.Error("expected 'keep-config' flag to exist")
	}
}

func newTestVault(t *testing.T) *vault.Vault {
	t.Helper()
	tempDir := t.TempDir()
	v := vault.NewAt(
		filepath.Join(tempDir, "data"),
		filepath.Join(tempDir, "config"),
		filepath.Join(tempDir, "cache"),
	)
	if err := v.Initialize(); err != nil {
		t.Fatalf("failed to initialize vault: %v", err)
	}

	files := []string{
		v.GetExportPath("documents.xlsx"),
		v.GetReportPath("report.html"),
		v.GetCachePath("preview.pdf"),
		v.LogPath,
		v.ConfigPath,
		v.SessionPath,
	}
	for _, file := range files {
		if err := os.WriteFile(file, []byte("test content"), 0644); err != nil {
			t.Fatalf("failed to create test file %s: %v", file, err)
		}
	}
	return v
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestPurgeLocalData_RemovesEverything(t *testing.T) {
	v := newTestVault(t)

	if err := purgeLocalData(purgeTargets(v, false)); err != nil {
		t.Fatalf("purge failed: %v", err)
	}

	for _, path := range []string{v.RootPath, v.CachePath, v.ConfigDir} {
		if exists(path) {
			t.Errorf("%s should not exist after purge", path)
		}
	}
}

func TestPurgeLocalData_KeepConfig(t *testing.T) {
	v := newTestVault(t)

	if err := purgeLocalData(purgeTargets(v, true)); err != nil {
		t.Fatalf("purge failed: %v", err)
	}

	if !exists(v.ConfigPath) {
		t.Error("config file should survive --keep-config")
	}
	if exists(v.SessionPath) {
		t.Error("session file should be removed even with --keep-config")
	}
	if exists(v.ExportsPath) {
		t.Error("exports should be removed")
	}
}

func TestPurgeLocalData_PreservesOtherDirectories(t *testing.T) {
	v := newTestVault(t)
	other := filepath.Join(filepath.Dir(v.RootPath), "other")
	if err := os.MkdirAll(other, 0755); err != nil {
		t.Fatalf("failed to create other directory: %v", err)
	}
	otherFile := filepath.Join(other, "keep.txt")
	if err := os.WriteFile(otherFile, []byte("other content"), 0644); err != nil {
		t.Fatalf("failed to create other file: %v", err)
	}

	if err := purgeLocalData(purgeTargets(v, false)); err != nil {
		t.Fatalf("purge failed: %v", err)
	}

	if !exists(otherFile) {
		t.Error("other file should still exist after purge")
	}
}

func TestConfirmPurge(t *testing.T) {
	root := "/home/me/.local/share/cryptodoc"

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"both confirmations", "yes\n" + root + "\n", true},
		{"answer no", "no\n", false},
		{"short y is not enough then no", "y\nno\n", false},
		{"wrong path then empty", "yes\n/tmp\n\n", false},
		{"wrong path then correct", "yes\n/tmp\n" + root + "\n", true},
		{"eof", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := confirmPurge(strings.NewReader(tt.input), &out, root)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("confirmPurge(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestClearDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.json", "b.xlsx"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	n, err := clearDir(dir)
	if err != nil {
		t.Fatalf("clearDir failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 removed, got %d", n)
	}
	if !exists(dir) {
		t.Error("directory itself should be kept")
	}

	n, err = clearDir(filepath.Join(dir, "missing"))
	if err != nil || n != 0 {
		t.Errorf("missing dir: got (%d, %v), want (0, nil)", n, err)
	}
}

func TestValidateBaseURL(t *testing.T) {
	valid := []string{"http://localhost:8080", "https://api.example.com"}
	for _, u := range valid {
		if err := validateBaseURL(u); err != nil {
			t.Errorf("validateBaseURL(%q) unexpected error: %v", u, err)
		}
	}

	invalid := []string{"", "localhost:8080", "ftp://example.com", "http://"}
	for _, u := range invalid {
		if err := validateBaseURL(u); err == nil {
			t.Errorf("validateBaseURL(%q) expected error", u)
		}
	}
}
