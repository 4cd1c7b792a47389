package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cryptodoc/cryptodoc-cli/internal/core/domain"
)

// TestCommandStructure verifies that all commands are properly registered
func TestCommandStructure(t *testing.T) {
	commands := []string{
		"dashboard", "list", "upload", "delete", "preview", "chat",
		"regenerate", "verify", "stats", "expiring", "inspect", "export",
		"report", "watch", "login", "signup", "logout", "whoami",
		"config", "init", "doctor", "clean", "purge", "version",
	}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			cmd, _, err := rootCmd.Find([]string{cmdName})
			if err != nil {
				t.Fatalf("Command '%s' not found: %v", cmdName, err)
			}
			if cmd == nil {
				t.Fatalf("Command '%s' is nil", cmdName)
			}
			if cmd.Use == "" {
				t.Errorf("Command '%s' has no Use field", cmdName)
			}
		})
	}
}

// TestRootCommandExists verifies the root command is properly configured
func TestRootCommandExists(t *testing.T) {
	if rootCmd == nil {
		t.Fatal("Root command is nil")
	}

	if rootCmd.Use != "cryptodoc" {
		t.Errorf("Expected root command Use to be 'cryptodoc', got '%s'", rootCmd.Use)
	}

	if rootCmd.Short == "" {
		t.Error("Root command Short description is empty")
	}

	if rootCmd.RunE == nil {
		t.Error("Root command should launch the dashboard")
	}
}

// TestCommandsHaveHelp verifies all commands have help text
func TestCommandsHaveHelp(t *testing.T) {
	commands := rootCmd.Commands()

	if len(commands) == 0 {
		t.Fatal("No commands registered")
	}

	for _, cmd := range commands {
		t.Run(cmd.Name(), func(t *testing.T) {
			if cmd.Short == "" {
				t.Errorf("Command '%s' has no Short description", cmd.Name())
			}
		})
	}
}

// TestSubcommands verifies specific subcommands exist
func TestSubcommands(t *testing.T) {
	for _, sub := range []string{"path", "set", "edit"} {
		t.Run("config_"+sub, func(t *testing.T) {
			cmd, _, err := rootCmd.Find([]string{"config", sub})
			if err != nil {
				t.Fatalf("Subcommand '%s' not found: %v", sub, err)
			}
			if cmd.Name() != sub {
				t.Errorf("Expected '%s', got '%s'", sub, cmd.Name())
			}
		})
	}
}

// TestFlagsExist verifies important flags are registered
func TestFlagsExist(t *testing.T) {
	tests := []struct {
		command  string
		flagName string
	}{
		{"list", "tag"},
		{"list", "search"},
		{"list", "sort"},
		{"list", "reverse"},
		{"upload", "tags"},
		{"delete", "yes"},
		{"preview", "copy"},
		{"preview", "no-open"},
		{"expiring", "urgent"},
		{"inspect", "raw"},
		{"export", "format"},
		{"export", "output"},
		{"report", "open"},
		{"watch", "tags"},
		{"watch", "metrics-addr"},
		{"login", "email"},
		{"init", "force"},
		{"init", "yes"},
		{"clean", "all"},
	}

	for _, tt := range tests {
		t.Run(tt.command+"_"+tt.flagName, func(t *testing.T) {
			cmd, _, err := rootCmd.Find([]string{tt.command})
			if err != nil {
				t.Fatalf("Command '%s' not found: %v", tt.command, err)
			}

			if cmd.Flags().Lookup(tt.flagName) == nil {
				t.Errorf("Flag '--%s' not found on command '%s'", tt.flagName, tt.command)
			}
		})
	}

	for _, name := range []string{"api-url", "log-level"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("Persistent flag '--%s' not found", name)
		}
	}
}

// TestCommandAliases verifies command aliases work
func TestCommandAliases(t *testing.T) {
	tests := []struct {
		alias   string
		command string
	}{
		{"ls", "list"},
		{"rm", "delete"},
		{"open", "preview"},
		{"ask", "chat"},
		{"regen", "regenerate"},
		{"exp", "expiring"},
		{"dash", "dashboard"},
		{"v", "version"},
	}

	for _, tt := range tests {
		t.Run(tt.alias, func(t *testing.T) {
			cmd, _, err := rootCmd.Find([]string{tt.alias})
			if err != nil {
				t.Fatalf("Alias '%s' not found: %v", tt.alias, err)
			}
			if cmd.Name() != tt.command {
				t.Errorf("Alias '%s' resolved to '%s', want '%s'", tt.alias, cmd.Name(), tt.command)
			}
		})
	}
}

// TestVersionSkipsInitialization verifies version runs without backend wiring
func TestVersionSkipsInitialization(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"version"})
	if err != nil {
		t.Fatalf("Version command not found: %v", err)
	}
	if !skipInit[cmd.Name()] {
		t.Error("version should skip initialization")
	}
	if err := initializeApp(cmd, nil); err != nil {
		t.Errorf("initializeApp for version returned %v", err)
	}
}

func TestIsYes(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y", true},
		{"Y\n", true},
		{" yes ", true},
		{"YES", true},
		{"n", false},
		{"", false},
		{"yep", false},
	}
	for _, tt := range tests {
		if got := isYes(tt.input); got != tt.want {
			t.Errorf("isYes(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestStdinConfirmer(t *testing.T) {
	doc := domain.Document{ID: "42", Name: "contract.pdf"}

	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"yes\n", true},
		{"n\n", false},
		{"", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		c := &stdinConfirmer{in: strings.NewReader(tt.input), out: &out}

		got, err := c.Confirm(context.Background(), doc)
		if err != nil {
			t.Fatalf("Confirm(%q) returned %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if !strings.Contains(out.String(), "contract.pdf") {
			t.Errorf("Expected the prompt to name the document, got %q", out.String())
		}
	}
}

func TestUserMessage(t *testing.T) {
	if got := userMessage(nil); got != "" {
		t.Errorf("userMessage(nil) = %q", got)
	}

	opErr := domain.NewOpError(domain.ErrUpload, "upload", 500, "", nil)
	if got := userMessage(opErr); got != "Upload failed due to server error" {
		t.Errorf("Unexpected generic message %q", got)
	}

	withServer := domain.NewOpError(domain.ErrUpload, "upload", 413, "File too large", nil)
	if got := userMessage(withServer); got != "File too large" {
		t.Errorf("Expected server message, got %q", got)
	}

	plain := errors.New("disk full")
	if got := userMessage(plain); got != "disk full" {
		t.Errorf("Expected plain error text, got %q", got)
	}
}

func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hello.txt")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := hashFile(path)
	if err != nil {
		t.Fatalf("hashFile returned %v", err)
	}
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if got != want {
		t.Errorf("hashFile = %s, want %s", got, want)
	}

	if _, err := hashFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestWatchable(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/in/invoice.pdf", true},
		{"/in/.DS_Store", false},
		{"/in/~$report.docx", false},
		{"/in/report.docx~", false},
		{"/in/download.pdf.crdownload", false},
		{"/in/scan.part", false},
	}
	for _, tt := range tests {
		if got := watchable(tt.path); got != tt.want {
			t.Errorf("watchable(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestUploadQueueSkipsUnchangedContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.pdf")
	if err := os.WriteFile(path, []byte("first"), 0644); err != nil {
		t.Fatal(err)
	}

	var uploads []string
	q := newUploadQueue(time.Millisecond, func(p string) string {
		uploads = append(uploads, p)
		return "ok"
	})

	q.process(path)
	q.process(path)
	if len(uploads) != 1 {
		t.Fatalf("Expected unchanged content to be skipped, got %d uploads", len(uploads))
	}

	if err := os.WriteFile(path, []byte("second"), 0644); err != nil {
		t.Fatal(err)
	}
	q.process(path)
	if len(uploads) != 2 {
		t.Errorf("Expected changed content to upload again, got %d uploads", len(uploads))
	}
}

func TestUploadQueueRetriesFailures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.pdf")
	if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}

	calls := 0
	q := newUploadQueue(time.Millisecond, func(string) string {
		calls++
		return "failed"
	})

	q.process(path)
	q.process(path)
	if calls != 2 {
		t.Errorf("Expected a failed upload to be retried, got %d calls", calls)
	}
}

func TestUploadQueueDebounces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.pdf")
	if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}

	done := make(chan string, 4)
	q := newUploadQueue(20*time.Millisecond, func(p string) string {
		done <- p
		return "ok"
	})
	defer q.Stop()

	for i := 0; i < 3; i++ {
		q.Add(path)
	}

	select {
	case got := <-done:
		if got != path {
			t.Errorf("Uploaded %s, want %s", got, path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for the debounced upload")
	}

	select {
	case <-done:
		t.Error("Expected a single upload for a burst of events")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestUploadQueueIgnoresEmptyFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pdf")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}

	calls := 0
	q := newUploadQueue(time.Millisecond, func(string) string {
		calls++
		return "ok"
	})
	q.process(path)
	q.process(filepath.Join(t.TempDir(), "missing.pdf"))

	if calls != 0 {
		t.Errorf("Expected no uploads, got %d", calls)
	}
}
