package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/cryptodoc/cryptodoc-cli/internal/core/domain"
	"github.com/cryptodoc/cryptodoc-cli/internal/core/ports"
	"github.com/cryptodoc/cryptodoc-cli/pkg/ui"
)

// OpenFile opens a file or URL using a custom viewer or the OS default application.
func OpenFile(path string, viewer string) error {
	var cmd *exec.Cmd

	if viewer != "" {
		// Use user-configured viewer (e.g. zathura, skim)
		cmd = exec.Command(viewer, path)
	} else {
		// Fallback to OS default
		switch runtime.GOOS {
		case "darwin":
			cmd = exec.Command("open", path)
		case "windows":
			cmd = exec.Command("cmd", "/c", "start", path)
		default:
			cmd = exec.Command("xdg-open", path)
		}
	}

	// Start() detaches so the viewer stays open after cryptodoc exits
	if err := cmd.Start(); err != nil {
		if viewer != "" {
			return fmt.Errorf("failed to open '%s' with '%s': %w", path, viewer, err)
		}
		return fmt.Errorf("failed to open '%s': %w", path, err)
	}

	return nil
}

// viewerOpener is the FileOpener used by the controller
type viewerOpener struct {
	viewer string
}

var _ ports.FileOpener = (*viewerOpener)(nil)

func (o *viewerOpener) Open(ctx context.Context, target string) error {
	return OpenFile(target, o.viewer)
}

// stdinConfirmer asks "(y/n)" on the terminal before a destructive action
type stdinConfirmer struct {
	in  io.Reader
	out io.Writer
}

var _ ports.Confirmer = (*stdinConfirmer)(nil)

func newStdinConfirmer() *stdinConfirmer {
	return &stdinConfirmer{in: os.Stdin, out: os.Stdout}
}

func (c *stdinConfirmer) Confirm(ctx context.Context, doc domain.Document) (bool, error) {
	fmt.Fprintln(c.out, ui.FormatWarning("You are about to delete:"))
	fmt.Fprintf(c.out, "  %s %s\n\n", ui.StyleBold.Render(doc.Name), ui.StyleMuted.Render("("+doc.ID+")"))
	fmt.Fprint(c.out, ui.StyleError.Render("Delete document? (y/n): "))

	response, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && response == "" {
		return false, nil
	}
	return isYes(response), nil
}

func isYes(response string) bool {
	r := strings.ToLower(strings.TrimSpace(response))
	return r == "y" || r == "yes"
}

// readLine prints a prompt and reads one trimmed line from stdin
func readLine(reader *bufio.Reader, prompt string) (string, error) {
	fmt.Print(ui.StyleInfo.Render(prompt))
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// userMessage renders an error for the terminal
func userMessage(err error) string {
	if err == nil {
		return ""
	}
	if domain.KindOf(err) != nil {
		return domain.UserMessage(err)
	}
	return err.Error()
}

// loadDocuments refreshes the controller and reports a failure the way the
// dashboard banner does
func loadDocuments(ctx context.Context) error {
	if err := controller.Refresh(ctx); err != nil {
		fmt.Println(ui.FormatError("Failed to load documents: " + userMessage(err)))
		fmt.Println(ui.FormatMuted("Backend: " + apiClient.BaseURL()))
		return err
	}
	return nil
}
