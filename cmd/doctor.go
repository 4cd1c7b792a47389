package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/cryptodoc/cryptodoc-cli/pkg/ui"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the health of your cryptodoc installation",
	Long: `Diagnose issues with your CryptoDoc setup.

Checks for:
  - Local data, cache and config directories
  - Backend reachability
  - Identity provider configuration and session
  - Optional tools (PDF viewer, clipboard, $EDITOR)`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	fmt.Println(ui.FormatTitle("CryptoDoc Doctor"))
	fmt.Println()

	failed := 0
	step := func(name string, check func() error) {
		if !checkStep(name, check) {
			failed++
		}
	}

	// 1. Local directories
	step("Data Directory", func() error {
		if !appVault.Exists() {
			return fmt.Errorf("not found at %s", appVault.RootPath)
		}
		return nil
	})

	step("Cache Directory", func() error {
		return dirExists(appVault.CachePath)
	})

	step("Configuration File", func() error {
		if _, err := os.Stat(appVault.ConfigPath); os.IsNotExist(err) {
			return fmt.Errorf("missing at %s (run 'cryptodoc init')", appVault.ConfigPath)
		}
		return nil
	})

	step("Log File", func() error {
		if logFile == nil {
			return fmt.Errorf("logging disabled")
		}
		return nil
	})

	// 2. Backend
	fmt.Println()
	fmt.Println(ui.FormatInfo("Checking backend at " + apiClient.BaseURL() + "..."))

	step("Backend Reachable", func() error {
		ctx, cancel := context.WithTimeout(getContext(), 10*time.Second)
		defer cancel()
		if err := controller.Refresh(ctx); err != nil {
			return fmt.Errorf("%s", userMessage(err))
		}
		return nil
	})

	// 3. Identity
	step("Identity Provider", func() error {
		if !appConfig.AuthEnabled() {
			return fmt.Errorf("not configured (set auth_url and auth_anon_key)")
		}
		return nil
	})

	if appConfig.AuthEnabled() {
		step("Session", func() error {
			if !appCtx.SignedIn() {
				return fmt.Errorf("not signed in (run 'cryptodoc login')")
			}
			return nil
		})
	}

	// 4. Optional tools
	fmt.Println()
	step("PDF Viewer", func() error {
		if appConfig.PDFViewer == "" {
			return nil
		}
		if _, err := exec.LookPath(appConfig.PDFViewer); err != nil {
			return fmt.Errorf("'%s' not found in PATH", appConfig.PDFViewer)
		}
		return nil
	})

	step("Clipboard", func() error {
		if clipboard.Unsupported {
			return fmt.Errorf("no clipboard utility found (install xclip, xsel or wl-clipboard)")
		}
		return nil
	})

	step("EDITOR Variable", func() error {
		if os.Getenv("EDITOR") == "" {
			return fmt.Errorf("not set (using fallback 'vi')")
		}
		return nil
	})

	fmt.Println()
	if failed > 0 {
		fmt.Println(ui.FormatWarning(fmt.Sprintf("%d check(s) need attention", failed)))
	} else {
		fmt.Println(ui.FormatSuccess("Everything looks good"))
	}
	return nil
}

func dirExists(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("missing at %s", path)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

// checkStep runs a check function and prints the result nicely
func checkStep(name string, check func() error) bool {
	err := check()
	if err == nil {
		fmt.Printf("%s %s\n", ui.FormatSuccess("✔"), name)
		return true
	}
	fmt.Printf("%s %s\n", ui.FormatError("✘"), name)
	fmt.Printf("    %s\n", ui.StyleMuted.Render(err.Error()))
	return false
}
