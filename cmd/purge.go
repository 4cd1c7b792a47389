package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cryptodoc/cryptodoc-cli/pkg/ui"
	"github.com/cryptodoc/cryptodoc-cli/pkg/vault"
)

var (
	purgeForce      bool
	purgeKeepConfig bool
)

// purgeCmd represents the purge command
var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete all local CryptoDoc data",
	Long: `Delete every file CryptoDoc keeps on this machine.

This permanently deletes:
  - Exports and reports
  - The cache and log file
  - The saved session (you will be signed out)
  - The configuration file (unless --keep-config)

Documents stored on the backend are not touched.

Examples:
  # Purge with confirmation prompts
  cryptodoc purge

  # Force purge without confirmation (dangerous!)
  cryptodoc purge --force`,
	RunE: runPurge,
}

func init() {
	purgeCmd.Flags().BoolVarP(&purgeForce, "force", "f", false, "Skip confirmation prompt (dangerous)")
	purgeCmd.Flags().BoolVar(&purgeKeepConfig, "keep-config", false, "Keep config.yaml")
}

func runPurge(cmd *cobra.Command, args []string) error {
	targets := purgeTargets(appVault, purgeKeepConfig)

	fmt.Println(ui.StyleError.Render("⚠️  WARNING: DESTRUCTIVE OPERATION ⚠️"))
	fmt.Println()
	fmt.Println(ui.FormatWarning("You are about to permanently delete:"))
	for _, t := range targets {
		fmt.Printf("  • %s\n", ui.StyleMuted.Render(t))
	}
	fmt.Println()
	fmt.Println(ui.FormatError("⚠️  THIS ACTION CANNOT BE UNDONE ⚠️"))
	fmt.Println()

	if !purgeForce {
		confirmed, err := confirmPurge(os.Stdin, os.Stdout, appVault.RootPath)
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println(ui.FormatInfo("Purge cancelled."))
			return nil
		}
	}

	// The log lives in the cache directory
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}

	fmt.Println()
	fmt.Println(ui.FormatInfo("Purging local data..."))

	if err := purgeLocalData(targets); err != nil {
		fmt.Println(ui.FormatError("Failed to purge: " + err.Error()))
		return err
	}

	fmt.Println()
	fmt.Println(ui.FormatSuccess("✓ Local data purged successfully"))
	fmt.Println(ui.FormatInfo("To set up again, run: cryptodoc init"))
	return nil
}

// purgeTargets lists the paths purge removes. With keepConfig only the session
// file is taken from the config directory.
func purgeTargets(v *vault.Vault, keepConfig bool) []string {
	targets := []string{v.RootPath, v.CachePath}
	if keepConfig {
		return append(targets, v.SessionPath)
	}
	return append(targets, v.ConfigDir)
}

func purgeLocalData(targets []string) error {
	for _, path := range targets {
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to delete %s: %w", path, err)
		}
	}
	return nil
}

// confirmPurge asks twice: a full "yes", then the data path typed back.
// An empty answer or EOF cancels.
func confirmPurge(in io.Reader, out io.Writer, rootPath string) (bool, error) {
	reader := bufio.NewReader(in)

	for {
		fmt.Fprint(out, ui.StyleError.Render("Are you absolutely sure you want to delete all local data? (yes/no): "))
		response, err := reader.ReadString('\n')
		if err != nil && response == "" {
			return false, nil
		}

		response = strings.ToLower(strings.TrimSpace(response))
		if response == "yes" {
			break
		}
		if response == "no" || response == "" {
			return false, nil
		}
		fmt.Fprintln(out, ui.FormatWarning("Please type 'yes' or 'no' (full words required)."))
	}

	fmt.Fprintln(out)

	for {
		fmt.Fprintf(out, "%s %s\n",
			ui.StyleError.Render("To confirm, type the data path:"),
			ui.StyleBold.Render(rootPath))
		fmt.Fprint(out, ui.StyleError.Render("> "))

		response, err := reader.ReadString('\n')
		if err != nil && response == "" {
			return false, nil
		}

		response = strings.TrimSpace(response)
		if response == rootPath {
			return true, nil
		}
		if response == "" {
			return false, nil
		}
		fmt.Fprintln(out, ui.FormatWarning("Path does not match. Please try again or press Enter to cancel."))
	}
}
