package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cryptodoc/cryptodoc-cli/pkg/ui"
)

var cleanAll bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean the local cache",
	Long: `Remove cached files. The log file is kept.

With --all, generated exports and reports are removed as well.

Examples:
  cryptodoc clean
  cryptodoc clean --all`,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().BoolVarP(&cleanAll, "all", "a", false, "Also remove exports and reports")
}

func runClean(cmd *cobra.Command, args []string) error {
	fmt.Print(ui.StyleWarning.Render("Cleaning cache... "))
	if err := appVault.CleanCache(); err != nil {
		fmt.Println(ui.FormatError("Failed"))
		return err
	}
	fmt.Println(ui.FormatSuccess("Done"))

	if !cleanAll {
		return nil
	}

	for _, dir := range []string{appVault.ExportsPath, appVault.ReportsPath} {
		fmt.Printf("%s %s... ", ui.StyleWarning.Render("Cleaning"), dir)
		n, err := clearDir(dir)
		if err != nil {
			fmt.Println(ui.FormatError("Failed"))
			return err
		}
		fmt.Println(ui.FormatSuccess(fmt.Sprintf("%d removed", n)))
	}
	return nil
}

// clearDir removes the contents of dir and keeps dir itself
func clearDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	removed := 0
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", path, err)
		}
		removed++
	}
	return removed, nil
}
