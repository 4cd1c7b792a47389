package cmd

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/cryptodoc/cryptodoc-cli/pkg/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the CryptoDoc configuration",
	Long: `Show the effective configuration (file, .env and environment merged).

Subcommands:
  path   Print the config file location
  set    Change a single value and save
  edit   Open the config file in $EDITOR`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(ui.RenderKeyValue("File", appVault.ConfigPath))
		fmt.Println()
		fmt.Print(appConfig.String())
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(appVault.ConfigPath)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value by its YAML key and save the file.

Examples:
  cryptodoc config set api_url https://docs.example.com
  cryptodoc config set color_theme dark
  cryptodoc config set expiring_soon_days 45`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := appConfig.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := appConfig.Save(appVault.ConfigPath); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Println(ui.FormatSuccess(fmt.Sprintf("%s updated", args[0])))
		return nil
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit the config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := appVault.ConfigPath

		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := appConfig.Save(path); err != nil {
				return fmt.Errorf("failed to create config: %w", err)
			}
		}

		fmt.Println(ui.FormatInfo("Opening config: " + path))

		editor := os.Getenv("EDITOR")
		if editor == "" {
			editor = "vi"
		}

		c := exec.Command(editor, path)
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		return c.Run()
	},
}

func init() {
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configEditCmd)
}
