package cmd

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cryptodoc/cryptodoc-cli/pkg/config"
	"github.com/cryptodoc/cryptodoc-cli/pkg/ui"
)

var (
	initForce bool
	initYes   bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the local directories and a default configuration",
	Long: `Create the CryptoDoc data, cache and config directories and write a
config.yaml with the backend URL.

The backend URL is asked for interactively unless --api-url or --yes is given.

Examples:
  cryptodoc init
  cryptodoc init --api-url https://api.example.com --yes`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing config file")
	initCmd.Flags().BoolVarP(&initYes, "yes", "y", false, "Accept defaults without prompting")
}

func runInit(cmd *cobra.Command, args []string) error {
	fmt.Println(ui.FormatInfo("Initializing CryptoDoc..."))

	if err := appVault.Initialize(); err != nil {
		return err
	}
	fmt.Println(ui.FormatSuccess("Directories created"))

	if _, err := os.Stat(appVault.ConfigPath); err == nil && !initForce {
		fmt.Println(ui.FormatWarning("Config already exists: " + appVault.ConfigPath))
		fmt.Println(ui.FormatMuted("Use --force to overwrite it."))
		return nil
	}

	cfg := config.DefaultConfig()
	cfg.APIURL = appConfig.APIURL
	cfg.AuthURL = appConfig.AuthURL
	cfg.AuthAnonKey = appConfig.AuthAnonKey

	if !initYes && flagAPIURL == "" {
		reader := bufio.NewReader(os.Stdin)
		line, err := readLine(reader, fmt.Sprintf("Backend URL [%s]: ", cfg.APIURL))
		if err == nil && line != "" {
			cfg.APIURL = line
		}
	}

	if err := validateBaseURL(cfg.APIURL); err != nil {
		return err
	}

	if err := cfg.Save(appVault.ConfigPath); err != nil {
		return err
	}

	fmt.Println(ui.FormatSuccess("CryptoDoc initialized successfully!"))
	fmt.Println()
	fmt.Println(ui.RenderKeyValue("Data", appVault.RootPath))
	fmt.Println(ui.RenderKeyValue("Config", appVault.ConfigPath))
	fmt.Println(ui.RenderKeyValue("Cache", appVault.CachePath))
	fmt.Println(ui.RenderKeyValue("Backend", cfg.APIURL))
	fmt.Println()
	fmt.Println(ui.FormatInfo("Next steps:"))
	fmt.Println(ui.FormatMuted("  1. Sign in: cryptodoc login"))
	fmt.Println(ui.FormatMuted("  2. Upload a document: cryptodoc upload ./passport.pdf"))
	fmt.Println(ui.FormatMuted("  3. Open the dashboard: cryptodoc"))

	return nil
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid backend URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid backend URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid backend URL %q: missing host", raw)
	}
	return nil
}
