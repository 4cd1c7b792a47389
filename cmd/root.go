package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cryptodoc/cryptodoc-cli/internal/adapters/api"
	"github.com/cryptodoc/cryptodoc-cli/internal/adapters/auth"
	"github.com/cryptodoc/cryptodoc-cli/internal/adapters/resilience"
	"github.com/cryptodoc/cryptodoc-cli/internal/adapters/tagging"
	"github.com/cryptodoc/cryptodoc-cli/internal/core/ports"
	"github.com/cryptodoc/cryptodoc-cli/internal/core/services"
	"github.com/cryptodoc/cryptodoc-cli/internal/observability/logging"
	"github.com/cryptodoc/cryptodoc-cli/internal/observability/metrics"
	"github.com/cryptodoc/cryptodoc-cli/pkg/appctx"
	"github.com/cryptodoc/cryptodoc-cli/pkg/config"
	"github.com/cryptodoc/cryptodoc-cli/pkg/ui"
	"github.com/cryptodoc/cryptodoc-cli/pkg/vault"
)

const serviceName = "cryptodoc-cli"

var (
	// Global vault and config
	appVault  *vault.Vault
	appConfig *config.Config
	appCtx    *appctx.Context

	// Adapters
	apiClient     *api.Client
	clientMetrics *metrics.ClientMetrics
	tagSuggester  ports.TagSuggester

	// Controller shared by commands and the dashboard
	controller *services.Controller

	rootContext = context.Background()
	logFile     *os.File

	// Global flags
	flagAPIURL   string
	flagLogLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cryptodoc",
	Short: "CryptoDoc - verified documents with AI insights",
	Long: ui.StyleTitle.Render("CryptoDoc") + " - Document Dashboard\n\n" +
		"Upload documents, follow their blockchain verification and AI summaries,\n" +
		"track expiration dates and chat with your documents from the terminal.",
	PersistentPreRunE:  initializeApp,
	PersistentPostRunE: shutdownApp,
	SilenceUsage:       true,
	RunE:               runDashboard,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	rootContext = ctx

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(ui.FormatError(userMessage(err)))
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "Backend base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(regenerateCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(expiringCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(versionCmd)
}

// skipInit lists commands that run without the backend wiring
var skipInit = map[string]bool{
	"version":    true,
	"help":       true,
	"completion": true,
}

// initializeApp wires config, logging, session and the backend client
func initializeApp(cmd *cobra.Command, args []string) error {
	if skipInit[cmd.Name()] {
		return nil
	}

	// Create vault instance
	v, err := vault.New()
	if err != nil {
		return fmt.Errorf("failed to initialize directories: %w", err)
	}
	if err := v.Initialize(); err != nil {
		return err
	}
	appVault = v

	// Load configuration
	cfg, err := config.Load(appVault.ConfigPath)
	if err != nil {
		return err
	}
	if flagAPIURL != "" {
		cfg.APIURL = flagAPIURL
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	appConfig = cfg

	// Logging goes to a file, the terminal belongs to the UI
	if f, err := logging.OpenLogFile(appVault.LogPath); err == nil {
		logFile = f
		slog.SetDefault(logging.NewJSONLogger(serviceName, cfg.LogLevel, f))
	} else {
		fmt.Println(ui.FormatWarning("Logging disabled: " + err.Error()))
	}

	// Theme and session
	var (
		authenticator ports.Authenticator
		sessionStore  ports.SessionStore
	)
	if cfg.AuthEnabled() {
		authenticator = auth.NewGoTrueClient(cfg.AuthURL, cfg.AuthAnonKey)
		sessionStore = auth.NewFileStore(appVault.SessionPath)
	}
	appCtx = appctx.New(cfg.ColorTheme, authenticator, sessionStore)
	ui.SetTheme(appCtx.Theme())
	appCtx.Subscribe(func(e appctx.Event) {
		if e == appctx.EventTheme {
			ui.SetTheme(appCtx.Theme())
		}
	})
	if err := appCtx.Init(getContext()); err != nil {
		slog.Warn("session_init_failed", "error", err)
	}

	// Backend client
	res := resilience.DefaultConfig()
	res.RetryMaxAttempts = cfg.RetryMaxAttempts
	res.BreakerEnabled = cfg.BreakerEnabled

	clientMetrics = metrics.NewClientMetrics(serviceName)
	apiClient = api.New(api.Config{
		BaseURL:           cfg.APIURL,
		Timeout:           cfg.RequestTimeout(),
		RequestsPerSecond: cfg.RequestsPerSecond,
		Resilience:        res,
		UserAgent:         serviceName + "/" + Version,
	}, api.WithMetrics(clientMetrics), api.WithTokenSource(appCtx.Token))

	tagSuggester = tagging.NewSuggester()

	controller = services.NewController(apiClient, &viewerOpener{viewer: cfg.PDFViewer})
	controller.SetThresholds(cfg.Thresholds())

	slog.Debug("app_initialized", "command", cmd.Name(), "api_url", apiClient.BaseURL(), "signed_in", appCtx.SignedIn())
	return nil
}

func shutdownApp(cmd *cobra.Command, args []string) error {
	if logFile != nil {
		return logFile.Close()
	}
	return nil
}

// getContext returns a context for operations, cancelled on Ctrl+C
func getContext() context.Context {
	return rootContext
}
