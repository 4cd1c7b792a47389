package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/cryptodoc/cryptodoc-cli/pkg/appctx"
	"github.com/cryptodoc/cryptodoc-cli/pkg/ui"
)

var authEmail string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the identity provider",
	Long: `Sign in with email and password.

The session is stored next to the config file and refreshed automatically
when it is about to expire. Requires auth_url and auth_anon_key.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE:  runSignup,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func init() {
	loginCmd.Flags().StringVarP(&authEmail, "email", "e", "", "Account email")
	signupCmd.Flags().StringVarP(&authEmail, "email", "e", "", "Account email")
}

func runLogin(cmd *cobra.Command, args []string) error {
	if !appCtx.AuthEnabled() {
		return appctx.ErrAuthDisabled
	}

	email, password, err := promptCredentials()
	if err != nil {
		return err
	}

	if err := appCtx.SignIn(getContext(), email, password); err != nil {
		return err
	}

	fmt.Println(ui.FormatSuccess("Welcome back, " + appCtx.Session().DisplayName()))
	return nil
}

func runSignup(cmd *cobra.Command, args []string) error {
	if !appCtx.AuthEnabled() {
		return appctx.ErrAuthDisabled
	}

	email, password, err := promptCredentials()
	if err != nil {
		return err
	}

	confirm, err := appCtx.SignUp(getContext(), email, password)
	if err != nil {
		return err
	}

	if confirm {
		fmt.Println(ui.FormatInfo("Check your email for the confirmation link, then run 'cryptodoc login'."))
		return nil
	}
	fmt.Println(ui.FormatSuccess("Account created. Signed in as " + appCtx.Session().DisplayName()))
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	if !appCtx.SignedIn() {
		fmt.Println(ui.FormatMuted("Not signed in."))
		return nil
	}

	if err := appCtx.SignOut(getContext()); err != nil {
		// The local session is gone either way
		fmt.Println(ui.FormatWarning("Remote sign-out failed: " + userMessage(err)))
	}
	fmt.Println(ui.FormatSuccess("Signed out"))
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	if !appCtx.SignedIn() {
		fmt.Println(ui.FormatMuted("Not signed in."))
		return nil
	}

	s := appCtx.Session()
	fmt.Println(ui.RenderKeyValue("User", s.DisplayName()))
	fmt.Println(ui.RenderKeyValue("Email", s.Email))
	fmt.Println(ui.RenderKeyValue("User ID", s.UserID))
	if !s.ExpiresAt.IsZero() {
		fmt.Println(ui.RenderKeyValue("Expires", s.ExpiresAt.Local().Format("Jan 02, 2006 15:04")))
	}
	return nil
}

// promptCredentials reads the email (flag or prompt) and a hidden password
func promptCredentials() (string, string, error) {
	reader := bufio.NewReader(os.Stdin)

	email := strings.TrimSpace(authEmail)
	if email == "" {
		var err error
		if email, err = readLine(reader, "Email: "); err != nil {
			return "", "", fmt.Errorf("failed to read email: %w", err)
		}
	}
	if !strings.Contains(email, "@") {
		return "", "", fmt.Errorf("invalid email address: %q", email)
	}

	password, err := readPassword(reader)
	if err != nil {
		return "", "", err
	}
	if password == "" {
		return "", "", errors.New("password cannot be empty")
	}
	return email, password, nil
}

func readPassword(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := readLine(reader, "Password: ")
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return line, nil
	}

	fmt.Print(ui.StyleInfo.Render("Password: "))
	b, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
}
