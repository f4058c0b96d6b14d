package auth

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verifydesk/cli/internal/app"
	"github.com/verifydesk/cli/internal/config"
	"github.com/verifydesk/cli/internal/format"
)

// AuthCmd represents the auth command
var AuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long: `Authentication commands for VerifyDesk CLI.

This command group includes login, logout, first password creation
and the displayed user name.`,
}

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login to VerifyDesk",
	Long:  "Authenticate with the VerifyDesk backend using username and password",
	RunE:  runLogin,
}

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Logout from VerifyDesk",
	Long:  "Drop the stored token. The user name is kept for the next login.",
	RunE:  runLogout,
}

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status",
	Long:  "Display current authentication status and user information",
	RunE:  runStatus,
}

// createPasswordCmd sets the first password of an organization user
var createPasswordCmd = &cobra.Command{
	Use:   "create-password",
	Short: "Create your first password",
	Long: `Set the password of a user registered by an organization, then log
in with it. The password must be at least 8 characters.`,
	RunE: runCreatePassword,
}

// setNameCmd changes the displayed user name
var setNameCmd = &cobra.Command{
	Use:   "set-name <name>",
	Short: "Change the displayed user name",
	Args:  cobra.ExactArgs(1),
	RunE:  runSetName,
}

func runLogin(cmd *cobra.Command, args []string) error {
	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")

	a := app.New()
	if username == "" {
		username = a.Auth.UserName()
	}

	var err error
	if username == "" {
		if username, err = prompt("Username: "); err != nil {
			return err
		}
	}
	if password == "" {
		if password, err = promptSecret(fmt.Sprintf("Password for %s: ", username)); err != nil {
			return err
		}
	}

	format.PrintInfo("Logging in as %s...", username)
	if err := a.Auth.Login(cmd.Context(), username, password); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	format.PrintSuccess("✓ Successfully logged in as %s", username)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a := app.New()
	if !a.Auth.IsAuthenticated() {
		return fmt.Errorf("not logged in")
	}

	if err := a.Auth.Logout(); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	format.PrintSuccess("✓ Successfully logged out")
	return nil
}

// Status is the printed authentication state
type Status struct {
	Authenticated bool   `json:"authenticated" yaml:"authenticated"`
	UserName      string `json:"user_name" yaml:"user_name"`
	Server        string `json:"server" yaml:"server"`
	Config        string `json:"config" yaml:"config"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	a := app.New()
	return format.Print(Status{
		Authenticated: a.Auth.IsAuthenticated(),
		UserName:      a.Auth.UserName(),
		Server:        a.Config.Server.URL,
		Config:        config.Path(),
	})
}

func runCreatePassword(cmd *cobra.Command, args []string) error {
	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")
	confirm, _ := cmd.Flags().GetString("confirm")

	var err error
	if password == "" {
		if password, err = promptSecret("New password: "); err != nil {
			return err
		}
		if confirm, err = promptSecret("Confirm password: "); err != nil {
			return err
		}
	}

	a := app.New()
	if err := a.Auth.CreatePassword(cmd.Context(), username, password, confirm); err != nil {
		return fmt.Errorf("failed to create password: %w", err)
	}

	format.PrintSuccess("✓ Password created, logged in as %s", username)
	return nil
}

func runSetName(cmd *cobra.Command, args []string) error {
	a := app.New()
	if err := a.Auth.UpdateUserName(args[0]); err != nil {
		return fmt.Errorf("failed to update user name: %w", err)
	}

	format.PrintSuccess("✓ User name set to %s", a.Auth.UserName())
	return nil
}

var stdin = bufio.NewReader(os.Stdin)

func prompt(label string) (string, error) {
	fmt.Print(label)
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// promptSecret reads without echo from a terminal and falls back to a plain
// line read when stdin is piped
func promptSecret(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return prompt(label)
	}

	fmt.Print(label)
	b, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
}

func init() {
	// Add login command flags
	loginCmd.Flags().StringP("username", "u", "", "Username (defaults to the last user)")
	loginCmd.Flags().StringP("password", "p", "", "Password (prompted when omitted)")

	// Add create-password command flags
	createPasswordCmd.Flags().StringP("username", "u", "", "Username registered by your organization")
	createPasswordCmd.Flags().StringP("password", "p", "", "New password (prompted when omitted)")
	createPasswordCmd.Flags().String("confirm", "", "Password confirmation")
	createPasswordCmd.MarkFlagRequired("username")

	// Add subcommands
	AuthCmd.AddCommand(loginCmd)
	AuthCmd.AddCommand(logoutCmd)
	AuthCmd.AddCommand(statusCmd)
	AuthCmd.AddCommand(createPasswordCmd)
	AuthCmd.AddCommand(setNameCmd)
}
