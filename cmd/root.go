package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/verifydesk/cli/cmd/auth"
	"github.com/verifydesk/cli/cmd/candidate"
	"github.com/verifydesk/cli/cmd/config"
	"github.com/verifydesk/cli/cmd/notifications"
	"github.com/verifydesk/cli/cmd/session"
	appConfig "github.com/verifydesk/cli/internal/config"
)

var (
	cfgFile string
	debug   bool
	output  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "verifydesk",
	Short: "VerifyDesk CLI - candidate verification from the command line",
	Long: `VerifyDesk CLI submits candidates and their verification documents
to the VerifyDesk backend and keeps the operator's session and
notifications.

Candidates are described in a YAML manifest (see "candidate template")
and submitted with "candidate add".`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize configuration
		if err := appConfig.Initialize(cfgFile); err != nil {
			return fmt.Errorf("failed to initialize configuration: %w", err)
		}

		// Set debug mode
		if debug {
			appConfig.SetDebug(true)
		}

		// Set output format
		if output != "" {
			appConfig.SetOutputFormat(output)
		}

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/"+appConfig.FileName+")")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "", "output format (table, json, json-compact, yaml, text)")

	// Add subcommands
	rootCmd.AddCommand(auth.AuthCmd)
	rootCmd.AddCommand(session.SessionCmd)
	rootCmd.AddCommand(candidate.CandidateCmd)
	rootCmd.AddCommand(notifications.NotificationsCmd)
	rootCmd.AddCommand(config.ConfigCmd)
}
