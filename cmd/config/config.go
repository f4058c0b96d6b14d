package config

import (
	"fmt"

	"github.com/spf13/cobra"

	appConfig "github.com/verifydesk/cli/internal/config"
	"github.com/verifydesk/cli/internal/format"
)

// ConfigCmd represents the config command
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "CLI configuration commands",
	Long: `CLI configuration commands for VerifyDesk CLI.

This command group includes listing the current configuration and
getting or setting individual values. Authentication state and
notifications are changed through their own commands.`,
}

// listCmd shows every setting
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List configuration values",
	RunE:  runList,
}

// getCmd shows one setting
var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

// setCmd changes one setting
var setCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value. Durations use Go syntax such as 30s, 5m or 1m30s.",
	Args:  cobra.ExactArgs(2),
	RunE:  runSet,
}

// pathCmd prints the config file location
var pathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the configuration file path",
	RunE:  runPath,
}

// Setting is one printed configuration entry
type Setting struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

func runList(cmd *cobra.Command, args []string) error {
	keys := appConfig.SettableKeys()
	list := make([]Setting, 0, len(keys))
	for _, key := range keys {
		value, err := appConfig.Lookup(key)
		if err != nil {
			return err
		}
		list = append(list, Setting{Key: key, Value: value})
	}
	return format.Print(list)
}

func runGet(cmd *cobra.Command, args []string) error {
	value, err := appConfig.Lookup(args[0])
	if err != nil {
		return err
	}

	fmt.Println(value)
	return nil
}

func runSet(cmd *cobra.Command, args []string) error {
	if err := appConfig.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}

	format.PrintSuccess("✓ %s set to %s", args[0], args[1])
	return nil
}

func runPath(cmd *cobra.Command, args []string) error {
	fmt.Println(appConfig.Path())
	return nil
}

func init() {
	ConfigCmd.AddCommand(listCmd)
	ConfigCmd.AddCommand(getCmd)
	ConfigCmd.AddCommand(setCmd)
	ConfigCmd.AddCommand(pathCmd)
}
