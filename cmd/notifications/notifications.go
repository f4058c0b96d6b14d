package notifications

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verifydesk/cli/internal/app"
	"github.com/verifydesk/cli/internal/format"
	"github.com/verifydesk/cli/internal/models"
	"github.com/verifydesk/cli/internal/notify"
)

// NotificationsCmd represents the notifications command
var NotificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"notif"},
	Short:   "Notification commands",
	Long: `Notification commands for VerifyDesk CLI.

Notifications are recorded for submitted and failed candidates and for
sessions that expired, and are kept in the configuration file.`,
}

// listCmd lists notifications
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List notifications",
	Long:  "List notifications, newest first. Filter with all, unread, info, alert or success.",
	RunE:  runList,
}

// readCmd marks one notification as read
var readCmd = &cobra.Command{
	Use:   "read <id>",
	Short: "Mark a notification as read",
	Args:  cobra.ExactArgs(1),
	RunE:  runRead,
}

// readAllCmd marks every notification as read
var readAllCmd = &cobra.Command{
	Use:   "read-all",
	Short: "Mark all notifications as read",
	RunE:  runReadAll,
}

// deleteCmd removes one notification
var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a notification",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

// clearCmd removes every notification
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all notifications",
	RunE:  runClear,
}

// addCmd records a notification
var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a notification",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdd,
}

func runList(cmd *cobra.Command, args []string) error {
	filter, _ := cmd.Flags().GetString("filter")

	a := app.New()
	list, err := a.Notifications.List(filter)
	if err != nil {
		return fmt.Errorf("failed to list notifications: %w", err)
	}

	if len(list) == 0 {
		if filter == "" || filter == notify.FilterAll {
			fmt.Println("No notifications")
		} else {
			fmt.Printf("No %s notifications\n", strings.ToLower(filter))
		}
		return nil
	}
	return format.Print(list)
}

func runRead(cmd *cobra.Command, args []string) error {
	a := app.New()
	if err := a.Notifications.MarkAsRead(args[0]); err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}

	format.PrintSuccess("✓ Notification marked as read")
	return nil
}

func runReadAll(cmd *cobra.Command, args []string) error {
	a := app.New()
	if err := a.Notifications.MarkAllAsRead(); err != nil {
		return fmt.Errorf("failed to mark notifications as read: %w", err)
	}

	format.PrintSuccess("✓ All notifications marked as read")
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	a := app.New()
	if err := a.Notifications.Delete(args[0]); err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}

	format.PrintSuccess("✓ Notification deleted")
	return nil
}

func runClear(cmd *cobra.Command, args []string) error {
	a := app.New()
	if err := a.Notifications.Clear(); err != nil {
		return fmt.Errorf("failed to clear notifications: %w", err)
	}

	format.PrintSuccess("✓ All notifications deleted")
	return nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	message, _ := cmd.Flags().GetString("message")
	kind, _ := cmd.Flags().GetString("type")
	action, _ := cmd.Flags().GetString("action")

	a := app.New()
	n, err := a.Notifications.Add(models.Notification{
		Title:      args[0],
		Message:    message,
		Type:       kind,
		ActionText: action,
	})
	if err != nil {
		return fmt.Errorf("failed to add notification: %w", err)
	}

	format.PrintSuccess("✓ Notification %s added", n.ID)
	return nil
}

func init() {
	listCmd.Flags().StringP("filter", "f", notify.FilterAll, "filter: "+strings.Join(notify.Filters, ", "))

	addCmd.Flags().StringP("message", "m", "", "notification message")
	addCmd.Flags().StringP("type", "t", notify.TypeInfo, "notification type (info, alert, success)")
	addCmd.Flags().String("action", "", "action text")

	NotificationsCmd.AddCommand(listCmd)
	NotificationsCmd.AddCommand(readCmd)
	NotificationsCmd.AddCommand(readAllCmd)
	NotificationsCmd.AddCommand(deleteCmd)
	NotificationsCmd.AddCommand(clearCmd)
	NotificationsCmd.AddCommand(addCmd)
}
