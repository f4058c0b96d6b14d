package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/verifydesk/cli/internal/app"
	"github.com/verifydesk/cli/internal/format"
	appSession "github.com/verifydesk/cli/internal/session"
)

var warn = color.New(color.FgYellow, color.Bold)

// StayCommand is the input line that confirms "stay logged in"
const StayCommand = "stay"

// SessionCmd represents the session command
var SessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inactivity session commands",
	Long: `Inactivity session commands for VerifyDesk CLI.

"session watch" keeps the operator logged in while input arrives and logs
out after the configured period of inactivity.`,
}

// watchCmd runs the inactivity monitor in the foreground
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch for inactivity and log out when it lasts too long",
	Long: `Run the inactivity monitor in the foreground. Every line read from
stdin counts as activity; the line "stay" is an explicit request to stay
logged in. When the warning threshold is reached the remaining time is
printed each poll interval. At zero the session is logged out and an
alert notification is recorded.`,
	RunE: runWatch,
}

// statusCmd shows the session settings and authentication state
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show session status",
	RunE:  runStatus,
}

// extendCmd resets the inactivity timer
var extendCmd = &cobra.Command{
	Use:   "extend",
	Short: "Stay logged in",
	Long:  "Reset the inactivity timer and print the time until logout",
	RunE:  runExtend,
}

func sessionConfig(cmd *cobra.Command, a *app.App) (appSession.Config, error) {
	cfg := a.SessionConfig()
	if cmd.Flags().Changed("timeout") {
		cfg.Timeout, _ = cmd.Flags().GetDuration("timeout")
	}
	if cmd.Flags().Changed("warning") {
		cfg.WarningThreshold, _ = cmd.Flags().GetDuration("warning")
	}
	return cfg, cfg.Validate()
}

func runWatch(cmd *cobra.Command, args []string) error {
	a := app.New()
	if !a.Auth.IsAuthenticated() {
		return fmt.Errorf("not logged in")
	}
	cfg, err := sessionConfig(cmd, a)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	format.PrintInfo("Watching session of %s, logout after %s of inactivity (Ctrl-C to stop)",
		a.Auth.UserName(), appSession.FormatDuration(cfg.Timeout))

	expired, err := Watch(ctx, a, cfg, os.Stdin, os.Stdout)
	if err != nil {
		return err
	}
	switch {
	case expired:
		format.PrintWarning("Session expired, you have been logged out")
	case !a.Auth.IsAuthenticated():
		format.PrintInfo("Logged out, no longer watching the session")
	}
	return nil
}

// Watch runs the monitor until the session expires, the user is logged out,
// or ctx is done. Lines
// read from in are activity; progress is written to out. It reports
// whether the session expired.
func Watch(ctx context.Context, a *app.App, cfg appSession.Config, in io.Reader, out io.Writer) (bool, error) {
	expired := make(chan struct{})
	logout := func() {
		defer close(expired)
		if err := a.Auth.Logout(); err != nil {
			a.Logger.Error("logout after inactivity failed", "error", err)
		}
		if err := a.Notifications.Alert("Session expired",
			"You were logged out after "+appSession.FormatDuration(cfg.Timeout)+" of inactivity."); err != nil {
			a.Logger.Error("failed to record notification", "error", err)
		}
	}

	m := appSession.New(cfg, logout,
		appSession.WithLogger(a.Logger),
		appSession.WithWarningHandler(func(remaining time.Duration) {
			warn.Fprintf(out, "Your session is about to expire. Type %q to stay logged in.\n", StayCommand)
		}),
	)
	m.Start()
	defer m.Stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := readLines(in, ctx.Done())
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		err := m.Run(gctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case line, ok := <-lines:
				if !ok {
					lines = nil
					continue
				}
				if strings.EqualFold(strings.TrimSpace(line), StayCommand) {
					m.ResetTimer()
					fmt.Fprintf(out, "Session extended, %s remaining\n", m.FormatTimeRemaining())
					continue
				}
				m.Activity(appSession.KeyPress)
			}
		}
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				// a logout from another invocation detaches the monitor
				if !a.Auth.IsAuthenticated() {
					m.Stop()
					return nil
				}
				if snap := m.Snapshot(); snap.WarningVisible {
					warn.Fprintf(out, "Logging out in %s\n", appSession.FormatDuration(snap.TimeRemaining))
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		return false, err
	}

	select {
	case <-expired:
		return true, nil
	default:
		return false, nil
	}
}

// readLines forwards lines from r until EOF or until done is closed. A read
// already blocked on r only returns when r yields data or is closed.
func readLines(r io.Reader, done <-chan struct{}) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case ch <- scanner.Text():
			case <-done:
				return
			}
		}
	}()
	return ch
}

// Status is the printed session state
type Status struct {
	Authenticated bool   `json:"authenticated" yaml:"authenticated"`
	UserName      string `json:"user_name" yaml:"user_name"`
	Timeout       string `json:"timeout" yaml:"timeout"`
	Warning       string `json:"warning" yaml:"warning"`
	PollInterval  string `json:"poll_interval" yaml:"poll_interval"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	a := app.New()
	cfg := a.SessionConfig()
	return format.Print(Status{
		Authenticated: a.Auth.IsAuthenticated(),
		UserName:      a.Auth.UserName(),
		Timeout:       appSession.FormatDuration(cfg.Timeout),
		Warning:       appSession.FormatDuration(cfg.WarningThreshold),
		PollInterval:  cfg.PollInterval.String(),
	})
}

func runExtend(cmd *cobra.Command, args []string) error {
	a := app.New()
	if !a.Auth.IsAuthenticated() {
		return fmt.Errorf("not logged in")
	}
	cfg, err := sessionConfig(cmd, a)
	if err != nil {
		return err
	}

	m := appSession.New(cfg, func() {}, appSession.WithLogger(a.Logger))
	m.Start()
	defer m.Stop()
	m.ResetTimer()

	format.PrintSuccess("✓ Session extended, %s until logout", m.FormatTimeRemaining())
	return nil
}

func init() {
	for _, c := range []*cobra.Command{watchCmd, extendCmd} {
		c.Flags().Duration("timeout", 0, "inactivity timeout (overrides session.timeout)")
		c.Flags().Duration("warning", 0, "warning threshold (overrides session.warning)")
	}

	SessionCmd.AddCommand(watchCmd)
	SessionCmd.AddCommand(statusCmd)
	SessionCmd.AddCommand(extendCmd)
}
