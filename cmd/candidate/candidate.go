package candidate

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/verifydesk/cli/internal/app"
	"github.com/verifydesk/cli/internal/format"
	"github.com/verifydesk/cli/internal/intake"
)

// CandidateCmd represents the candidate command
var CandidateCmd = &cobra.Command{
	Use:   "candidate",
	Short: "Candidate intake commands",
	Long: `Candidate intake commands for VerifyDesk CLI.

A candidate is described by a YAML manifest holding the basic
information and the data of every selected verification type. Start
from "candidate template", fill it in, then run "candidate add".`,
}

// typesCmd lists the verification catalog
var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List verification types",
	Long:  "List the verification types a candidate can be checked for",
	RunE:  runTypes,
}

// templateCmd prints an empty manifest
var templateCmd = &cobra.Command{
	Use:   "template <type>...",
	Short: "Print an empty intake manifest",
	Long: `Print an empty intake manifest for the given verification types,
with every field present. Use "all" for the whole catalog.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTemplate,
}

// addCmd submits a candidate
var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Submit a candidate from a manifest",
	Long: `Create the candidate and upload every verification record of the
manifest, one request at a time in the order the types are listed. The
first failing request stops the submission; the steps that were not
attempted are reported as skipped.`,
	RunE: runAdd,
}

func runTypes(cmd *cobra.Command, args []string) error {
	return format.Print(intake.CatalogTable(intake.Catalog))
}

func parseTypes(args []string) ([]intake.Type, error) {
	if len(args) == 1 && strings.EqualFold(args[0], "all") {
		types := make([]intake.Type, len(intake.Catalog))
		for i, d := range intake.Catalog {
			types[i] = d.ID
		}
		return types, nil
	}

	var types []intake.Type
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			t, err := intake.ParseType(part)
			if err != nil {
				return nil, err
			}
			types = append(types, t)
		}
	}
	return types, nil
}

func runTemplate(cmd *cobra.Command, args []string) error {
	types, err := parseTypes(args)
	if err != nil {
		return err
	}

	out := io.Writer(os.Stdout)
	if path, _ := cmd.Flags().GetString("file"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer f.Close()
		out = f
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(intake.TemplateManifest(types)); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return enc.Close()
}

func runAdd(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	yes, _ := cmd.Flags().GetBool("yes")

	a := app.New()
	if !dryRun && !a.Auth.IsAuthenticated() {
		return fmt.Errorf("not logged in")
	}

	manifest, err := intake.LoadManifest(path)
	if err != nil {
		return err
	}

	in := a.NewIntake()
	if err := manifest.Apply(in, filepath.Dir(path)); err != nil {
		return fmt.Errorf("invalid manifest: %w", err)
	}

	plan, err := in.Plan()
	if err != nil {
		return fmt.Errorf("invalid manifest: %w", err)
	}
	if dryRun {
		return format.Print(plan)
	}

	if !yes {
		ok, err := confirm(cmd.InOrStdin(), fmt.Sprintf("Submit %s with %d request(s)? [y/N]: ",
			in.BasicInfo().Name, len(plan.Steps)))
		if err != nil {
			return err
		}
		if !ok {
			format.PrintInfo("Submission cancelled")
			return nil
		}
	}

	return submit(cmd.Context(), a, in)
}

func submit(ctx context.Context, a *app.App, in *intake.Intake) error {
	name := in.BasicInfo().Name
	format.PrintInfo("Submitting %s...", name)

	sub, err := in.Submit(ctx)
	if err != nil {
		if sub != nil {
			if perr := format.Print(sub); perr != nil {
				a.Logger.Warn("failed to print submission", "error", perr)
			}
		}
		recordFailure(a, name, err)
		return err
	}

	if err := format.Print(sub); err != nil {
		return err
	}
	format.PrintSuccess("✓ Candidate %s submitted (id %s)", name, sub.CandidateID)
	if err := a.Notifications.Success("Verification Submitted",
		fmt.Sprintf("Candidate %s was submitted with %d verification request(s).", name, len(sub.Steps)-1)); err != nil {
		a.Logger.Warn("failed to record notification", "error", err)
	}

	select {
	case <-ctx.Done():
	case <-time.After(a.Config.Intake.SuccessDelay):
	}
	return in.Discard()
}

func recordFailure(a *app.App, name string, err error) {
	msg := fmt.Sprintf("Submission of %s failed: %v", name, err)

	var serr *intake.SubmissionError
	if errors.As(err, &serr) {
		msg = fmt.Sprintf("Submission of %s failed at %q.", name, serr.Step.Name)
		if serr.CandidateID != "" {
			msg += fmt.Sprintf(" Candidate %s was created and has incomplete verifications.", serr.CandidateID)
		}
	}

	if nerr := a.Notifications.Alert("Submission Failed", msg); nerr != nil {
		a.Logger.Warn("failed to record notification", "error", nerr)
	}
}

func confirm(r io.Reader, question string) (bool, error) {
	fmt.Print(question)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func init() {
	templateCmd.Flags().StringP("file", "f", "", "write the manifest to a file instead of stdout")

	addCmd.Flags().StringP("file", "f", "", "intake manifest (YAML)")
	addCmd.Flags().Bool("dry-run", false, "print the planned requests without submitting")
	addCmd.Flags().BoolP("yes", "y", false, "submit without asking for confirmation")
	addCmd.MarkFlagRequired("file")

	CandidateCmd.AddCommand(typesCmd)
	CandidateCmd.AddCommand(templateCmd)
	CandidateCmd.AddCommand(addCmd)
}
