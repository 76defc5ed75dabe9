package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/streamcheck/streamcheck/internal/harness"
	"github.com/streamcheck/streamcheck/internal/journal"
)

// NewVerifyCommand creates the "verify" command: replay a journaled
// capture session through the structural verifier.
func NewVerifyCommand(opts *RootOptions) *cobra.Command {
	var session string

	cmd := &cobra.Command{
		Use:   "verify <scenario.yaml>",
		Short: "Verify a journaled capture session against a scenario",
		Long: "Loads a YAML scenario, replays the given journal session through\n" +
			"a capture buffer, and verifies every captured record against the\n" +
			"scenario's expectation trees.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, opts, args[0], session)
		},
	}

	cmd.Flags().StringVar(&session, "session", "", "journal session id (defaults to the most recent)")

	return cmd
}

func runVerify(cmd *cobra.Command, opts *RootOptions, scenarioPath, session string) error {
	ctx := cmd.Context()

	scenario, err := harness.LoadScenario(scenarioPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "load scenario", err)
	}

	j, err := journal.Open(opts.Journal)
	if err != nil {
		return WrapExitError(ExitCommandError, "open journal", err)
	}
	defer j.Close()

	if session == "" {
		if session, err = latestSession(cmd, j); err != nil {
			return err
		}
	}

	source, err := j.Replay(ctx, session)
	if err != nil {
		return WrapExitError(ExitCommandError, "load session", err)
	}

	result, err := harness.Run(ctx, scenario, source, harness.Options{})
	if err != nil {
		return WrapExitError(ExitCommandError, "run scenario", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if !result.Pass {
		if err := out.Failure(fmt.Sprintf("scenario %s failed", scenario.Name), strings.Join(result.Errors, "\n")); err != nil {
			return err
		}
		return WrapExitError(ExitFailure, "verification failed", nil)
	}

	return out.Success(fmt.Sprintf("scenario %s passed (%d events)", scenario.Name, len(result.Events)))
}

// latestSession picks the most recent session in the journal. UUIDv7
// ids sort by creation time, so the last one is the newest.
func latestSession(cmd *cobra.Command, j *journal.Journal) (string, error) {
	sessions, err := j.Sessions(cmd.Context())
	if err != nil {
		return "", WrapExitError(ExitCommandError, "list sessions", err)
	}
	if len(sessions) == 0 {
		return "", WrapExitError(ExitCommandError, "journal has no sessions", nil)
	}
	return sessions[len(sessions)-1], nil
}
