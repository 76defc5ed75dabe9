package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/streamcheck/streamcheck/internal/journal"
	"github.com/streamcheck/streamcheck/internal/record"
)

// NewInspectCommand creates the "inspect" command: list journal
// sessions or dump one session's captured events.
func NewInspectCommand(opts *RootOptions) *cobra.Command {
	var session string

	cmd := &cobra.Command{
		Use:           "inspect",
		Short:         "Inspect journaled capture sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, opts, session)
		},
	}

	cmd.Flags().StringVar(&session, "session", "", "dump this session's events instead of listing sessions")

	return cmd
}

func runInspect(cmd *cobra.Command, opts *RootOptions, session string) error {
	ctx := cmd.Context()

	j, err := journal.Open(opts.Journal)
	if err != nil {
		return WrapExitError(ExitCommandError, "open journal", err)
	}
	defer j.Close()

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	if session == "" {
		sessions, err := j.Sessions(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "list sessions", err)
		}
		if opts.Format == "json" {
			return out.Success(sessions)
		}
		for _, s := range sessions {
			fmt.Fprintln(cmd.OutOrStdout(), s)
		}
		return nil
	}

	events, err := j.ReadSession(ctx, session)
	if err != nil {
		return WrapExitError(ExitCommandError, "read session", err)
	}

	type eventView struct {
		Topic  string `json:"topic"`
		Record string `json:"record"`
	}
	views := make([]eventView, 0, len(events))
	for _, ev := range events {
		data, err := record.MarshalCanonical(ev.Record)
		if err != nil {
			return WrapExitError(ExitCommandError, "render record", err)
		}
		views = append(views, eventView{Topic: ev.Topic, Record: string(data)})
	}

	if opts.Format == "json" {
		return out.Success(views)
	}
	for _, v := range views {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", v.Topic, v.Record)
	}
	return nil
}
