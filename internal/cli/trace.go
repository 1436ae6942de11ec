package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/reprise/internal/journal"
)

// NewTraceCommand prints a stream's messages in offset order.
func NewTraceCommand(opts *RootOptions) *cobra.Command {
	var traceOffset int64

	cmd := &cobra.Command{
		Use:   "trace <journal.db> <stream>",
		Short: "Print a stream's messages in offset order",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := journal.Open(args[0])
			if err != nil {
				return err
			}
			defer j.Close()

			msgs, err := j.Load(cmd.Context(), args[1])
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("trace-offset") {
				msgs = filterTrace(msgs, traceOffset)
			}

			return writeMessages(cmd.OutOrStdout(), opts.Format, msgs)
		},
	}

	cmd.Flags().Int64Var(&traceOffset, "trace-offset", 0,
		"only show the causal chain rooted at this top-level request offset")
	return cmd
}
