package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/reprise/internal/journal"
	"github.com/roach88/reprise/msg"
)

// NewValidateCommand checks a stream against the log's structural
// invariants: offset discipline, request/response pairing, and trigger
// uniqueness.
func NewValidateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <journal.db> <stream>",
		Short: "Check a stream's offset and pairing invariants",
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

			out := cmd.OutOrStdout()
			if err := msg.ValidateLog(msgs); err != nil {
				var logErr *msg.LogError
				if errors.As(err, &logErr) && opts.Format == "json" {
					fmt.Fprintf(out, `{"valid":false,"fault":%q,"reason":%q}`+"\n",
						logErr.Fault, logErr.Reason)
					return fmt.Errorf("stream %s is invalid", args[1])
				}
				return fmt.Errorf("stream %s is invalid: %w", args[1], err)
			}

			if opts.Format == "json" {
				fmt.Fprintf(out, `{"valid":true,"messages":%d}`+"\n", len(msgs))
			} else {
				fmt.Fprintf(out, "stream %s: %d messages, invariants hold\n", args[1], len(msgs))
			}
			return nil
		},
	}
}
