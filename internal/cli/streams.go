package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/reprise/internal/journal"
)

// NewStreamsCommand lists the streams in a journal database.
func NewStreamsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "streams <journal.db>",
		Short: "List the streams recorded in a journal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := journal.Open(args[0])
			if err != nil {
				return err
			}
			defer j.Close()

			infos, err := j.Streams(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.Format == "json" {
				enc := json.NewEncoder(out)
				for _, info := range infos {
					if err := enc.Encode(map[string]any{
						"id":          info.ID,
						"entity_kind": info.EntityKind,
						"created_at":  info.CreatedAt,
						"messages":    info.Messages,
					}); err != nil {
						return err
					}
				}
				return nil
			}

			for _, info := range infos {
				fmt.Fprintf(out, "%s  %-16s %4d messages  %s\n",
					info.ID, info.EntityKind, info.Messages, info.CreatedAt)
			}
			return nil
		},
	}
}
