package cli

import (
	"github.com/spf13/cobra"

	"github.com/tacogips/frecency/internal/store"
)

// NewAddCommand creates the add command.
func NewAddCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <path>",
		Short: "Record a visit to path",
		Long:  "Record a visit to path at the current time and update its score. The path is stored as given.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd, opts, args[0])
		},
	}
}

func runAdd(cmd *cobra.Command, opts *RootOptions, path string) error {
	db, _, err := opts.openStore(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	at := opts.Now().UnixMilli()
	return store.WithSchema(db, func() error {
		return db.RecordVisit(path, at)
	})
}
