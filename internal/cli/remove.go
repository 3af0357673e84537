package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tacogips/frecency/internal/cleanup"
	"github.com/tacogips/frecency/internal/store"
)

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <path>...",
		Short: "Forget paths and their visit history",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd, opts, args)
		},
	}
}

func runRemove(cmd *cobra.Command, opts *RootOptions, paths []string) error {
	db, _, err := opts.openStore(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	return store.WithSchema(db, func() error {
		return db.RemovePaths(paths)
	})
}

// NewRemoveNotExistsCommand creates the remove-not-exists command.
func NewRemoveNotExistsCommand(opts *RootOptions) *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "remove-not-exists",
		Short: "Forget paths that no longer exist on disk",
		Long:  "Check every recorded path and remove those whose file or directory is gone. Removed paths are printed one per line.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemoveNotExists(cmd, opts, workers)
		},
	}

	cmd.Flags().IntVar(&workers, "workers", cleanup.DefaultWorkers, "concurrent existence checks")
	return cmd
}

func runRemoveNotExists(cmd *cobra.Command, opts *RootOptions, workers int) error {
	db, logger, err := opts.openStore(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	var removed []string
	err = store.WithSchema(db, func() error {
		var err error
		removed, err = cleanup.RemoveNotExists(cmd.Context(), db, workers, logger)
		return err
	})
	if err != nil {
		return err
	}

	for _, p := range removed {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	return nil
}
