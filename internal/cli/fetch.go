package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/tacogips/frecency/internal/store"
)

// FetchOptions holds flags for the fetch command.
type FetchOptions struct {
	*RootOptions
	Asc             bool
	Limit           int
	WithScore       bool
	SortByLastVisit bool
	Format          string
}

// NewFetchCommand creates the fetch command.
func NewFetchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FetchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "List paths ranked by frecency",
		Long: `List recorded paths, highest score first.

--limit keeps the top N entries; --asc then reverses them so the best
match ends up last. --sort-by-last-visit ranks by most recent visit instead.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.Limit < 0 {
				return fmt.Errorf("invalid limit %d: must not be negative", opts.Limit)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Asc, "asc", "a", false, "lowest ranked first")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "l", 0, "maximum number of entries (0 for all)")
	cmd.Flags().BoolVarP(&opts.WithScore, "with-score", "w", false, "print scores")
	cmd.Flags().BoolVar(&opts.SortByLastVisit, "sort-by-last-visit", false, "rank by most recent visit")
	cmd.Flags().StringVar(&opts.Format, "format", "text", "output format (text|json)")

	return cmd
}

func runFetch(cmd *cobra.Command, opts *FetchOptions) error {
	db, _, err := opts.openStore(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	var entries []store.Entry
	err = store.WithSchema(db, func() error {
		var err error
		if opts.SortByLastVisit {
			entries, err = db.ListByLastVisit(opts.Limit)
		} else {
			entries, err = db.ListByScore(opts.Limit)
		}
		return err
	})
	if err != nil {
		return err
	}

	if opts.Asc {
		slices.Reverse(entries)
	}

	f := &EntryFormatter{
		Format:        opts.Format,
		Writer:        cmd.OutOrStdout(),
		WithScore:     opts.WithScore,
		WithLastVisit: opts.SortByLastVisit,
		Now:           opts.Now,
	}
	return f.Write(entries)
}
