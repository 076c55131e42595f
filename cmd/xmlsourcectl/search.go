package main

import (
	"github.com/spf13/cobra"
)

func newSearchCmd(logStyle, logLevel *string) *cobra.Command {
	var locale string
	var skip, count int

	cmd := &cobra.Command{
		Use:   "search <spec-file> <text>",
		Short: "Run the source's declared search operation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := newSource(args[0], locale, nil, *logStyle, *logLevel)
			if err != nil {
				return err
			}
			records, err := src.Search(cmd.Context(), "", args[1], skip, count)
			if err != nil {
				return err
			}
			return printRecords(cmd, records)
		},
	}
	cmd.Flags().StringVar(&locale, "locale", "", "active locale for %str:id% lookups")
	cmd.Flags().IntVar(&skip, "skip", 0, "number of matched items to skip")
	cmd.Flags().IntVar(&count, "count", 0, "max number of items to return (0 = unbounded)")
	return cmd
}
