package main

import (
	"github.com/spf13/cobra"
)

func newBrowseCmd(logStyle, logLevel *string) *cobra.Command {
	var locale string
	var keyFlags []string
	var skip, count int

	cmd := &cobra.Command{
		Use:   "browse <spec-file>",
		Short: "Run the first browse operation whose requirements match --key values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := newSource(args[0], locale, nil, *logStyle, *logLevel)
			if err != nil {
				return err
			}
			records, err := src.Browse(cmd.Context(), "", parseKeyFlags(keyFlags), skip, count)
			if err != nil {
				return err
			}
			return printRecords(cmd, records)
		},
	}
	cmd.Flags().StringVar(&locale, "locale", "", "active locale for %str:id% lookups")
	cmd.Flags().StringArrayVar(&keyFlags, "key", nil, "metadata key, as name=value (repeatable)")
	cmd.Flags().IntVar(&skip, "skip", 0, "number of matched items to skip")
	cmd.Flags().IntVar(&count, "count", 0, "max number of items to return (0 = unbounded)")
	return cmd
}
