package main

import (
	"github.com/spf13/cobra"
)

func newResolveCmd(logStyle, logLevel *string) *cobra.Command {
	var locale string
	var keyFlags []string

	cmd := &cobra.Command{
		Use:   "resolve <spec-file>",
		Short: "Run the first resolve operation whose requirements match --key values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := newSource(args[0], locale, nil, *logStyle, *logLevel)
			if err != nil {
				return err
			}
			keys := parseKeyFlags(keyFlags)
			if missing, ok := src.MayResolve(keys); !ok && len(missing) > 0 {
				cmd.PrintErrf("note: supplying %v would let a resolve operation match\n", missing)
			}
			record, err := src.Resolve(cmd.Context(), "", keys)
			if err != nil {
				return err
			}
			return printRecords(cmd, record)
		},
	}
	cmd.Flags().StringVar(&locale, "locale", "", "active locale for %str:id% lookups")
	cmd.Flags().StringArrayVar(&keyFlags, "key", nil, "metadata key, as name=value (repeatable)")
	return cmd
}
