package main

import (
	"github.com/spf13/cobra"
)

func newValidateCmd(logStyle, logLevel *string) *cobra.Command {
	var locale string

	cmd := &cobra.Command{
		Use:   "validate <spec-file>",
		Short: "Parse and compile a spec document, reporting any structural error",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := loadSpec(args[0], locale, nil)
			if err != nil {
				return err
			}
			cmd.Printf("ok: %s (%s), %d operation(s)\n", spec.Name, spec.ID, len(spec.Operations))
			return nil
		},
	}
	cmd.Flags().StringVar(&locale, "locale", "", "active locale for %str:id% lookups")
	return cmd
}
