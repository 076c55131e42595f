// Command xmlsourcectl exercises a spec document from the command line,
// independent of any host media framework - useful for authoring and
// debugging a source definition before wiring it into one.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logStyle, logLevel string

	root := &cobra.Command{
		Use:           "xmlsourcectl",
		Short:         "Inspect and exercise an XML media-source spec document",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logStyle, "log-style", "terminal", "log encoder: terminal, json, logfmt, noop")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level")

	root.AddCommand(
		newValidateCmd(&logStyle, &logLevel),
		newBrowseCmd(&logStyle, &logLevel),
		newSearchCmd(&logStyle, &logLevel),
		newResolveCmd(&logStyle, &logLevel),
	)
	return root
}
