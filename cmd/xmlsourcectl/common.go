package main

import (
	"fmt"
	"os"

	"github.com/antflydb/xmlsource/internal/jsonenc"
	"github.com/antflydb/xmlsource/internal/logging"
	"github.com/antflydb/xmlsource/internal/specdoc"
	"github.com/antflydb/xmlsource/pkg/mediasource"
	"github.com/spf13/cobra"
)

func loadSpec(path, locale string, config map[string]string) (*specdoc.Specification, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spec document: %w", err)
	}
	spec, err := specdoc.Parse(data, specdoc.RuntimeOptions{Locale: locale, ConfigValues: config})
	if err != nil {
		return nil, err
	}
	return spec, nil
}

func newSource(path, locale string, config map[string]string, logStyle, logLevel string) (*mediasource.Source, error) {
	spec, err := loadSpec(path, locale, config)
	if err != nil {
		return nil, err
	}
	log := logging.NewLogger(&logging.Config{Style: logging.Style(logStyle), Level: logLevel})
	return mediasource.New(mediasource.Config{Spec: spec, Logger: log})
}

// fakeKeys adapts a flat map into expand.MediaKeys / match.Requirements
// lookups for CLI-supplied --key flags.
type fakeKeys map[string]any

func (f fakeKeys) Key(name string) (any, bool) {
	v, ok := f[name]
	return v, ok
}

func parseKeyFlags(pairs []string) fakeKeys {
	keys := make(fakeKeys, len(pairs))
	for _, p := range pairs {
		for i := 0; i < len(p); i++ {
			if p[i] == '=' {
				keys[p[:i]] = p[i+1:]
				break
			}
		}
	}
	return keys
}

func printRecords(cmd *cobra.Command, records any) error {
	out, err := jsonenc.Marshal(records)
	if err != nil {
		return err
	}
	cmd.Println(string(out))
	return nil
}
