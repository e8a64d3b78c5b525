package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"stress-backend/internal/bootstrap"
	"stress-backend/internal/scoring"
	"stress-backend/internal/stress"
)

type catalogEntry struct {
	Key      string `json:"key"`
	Guidance string `json:"guidance"`
	Context  string `json:"context,omitempty"`
}

type rulesOutput struct {
	Locale  string         `json:"locale"`
	Rules   []string       `json:"rules"`
	Entries []catalogEntry `json:"entries"`
}

func newRulesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the active rules and the recommendation catalog.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.serviceConfig()
			engine, err := bootstrap.BuildEngine(cfg, scoring.Unconfigured{})
			if err != nil {
				return err
			}
			catalog, err := stress.LoadCatalog(cfg.RecommendationLocale)
			if err != nil {
				return err
			}

			plain := stress.ParseFormat(cfg.RecommendationFormat) == stress.FormatPlain
			out := rulesOutput{Locale: catalog.Locale, Rules: engine.Rules()}
			for _, key := range catalog.Keys() {
				e := catalog.Entries[key]
				entry := catalogEntry{Key: key, Guidance: e.Guidance}
				if !plain {
					entry.Context = e.Context
				}
				out.Entries = append(out.Entries, entry)
			}

			if a.output() == outputJSON {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Locale: %s\nActive rules: %v\n", out.Locale, out.Rules)
			rows := make([][]string, 0, len(out.Entries))
			for _, e := range out.Entries {
				rows = append(rows, []string{e.Key, e.Guidance, e.Context})
			}
			return renderTable(cmd.OutOrStdout(), []string{"Key", "Guidance", "Context"}, rows)
		},
	}
}
