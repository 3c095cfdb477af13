package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/knamoah/kasabot/internal/config"
	"github.com/knamoah/kasabot/internal/knowledge"
	"github.com/knamoah/kasabot/internal/retry"
)

// refreshCmd fetches the knowledge base once and prints what it got.
// Useful for checking doc sharing settings and the website URL before
// running the bot.
var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch the knowledge base once and report what was retrieved",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(cfgFile)
		exitOnError(err)

		var sources []knowledge.Source
		for _, id := range cfg.Knowledge.DocIDs {
			sources = append(sources, &knowledge.GoogleDocSource{DocID: id})
		}
		if cfg.Knowledge.WebsiteURL != "" {
			sources = append(sources, &knowledge.WebsiteSource{URL: cfg.Knowledge.WebsiteURL})
		}
		if len(sources) == 0 {
			exitOnError(fmt.Errorf("no knowledge sources configured in %s", cfgFile))
		}

		policy := retry.Policy{
			MaxAttempts:     cfg.Knowledge.MaxFetchAttempts,
			InitialInterval: time.Second,
			MaxInterval:     10 * time.Second,
		}
		store := knowledge.NewStore()
		ref := knowledge.NewRefresher(store, sources, policy, cfg.Knowledge.FetchTimeout(), newLogger())

		start := time.Now()
		exitOnError(ref.Refresh(context.Background()))

		snap := store.Current()
		fmt.Printf("Fetched %d of %d sources in %s:\n", len(snap.Documents), len(sources), time.Since(start).Round(time.Millisecond))
		for _, doc := range snap.Documents {
			fmt.Printf("  %-50s %d chars\n", doc.SourceID, len(doc.Text))
		}
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}
