package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/ternarybob/govspend/internal/analytics"
	"github.com/ternarybob/govspend/internal/app"
	"github.com/ternarybob/govspend/internal/services/analysis"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download contract awards from USAspending",
	Long:  `Searches USAspending for contract awards inside the configured lookback window and writes them as JSON that "analyze" accepts.`,
	RunE:  runFetch,
}

var (
	fetchRecipient string
	fetchOutput    string
)

func init() {
	fetchCmd.Flags().StringVar(&fetchRecipient, "recipient", "", "Recipient search text (defaults to usaspending.recipient_search)")
	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", "", "Write awards to this file instead of stdout")
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	analyzer, err := analytics.NewAnalyzer(config.Analysis)
	if err != nil {
		return err
	}
	service := analysis.NewService(analyzer, app.NewSource(&config.USAspending, logger), nil, config, logger)

	recipient := fetchRecipient
	if recipient == "" {
		recipient = config.USAspending.RecipientSearch
	}

	awards, err := service.FetchAwards(ctx, recipient)
	if err != nil {
		return err
	}

	logger.Info().
		Str("recipient", recipient).
		Int("awards", len(awards)).
		Msg("Fetched awards")

	return writeJSON(fetchOutput, map[string]interface{}{
		"records": awards,
	})
}
