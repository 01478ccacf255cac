package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/ternarybob/govspend/internal/analytics"
	"github.com/ternarybob/govspend/internal/app"
	"github.com/ternarybob/govspend/internal/interfaces"
	"github.com/ternarybob/govspend/internal/services/analysis"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyse award records from a file",
	Long: `Runs the full portfolio pipeline over award records read from a JSON or YAML file and prints the report as JSON.
Records may be a bare array or wrapped in "records" or "results". Runs offline unless --enrich is set.`,
	RunE: runAnalyze,
}

var (
	analyzeInput     string
	analyzeOutput    string
	analyzeAsOf      string
	analyzeRevenue   []string
	analyzeRecipient string
	analyzeEnrich    bool
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeInput, "input", "i", "-", "Award records file (.json, .yaml, .yml) or - for stdin")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "Write the report to this file instead of stdout")
	analyzeCmd.Flags().StringVar(&analyzeAsOf, "as-of", "", "Reference date for renewal analysis (YYYY-MM-DD), defaults to today")
	analyzeCmd.Flags().StringArrayVar(&analyzeRevenue, "revenue", nil, "Known annual revenue as RECIPIENT=AMOUNT (repeatable)")
	analyzeCmd.Flags().StringVar(&analyzeRecipient, "recipient", "", "Only print the report for this recipient")
	analyzeCmd.Flags().BoolVar(&analyzeEnrich, "enrich", false, "Look up agency award histories from USAspending")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	asOf, err := analytics.ParseAsOf(analyzeAsOf)
	if err != nil {
		return err
	}
	revenue, err := parseRevenue(analyzeRevenue)
	if err != nil {
		return err
	}
	awards, err := readAwards(analyzeInput)
	if err != nil {
		return err
	}

	analyzer, err := analytics.NewAnalyzer(config.Analysis)
	if err != nil {
		return err
	}

	var source interfaces.AwardSource
	if analyzeEnrich {
		source = app.NewSource(&config.USAspending, logger)
	}
	service := analysis.NewService(analyzer, source, nil, config, logger)

	run, err := service.Analyze(context.Background(), interfaces.AnalyzeRequest{
		Awards:  awards,
		AsOf:    asOf,
		Revenue: revenue,
		Enrich:  analyzeEnrich,
	})
	if err != nil {
		return err
	}

	logger.Info().
		Str("run_id", run.RunID).
		Int("records", run.Overview.RecordCount).
		Int("portfolios", len(run.Portfolios)).
		Msg("Analysis complete")

	if analyzeRecipient == "" {
		return writeJSON(analyzeOutput, run)
	}

	report, ok := selectPortfolio(run.Portfolios, analyzeRecipient)
	if !ok {
		return fmt.Errorf("%w: %s", analysis.ErrRecipientNotFound, analyzeRecipient)
	}
	return writeJSON(analyzeOutput, interfaces.PortfolioRun{
		RunID:           run.RunID,
		GeneratedAt:     run.GeneratedAt,
		PortfolioReport: report,
	})
}

// selectPortfolio matches the recipient key first, then the display name ignoring case
func selectPortfolio(reports []analytics.PortfolioReport, recipient string) (analytics.PortfolioReport, bool) {
	recipient = strings.TrimSpace(recipient)
	for _, report := range reports {
		if report.Portfolio.Recipient == recipient {
			return report, true
		}
	}
	for _, report := range reports {
		if strings.EqualFold(report.Portfolio.RecipientName, recipient) {
			return report, true
		}
	}
	return analytics.PortfolioReport{}, false
}
