package analytics

import (
	"fmt"
	"time"

	"github.com/ternarybob/govspend/internal/models"
)

// Options are the per-invocation parameters of an analysis.
// A zero AsOf means "now", resolved once per invocation.
type Options struct {
	AsOf            time.Time
	Revenue         map[string]float64              // keyed by recipient key or recipient name
	AgencyHistories map[string]models.AgencyHistory // keyed by agency id
}

// resolve returns a copy with AsOf fixed to a UTC instant
func (o Options) resolve() Options {
	if o.AsOf.IsZero() {
		o.AsOf = time.Now().UTC()
	} else {
		o.AsOf = o.AsOf.UTC()
	}
	return o
}

// revenueFor returns the supplied revenue for a portfolio, or 0
func (o Options) revenueFor(p CompanyPortfolio) float64 {
	if revenue, ok := o.Revenue[p.Recipient]; ok {
		return revenue
	}
	if p.RecipientName != "" {
		return o.Revenue[p.RecipientName]
	}
	return 0
}

// Analyzer runs the full pipeline: aggregate, analyze, score
type Analyzer struct {
	config        Config
	value         *ValueAnalyzer
	concentration *ConcentrationAnalyzer
	renewal       *RenewalAnalyzer
	performance   *PerformanceAnalyzer
	risk          *RiskScorer
}

// NewAnalyzer validates the configuration and builds the pipeline
func NewAnalyzer(config Config) (*Analyzer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("failed to create analyzer: %w", err)
	}

	return &Analyzer{
		config:        config,
		value:         NewValueAnalyzer(config.Size),
		concentration: NewConcentrationAnalyzer(config.Concentration),
		renewal:       NewRenewalAnalyzer(config.Renewal),
		performance:   NewPerformanceAnalyzer(),
		risk:          NewRiskScorer(config.Risk),
	}, nil
}

// Config returns the validated configuration
func (a *Analyzer) Config() Config {
	return a.config
}

// AnalyzeAll produces the overview and one report per recipient, largest first
func (a *Analyzer) AnalyzeAll(records []models.AwardRecord, opts Options) Report {
	opts = opts.resolve()

	portfolios := Aggregate(records)
	report := Report{
		AsOf:       opts.AsOf,
		Overview:   Overview(records),
		Portfolios: make([]PortfolioReport, 0, len(portfolios)),
	}

	for _, p := range portfolios {
		report.Portfolios = append(report.Portfolios, a.AnalyzePortfolio(p, opts))
	}

	return report
}

// AnalyzePortfolio runs every analyzer for one portfolio
func (a *Analyzer) AnalyzePortfolio(p CompanyPortfolio, opts Options) PortfolioReport {
	opts = opts.resolve()
	revenue := opts.revenueFor(p)

	value := a.value.Analyze(p)
	concentration := a.concentration.Analyze(p, revenue)
	renewals := a.renewal.Analyze(p.Records, opts.AsOf, opts.AgencyHistories)
	performance := a.performance.Analyze(p.Records)

	risk := a.risk.Score(RiskInputs{
		ContractConcentration:  concentration.ContractConcentration,
		TopAgencyConcentration: concentration.TopAgencyConcentration,
		NearTermRenewals:       CountNearTerm(renewals, a.config.Renewal.NearTermMonths),
		TotalContracts:         p.ContractCount,
		TotalAmount:            p.TotalAmount,
		Revenue:                revenue,
		UniqueAgencies:         concentration.UniqueAgencies,
		ActiveContracts:        CountActive(p.Records, opts.AsOf),
	})

	return PortfolioReport{
		Portfolio:     p,
		Value:         value,
		Concentration: concentration,
		Renewals:      renewals,
		Performance:   performance,
		Risk:          risk,
	}
}
