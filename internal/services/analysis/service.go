package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/govspend/internal/analytics"
	"github.com/ternarybob/govspend/internal/common"
	"github.com/ternarybob/govspend/internal/interfaces"
	"github.com/ternarybob/govspend/internal/models"
)

var (
	// ErrRecipientNotFound is returned when a recipient has no awards in the snapshot
	ErrRecipientNotFound = errors.New("recipient not found")

	// ErrUpstreamUnavailable wraps failures of the award source
	ErrUpstreamUnavailable = errors.New("award source unavailable")

	// ErrNoAwardSource is returned by operations that need the upstream when none is configured
	ErrNoAwardSource = errors.New("no award source configured")
)

// Service provides the analysis operations behind the API and the CLI.
// source and storage are optional: without them enrichment and snapshots are unavailable
// and Analyze runs offline.
type Service struct {
	analyzer   *analytics.Analyzer
	source     interfaces.AwardSource
	snapshots  interfaces.SnapshotStorage
	histories  interfaces.AgencyHistoryStorage
	enrichment common.EnrichmentConfig
	upstream   common.USAspendingConfig
	maxAge     time.Duration
	logger     arbor.ILogger
	now        func() time.Time

	refreshMu sync.Mutex // serializes upstream snapshot fetches
}

// NewService creates a new analysis service
func NewService(
	analyzer *analytics.Analyzer,
	source interfaces.AwardSource,
	storage interfaces.StorageManager,
	config *common.Config,
	logger arbor.ILogger,
) *Service {
	s := &Service{
		analyzer:   analyzer,
		source:     source,
		enrichment: config.Enrichment,
		upstream:   config.USAspending,
		maxAge:     config.Snapshot.MaxAgeDuration(),
		logger:     logger,
		now:        time.Now,
	}
	if storage != nil {
		s.snapshots = storage.SnapshotStorage()
		s.histories = storage.AgencyHistoryStorage()
	}
	return s
}

// Analyze normalizes the supplied awards and runs the full pipeline.
// Malformed awards are defaulted rather than rejected, so only context errors are returned.
func (s *Service) Analyze(ctx context.Context, req interfaces.AnalyzeRequest) (*interfaces.AnalysisRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := analytics.NormalizeAll(req.Awards)
	shapes := countShapes(req.Awards)

	var histories map[string]models.AgencyHistory
	if req.Enrich {
		histories = s.enrich(ctx, records)
	}

	runID := common.NewRunID()
	report := s.analyzer.AnalyzeAll(records, analytics.Options{
		AsOf:            req.AsOf,
		Revenue:         req.Revenue,
		AgencyHistories: histories,
	})

	s.logger.Debug().
		Str("run_id", runID).
		Int("records", len(records)).
		Int("portfolios", len(report.Portfolios)).
		Int("flat_agency", shapes[models.AgencyShapeFlat]).
		Int("nested_agency", shapes[models.AgencyShapeNested]).
		Int("no_agency", shapes[models.AgencyShapeNone]).
		Int("enriched_agencies", len(histories)).
		Msg("Analysis completed")

	return &interfaces.AnalysisRun{
		RunID:            runID,
		GeneratedAt:      s.now().UTC(),
		EnrichedAgencies: len(histories),
		AgencyShapes:     shapes,
		Report:           report,
	}, nil
}

// countShapes tallies awards by agency shape; an unset shape counts as none
func countShapes(awards []models.RawAward) map[models.AgencyShape]int {
	shapes := make(map[models.AgencyShape]int, 3)
	for _, award := range awards {
		shape := award.Shape
		if shape == "" {
			shape = models.AgencyShapeNone
		}
		shapes[shape]++
	}
	return shapes
}

// Companies analyses the cached snapshot, refreshing it first when stale
func (s *Service) Companies(ctx context.Context) (*interfaces.CompaniesView, error) {
	snapshot, err := s.currentSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	run, err := s.Analyze(ctx, interfaces.AnalyzeRequest{
		Awards: snapshot.Awards,
		Enrich: s.enrichment.Enabled,
	})
	if err != nil {
		return nil, err
	}

	view := &interfaces.CompaniesView{
		RunID:             run.RunID,
		GeneratedAt:       run.GeneratedAt,
		SnapshotFetchedAt: snapshot.FetchedAt,
		Overview:          run.Overview,
		Companies:         make([]interfaces.CompanySummary, 0, len(run.Portfolios)),
	}
	for _, report := range run.Portfolios {
		view.Companies = append(view.Companies, summarize(report))
	}

	return view, nil
}

// Company analyses one recipient from the cached snapshot.
// recipient matches the recipient key exactly or the recipient name case-insensitively.
// A positive revenue replaces the baseline approximation.
func (s *Service) Company(ctx context.Context, recipient string, revenue float64) (*interfaces.PortfolioRun, error) {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return nil, ErrRecipientNotFound
	}

	snapshot, err := s.currentSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	records := analytics.NormalizeAll(snapshot.Awards)
	portfolio, ok := findPortfolio(analytics.Aggregate(records), recipient)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRecipientNotFound, recipient)
	}

	opts := analytics.Options{}
	if revenue > 0 {
		opts.Revenue = map[string]float64{portfolio.Recipient: revenue}
	}
	if s.enrichment.Enabled {
		opts.AgencyHistories = s.enrich(ctx, portfolio.Records)
	}

	run := &interfaces.PortfolioRun{
		RunID:             common.NewRunID(),
		GeneratedAt:       s.now().UTC(),
		SnapshotFetchedAt: snapshot.FetchedAt,
		PortfolioReport:   s.analyzer.AnalyzePortfolio(portfolio, opts),
	}

	s.logger.Debug().
		Str("run_id", run.RunID).
		Str("recipient", portfolio.Recipient).
		Float64("risk_score", run.Risk.Score).
		Msg("Company analysis completed")

	return run, nil
}

func findPortfolio(portfolios analytics.Portfolios, recipient string) (analytics.CompanyPortfolio, bool) {
	if p, ok := portfolios.Find(recipient); ok {
		return p, true
	}
	for _, p := range portfolios {
		if strings.EqualFold(p.RecipientName, recipient) {
			return p, true
		}
	}
	return analytics.CompanyPortfolio{}, false
}

func summarize(report analytics.PortfolioReport) interfaces.CompanySummary {
	summary := interfaces.CompanySummary{
		Recipient:        report.Portfolio.Recipient,
		RecipientName:    report.Portfolio.RecipientName,
		TotalAmount:      report.Portfolio.TotalAmount,
		ContractCount:    report.Portfolio.ContractCount,
		UniqueAgencies:   report.Concentration.UniqueAgencies,
		RiskScore:        report.Risk.Score,
		RiskTier:         report.Risk.Tier,
		NearTermRenewals: report.Risk.NearTermRenewals,
	}
	if report.Concentration.TopAgency != nil {
		summary.TopAgency = report.Concentration.TopAgency.AgencyName
	}
	return summary
}
