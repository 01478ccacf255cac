package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/govspend/internal/analytics"
	"github.com/ternarybob/govspend/internal/models"
)

// AnalyzeRequest is one analysis over caller-supplied raw awards
type AnalyzeRequest struct {
	Awards  []models.RawAward
	AsOf    time.Time          // zero means now
	Revenue map[string]float64 // recipient key or name -> annual revenue
	Enrich  bool               // look up agency histories before scoring
}

// AnalysisRun is an analytics report tagged with its run metadata
type AnalysisRun struct {
	RunID            string                     `json:"run_id"`
	GeneratedAt      time.Time                  `json:"generated_at"`
	EnrichedAgencies int                        `json:"enriched_agencies"`
	AgencyShapes     map[models.AgencyShape]int `json:"agency_shapes"`
	analytics.Report
}

// PortfolioRun is a single recipient report tagged with its run metadata
type PortfolioRun struct {
	RunID             string    `json:"run_id"`
	GeneratedAt       time.Time `json:"generated_at"`
	SnapshotFetchedAt time.Time `json:"snapshot_fetched_at"`
	analytics.PortfolioReport
}

// CompanySummary is the headline view of one recipient
type CompanySummary struct {
	Recipient        string              `json:"recipient"`
	RecipientName    string              `json:"recipient_name"`
	TotalAmount      float64             `json:"total_amount"`
	ContractCount    int                 `json:"contract_count"`
	UniqueAgencies   int                 `json:"unique_agencies"`
	TopAgency        string              `json:"top_agency,omitempty"`
	RiskScore        float64             `json:"risk_score"`
	RiskTier         analytics.RiskLevel `json:"risk_tier"`
	NearTermRenewals int                 `json:"near_term_renewals"`
}

// CompaniesView is the overview and recipient summaries of the cached snapshot
type CompaniesView struct {
	RunID             string                     `json:"run_id"`
	GeneratedAt       time.Time                  `json:"generated_at"`
	SnapshotFetchedAt time.Time                  `json:"snapshot_fetched_at"`
	Overview          analytics.SpendingOverview `json:"overview"`
	Companies         []CompanySummary           `json:"companies"`
}

// AnalysisService runs the analytics pipeline over supplied or cached awards
type AnalysisService interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (*AnalysisRun, error)
	Companies(ctx context.Context) (*CompaniesView, error)
	Company(ctx context.Context, recipient string, revenue float64) (*PortfolioRun, error)
	RefreshSnapshot(ctx context.Context) (*models.AwardSnapshot, error)
	Snapshots(ctx context.Context) ([]*models.AwardSnapshot, error)
	FetchAwards(ctx context.Context, recipientText string) ([]models.RawAward, error)
}
