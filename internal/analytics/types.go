// Package analytics derives portfolio analytics from normalized government award records.
// All computations are pure: they perform no I/O, hold no shared state and never
// mutate their inputs, so independent invocations may run concurrently.
package analytics

import (
	"time"

	"github.com/ternarybob/govspend/internal/models"
)

// RiskLevel is a discretized risk label
type RiskLevel string

const (
	RiskHigh   RiskLevel = "HIGH"
	RiskMedium RiskLevel = "MEDIUM"
	RiskLow    RiskLevel = "LOW"
)

// HistorySource records which classifier produced an agency history risk
type HistorySource string

const (
	HistorySourceHeuristic HistorySource = "heuristic"
	HistorySourceLookup    HistorySource = "history"
)

// CompanyPortfolio is the set of awards attributed to one recipient
type CompanyPortfolio struct {
	Recipient      string                       `json:"recipient"`
	RecipientName  string                       `json:"recipient_name"`
	TotalAmount    float64                      `json:"total_amount"`
	ContractCount  int                          `json:"contract_count"`
	LatestContract *models.AwardRecord          `json:"latest_contract,omitempty"`
	Records        []models.AwardRecord         `json:"-"`
	YearlyBuckets  map[int][]models.AwardRecord `json:"-"`
	Years          []int                        `json:"years"`
}

// SizeDistribution counts contracts per size bucket
type SizeDistribution struct {
	Small  int `json:"small"`
	Medium int `json:"medium"`
	Large  int `json:"large"`
}

// SizeDistributionPct is the size distribution as percentages of contract count
type SizeDistributionPct struct {
	Small  float64 `json:"small"`
	Medium float64 `json:"medium"`
	Large  float64 `json:"large"`
}

// MonthlyPoint is the award value for one calendar month
type MonthlyPoint struct {
	Period string  `json:"period"` // YYYY-MM
	Total  float64 `json:"total"`
	Count  int     `json:"count"`
}

// TrendPoint is a yearly or quarterly aggregate
type TrendPoint struct {
	Period        string   `json:"period"`
	Year          int      `json:"year"`
	Total         float64  `json:"total"`
	Count         int      `json:"count"`
	AverageSize   float64  `json:"average_size"`
	GrowthPercent *float64 `json:"growth_percent,omitempty"`
}

// ValueAnalysis is the output of the value and trend analyzer
type ValueAnalysis struct {
	AverageContractSize float64              `json:"average_contract_size"`
	YearOverYearGrowth  float64              `json:"year_over_year_growth"`
	SizeDistribution    SizeDistribution     `json:"size_distribution"`
	SizeDistributionPct SizeDistributionPct  `json:"size_distribution_pct"`
	MonthlyTrends       []MonthlyPoint       `json:"monthly_trends"`
	RecentMonths        []MonthlyPoint       `json:"recent_months"`
	YearlyTrends        []TrendPoint         `json:"yearly_trends"`
	QuarterlyTrends     []TrendPoint         `json:"quarterly_trends"`
	Competition         CompetitionBreakdown `json:"competition"`
}

// CompetitionBreakdown splits a portfolio into competitive and sole-source awards.
// SoleSourcePct is the sole-source share of classified awards; unknown ones are excluded.
type CompetitionBreakdown struct {
	Competitive      int     `json:"competitive"`
	SoleSource       int     `json:"sole_source"`
	Unknown          int     `json:"unknown"`
	CompetitiveValue float64 `json:"competitive_value"`
	SoleSourceValue  float64 `json:"sole_source_value"`
	SoleSourcePct    float64 `json:"sole_source_pct"`
}

// AgencyConcentration is one agency's share of a portfolio
type AgencyConcentration struct {
	AgencyName        string  `json:"agency_name"`
	ContractCount     int     `json:"contract_count"`
	TotalValue        float64 `json:"total_value"`
	PercentageOfTotal float64 `json:"percentage_of_total"`
}

// ConcentrationAnalysis is the output of the concentration analyzer
type ConcentrationAnalysis struct {
	Agencies               []AgencyConcentration `json:"agencies"`
	TopAgency              *AgencyConcentration  `json:"top_agency,omitempty"`
	TopAgencyConcentration float64               `json:"top_agency_concentration"`
	UniqueAgencies         int                   `json:"unique_agencies"`
	ContractConcentration  float64               `json:"contract_concentration"`
	RevenueProvided        bool                  `json:"revenue_provided"` // false: baseline approximation was used
}

// RiskFactors are the three independent renewal risk axes
type RiskFactors struct {
	TimeUntilExpiry RiskLevel `json:"time_until_expiry"`
	ContractSize    RiskLevel `json:"contract_size"`
	AgencyHistory   RiskLevel `json:"agency_history"`
}

// RenewalAnalysis describes one active contract approaching renewal
type RenewalAnalysis struct {
	ContractID          string        `json:"contract_id"`
	AgencyName          string        `json:"agency_name"`
	EndDate             time.Time     `json:"end_date"`
	Amount              float64       `json:"amount"`
	MonthsUntilRenewal  int           `json:"months_until_renewal"`
	RiskFactors         RiskFactors   `json:"risk_factors"`
	AgencyHistorySource HistorySource `json:"agency_history_source"`
}

// QuarterlyPerformance is the win-rate for one fiscal quarter bucket
type QuarterlyPerformance struct {
	Period        string  `json:"period"` // YYYY-Qn
	WinRate       float64 `json:"win_rate"`
	ContractCount int     `json:"contract_count"`
	WonCount      int     `json:"won_count"`
	TotalValue    float64 `json:"total_value"`
}

// HistoricalPerformance is the output of the historical performance analyzer
type HistoricalPerformance struct {
	TotalBids            int                    `json:"total_bids"`
	WonBids              int                    `json:"won_bids"`
	WinRate              float64                `json:"win_rate"`
	AverageContractValue float64                `json:"average_contract_value"`
	RecentTrends         []QuarterlyPerformance `json:"recent_trends"`
}

// RiskComponents are the sub-scores that sum to the composite score
type RiskComponents struct {
	Concentration float64 `json:"concentration"`
	Agency        float64 `json:"agency"`
	Renewal       float64 `json:"renewal"`
}

// RiskScore is the composite 0-100 portfolio risk
type RiskScore struct {
	Score            float64        `json:"score"`
	Tier             RiskLevel      `json:"tier"`
	Strategy         RiskStrategy   `json:"strategy"`
	Components       RiskComponents `json:"components"`
	NearTermRenewals int            `json:"near_term_renewals"`
	ActiveContracts  int            `json:"active_contracts"`
}

// PortfolioReport bundles every analysis for one recipient
type PortfolioReport struct {
	Portfolio     CompanyPortfolio      `json:"portfolio"`
	Value         ValueAnalysis         `json:"value"`
	Concentration ConcentrationAnalysis `json:"concentration"`
	Renewals      []RenewalAnalysis     `json:"renewals"`
	Performance   HistoricalPerformance `json:"performance"`
	Risk          RiskScore             `json:"risk"`
}

// SpendingOverview summarizes a whole record set
type SpendingOverview struct {
	RecordCount      int     `json:"record_count"`
	UndatedCount     int     `json:"undated_count"`
	TotalSpending    float64 `json:"total_spending"`
	AverageAward     float64 `json:"average_award"`
	UniqueAgencies   int     `json:"unique_agencies"`
	UniqueRecipients int     `json:"unique_recipients"`
}

// Report is the result of analysing a full record set
type Report struct {
	AsOf       time.Time         `json:"as_of"`
	Overview   SpendingOverview  `json:"overview"`
	Portfolios []PortfolioReport `json:"portfolios"`
}
