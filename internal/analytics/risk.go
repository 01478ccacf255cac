package analytics

import (
	"time"

	"github.com/ternarybob/govspend/internal/models"
)

// RiskStrategy selects how the composite score combines its inputs
type RiskStrategy string

const (
	// StrategyMultiplicative weights each dampened factor; the default
	StrategyMultiplicative RiskStrategy = "multiplicative"
	// StrategyAdditive starts from a baseline and adds fixed adjustments
	StrategyAdditive RiskStrategy = "additive"
)

// Additive strategy adjustments
const (
	additiveBaseline = 20.0

	additiveHighConcentration    = 30.0
	additiveHighConcentrationAdd = 25.0
	additiveMidConcentration     = 10.0
	additiveMidConcentrationAdd  = 10.0

	additiveHighAgency    = 50.0
	additiveHighAgencyAdd = 25.0
	additiveMidAgency     = 25.0
	additiveMidAgencyAdd  = 10.0

	additiveHighRenewal    = 0.5
	additiveHighRenewalAdd = 20.0
	additiveMidRenewal     = 0.25
	additiveMidRenewalAdd  = 10.0

	additiveDiversityCredit = 10.0
	additiveScaleCredit     = 5.0
)

// RiskInputs are the portfolio facts the scorer needs
type RiskInputs struct {
	ContractConcentration  float64 `json:"contract_concentration"`
	TopAgencyConcentration float64 `json:"top_agency_concentration"`
	NearTermRenewals       int     `json:"near_term_renewals"`
	TotalContracts         int     `json:"total_contracts"`
	TotalAmount            float64 `json:"total_amount"`
	Revenue                float64 `json:"revenue"` // 0 when not supplied
	UniqueAgencies         int     `json:"unique_agencies"`
	ActiveContracts        int     `json:"active_contracts"`
}

// RiskScorer combines concentration, agency dependence and renewal pressure into one score
type RiskScorer struct {
	config RiskConfig
}

// NewRiskScorer creates a scorer
func NewRiskScorer(config RiskConfig) *RiskScorer {
	return &RiskScorer{config: config}
}

// Score computes the composite score, always within [0,100]
func (s *RiskScorer) Score(in RiskInputs) RiskScore {
	var components RiskComponents
	strategy := s.config.Strategy

	switch strategy {
	case StrategyAdditive:
		components = s.additive(in)
	default:
		strategy = StrategyMultiplicative
		components = s.multiplicative(in)
	}

	score := round(clamp(components.Concentration+components.Agency+components.Renewal, 0, 100), 2)

	return RiskScore{
		Score:            score,
		Tier:             s.Tier(score),
		Strategy:         strategy,
		Components:       components,
		NearTermRenewals: in.NearTermRenewals,
		ActiveContracts:  in.ActiveContracts,
	}
}

// Tier maps a score to LOW, MEDIUM or HIGH
func (s *RiskScorer) Tier(score float64) RiskLevel {
	switch {
	case score <= s.config.LowTierMax:
		return RiskLow
	case score <= s.config.MediumTierMax:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// multiplicative: weight x min(factor x dampening, 100) per axis
func (s *RiskScorer) multiplicative(in RiskInputs) RiskComponents {
	cfg := s.config

	revenue := in.Revenue
	if revenue <= 0 {
		revenue = in.TotalAmount
	}
	sizeDamp := 1.0
	if revenue > cfg.SizeThreshold {
		sizeDamp = cfg.SizeDampening
	}

	diversityDamp := 1.0
	if in.UniqueAgencies > cfg.DiversityThreshold {
		diversityDamp = cfg.DiversityDampening
	}

	scaleDamp := 1.0
	if in.ActiveContracts > cfg.ScaleThreshold {
		scaleDamp = cfg.ScaleDampening
	}

	renewalPct := percentOf(float64(in.NearTermRenewals), float64(in.TotalContracts))

	return RiskComponents{
		Concentration: cfg.WeightConcentration * clamp(in.ContractConcentration*sizeDamp, 0, 100),
		Agency:        cfg.WeightAgency * clamp(in.TopAgencyConcentration*diversityDamp, 0, 100),
		Renewal:       cfg.WeightRenewal * clamp(renewalPct*scaleDamp, 0, 100),
	}
}

// additive: baseline plus fixed adjustments; the baseline is reported under concentration
func (s *RiskScorer) additive(in RiskInputs) RiskComponents {
	components := RiskComponents{Concentration: additiveBaseline}

	switch {
	case in.ContractConcentration > additiveHighConcentration:
		components.Concentration += additiveHighConcentrationAdd
	case in.ContractConcentration > additiveMidConcentration:
		components.Concentration += additiveMidConcentrationAdd
	}

	switch {
	case in.TopAgencyConcentration > additiveHighAgency:
		components.Agency += additiveHighAgencyAdd
	case in.TopAgencyConcentration > additiveMidAgency:
		components.Agency += additiveMidAgencyAdd
	}
	if in.UniqueAgencies > s.config.DiversityThreshold {
		components.Agency -= additiveDiversityCredit
	}

	ratio := safeDiv(float64(in.NearTermRenewals), float64(in.TotalContracts))
	switch {
	case ratio > additiveHighRenewal:
		components.Renewal += additiveHighRenewalAdd
	case ratio > additiveMidRenewal:
		components.Renewal += additiveMidRenewalAdd
	}
	if in.ActiveContracts > s.config.ScaleThreshold {
		components.Renewal -= additiveScaleCredit
	}

	return components
}

// CountActive counts records whose end date is after asOf
func CountActive(records []models.AwardRecord, asOf time.Time) int {
	active := 0
	for _, record := range records {
		if record.Period.End.After(asOf) {
			active++
		}
	}
	return active
}

// CountNearTerm counts renewals due within the given number of months
func CountNearTerm(renewals []RenewalAnalysis, months int) int {
	count := 0
	for _, renewal := range renewals {
		if renewal.MonthsUntilRenewal <= months {
			count++
		}
	}
	return count
}
