package analytics

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

// Config holds every threshold and weight used by the pipeline.
// Invalid configurations are rejected by Validate so that NewAnalyzer fails fast.
type Config struct {
	Size          SizeConfig          `toml:"size" json:"size"`
	Concentration ConcentrationConfig `toml:"concentration" json:"concentration"`
	Renewal       RenewalConfig       `toml:"renewal" json:"renewal"`
	Risk          RiskConfig          `toml:"risk" json:"risk"`
}

// SizeConfig holds the contract size bucket boundaries
type SizeConfig struct {
	SmallBelow     float64 `toml:"small_below" json:"small_below" validate:"gt=0"`
	LargeAtOrAbove float64 `toml:"large_at_or_above" json:"large_at_or_above" validate:"gtfield=SmallBelow"`
	RecentMonths   int     `toml:"recent_months" json:"recent_months" validate:"gte=0"`
}

// ConcentrationConfig holds the company-vs-baseline settings
type ConcentrationConfig struct {
	// Baseline is the revenue stand-in used when no revenue figure is supplied.
	// The resulting ratio is an approximation, not a ground-truth concentration.
	Baseline float64 `toml:"baseline" json:"baseline" validate:"gt=0"`
}

// RenewalConfig holds the active filter and risk factor thresholds
type RenewalConfig struct {
	GraceDays          int     `toml:"grace_days" json:"grace_days" validate:"gte=0"`
	MonthDays          int     `toml:"month_days" json:"month_days" validate:"gt=0"`
	HighExpiryMonths   int     `toml:"high_expiry_months" json:"high_expiry_months" validate:"gte=0"`
	MediumExpiryMonths int     `toml:"medium_expiry_months" json:"medium_expiry_months" validate:"gtefield=HighExpiryMonths"`
	NearTermMonths     int     `toml:"near_term_months" json:"near_term_months" validate:"gte=0"`
	HighSizeAmount     float64 `toml:"high_size_amount" json:"high_size_amount" validate:"gt=0"`
	MediumSizeAmount   float64 `toml:"medium_size_amount" json:"medium_size_amount" validate:"gt=0,ltfield=HighSizeAmount"`

	DefenseTokens []string `toml:"defense_tokens" json:"defense_tokens" validate:"dive,required"`

	// Agency history classifier thresholds
	HistoryLowAwardCount     int     `toml:"history_low_award_count" json:"history_low_award_count" validate:"gte=0"`
	HistoryLowObligations    float64 `toml:"history_low_obligations" json:"history_low_obligations" validate:"gte=0"`
	HistoryMediumAwardCount  int     `toml:"history_medium_award_count" json:"history_medium_award_count" validate:"gte=0"`
	HistoryMediumObligations float64 `toml:"history_medium_obligations" json:"history_medium_obligations" validate:"gte=0"`
}

// RiskConfig holds the composite scorer settings
type RiskConfig struct {
	Strategy RiskStrategy `toml:"strategy" json:"strategy" validate:"oneof=multiplicative additive"`

	WeightConcentration float64 `toml:"weight_concentration" json:"weight_concentration" validate:"gte=0,lte=1"`
	WeightAgency        float64 `toml:"weight_agency" json:"weight_agency" validate:"gte=0,lte=1"`
	WeightRenewal       float64 `toml:"weight_renewal" json:"weight_renewal" validate:"gte=0,lte=1"`

	// Dampening factors applied when the company shows size, agency diversity or scale
	SizeDampening      float64 `toml:"size_dampening" json:"size_dampening" validate:"gt=0,lte=1"`
	DiversityDampening float64 `toml:"diversity_dampening" json:"diversity_dampening" validate:"gt=0,lte=1"`
	ScaleDampening     float64 `toml:"scale_dampening" json:"scale_dampening" validate:"gt=0,lte=1"`

	SizeThreshold      float64 `toml:"size_threshold" json:"size_threshold" validate:"gt=0"`
	DiversityThreshold int     `toml:"diversity_threshold" json:"diversity_threshold" validate:"gte=0"`
	ScaleThreshold     int     `toml:"scale_threshold" json:"scale_threshold" validate:"gte=0"`

	LowTierMax    float64 `toml:"low_tier_max" json:"low_tier_max" validate:"gte=0,lte=100"`
	MediumTierMax float64 `toml:"medium_tier_max" json:"medium_tier_max" validate:"gtfield=LowTierMax,lte=100"`
}

// DefaultConfig returns the documented heuristic model
func DefaultConfig() Config {
	return Config{
		Size: SizeConfig{
			SmallBelow:     100_000,
			LargeAtOrAbove: 1_000_000,
			RecentMonths:   6,
		},
		Concentration: ConcentrationConfig{
			Baseline: 1_000_000_000,
		},
		Renewal: RenewalConfig{
			GraceDays:                180,
			MonthDays:                30,
			HighExpiryMonths:         3,
			MediumExpiryMonths:       6,
			NearTermMonths:           6,
			HighSizeAmount:           1_000_000_000,
			MediumSizeAmount:         100_000_000,
			DefenseTokens:            []string{"defense", "dod"},
			HistoryLowAwardCount:     100,
			HistoryLowObligations:    1_000_000_000,
			HistoryMediumAwardCount:  50,
			HistoryMediumObligations: 500_000_000,
		},
		Risk: RiskConfig{
			Strategy:            StrategyMultiplicative,
			WeightConcentration: 0.35,
			WeightAgency:        0.35,
			WeightRenewal:       0.30,
			SizeDampening:       0.8,
			DiversityDampening:  0.7,
			ScaleDampening:      0.8,
			SizeThreshold:       1_000_000_000,
			DiversityThreshold:  3,
			ScaleThreshold:      5,
			LowTierMax:          40,
			MediumTierMax:       70,
		},
	}
}

// weightTolerance is the allowed drift of the weight sum from 1.0
const weightTolerance = 1e-6

// Validate checks field constraints and cross-field invariants
func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid analytics config: %w", err)
	}

	sum := c.Risk.WeightConcentration + c.Risk.WeightAgency + c.Risk.WeightRenewal
	if math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("invalid analytics config: risk weights must sum to 1.0, got %.6f", sum)
	}

	return nil
}
