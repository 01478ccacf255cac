package interfaces

import (
	"context"

	"github.com/ternarybob/govspend/internal/models"
	"github.com/ternarybob/govspend/internal/usaspending"
)

// AwardSource - upstream provider of raw awards and agency histories
type AwardSource interface {
	SearchAwards(ctx context.Context, search usaspending.AwardSearch) ([]models.RawAward, error)
	GetAgencyHistory(ctx context.Context, agencyID string) (*models.AgencyHistory, error)
}
