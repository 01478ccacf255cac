package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/govspend/internal/models"
)

// ErrSnapshotNotFound is returned when no award snapshot is stored under a key
var ErrSnapshotNotFound = errors.New("snapshot not found")

// ErrHistoryNotFound is returned when no fresh agency history is cached
var ErrHistoryNotFound = errors.New("agency history not found")

// SnapshotStorage - interface for award snapshot persistence
type SnapshotStorage interface {
	SaveSnapshot(ctx context.Context, snapshot *models.AwardSnapshot) error
	GetSnapshot(ctx context.Context, key string) (*models.AwardSnapshot, error)
	ListSnapshots(ctx context.Context) ([]*models.AwardSnapshot, error)
	DeleteSnapshot(ctx context.Context, key string) error
}

// AgencyHistoryStorage - interface for the agency history cache
type AgencyHistoryStorage interface {
	SaveHistory(ctx context.Context, history *models.AgencyHistory) error
	// GetHistory returns ErrHistoryNotFound when the entry is missing or older than maxAge.
	// A non-positive maxAge accepts any age.
	GetHistory(ctx context.Context, agencyID string, maxAge time.Duration) (*models.AgencyHistory, error)
	PurgeOlderThan(ctx context.Context, maxAge time.Duration) (int, error)
}

// StorageManager - composite storage interface
type StorageManager interface {
	SnapshotStorage() SnapshotStorage
	AgencyHistoryStorage() AgencyHistoryStorage
	Compact() error
	Close() error
}
