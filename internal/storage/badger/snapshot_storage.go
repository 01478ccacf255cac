package badger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/govspend/internal/interfaces"
	"github.com/ternarybob/govspend/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// SnapshotStorage implements the SnapshotStorage interface for Badger
type SnapshotStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSnapshotStorage creates a new SnapshotStorage instance
func NewSnapshotStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SnapshotStorage {
	return &SnapshotStorage{
		db:     db,
		logger: logger,
	}
}

// SnapshotKey normalizes a recipient query into a snapshot key
func SnapshotKey(query string) string {
	key := strings.ToLower(strings.TrimSpace(query))
	if key == "" {
		return models.AllRecipientsKey
	}
	return key
}

// SaveSnapshot inserts or replaces a snapshot under its key
func (s *SnapshotStorage) SaveSnapshot(ctx context.Context, snapshot *models.AwardSnapshot) error {
	if snapshot == nil {
		return fmt.Errorf("snapshot is nil")
	}
	snapshot.Key = SnapshotKey(snapshot.Key)
	snapshot.AwardCount = len(snapshot.Awards)

	if err := s.db.Store().Upsert(snapshot.Key, snapshot); err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", snapshot.Key, err)
	}

	s.logger.Debug().
		Str("key", snapshot.Key).
		Int("awards", snapshot.AwardCount).
		Msg("Saved award snapshot")

	return nil
}

// GetSnapshot retrieves a snapshot by key
func (s *SnapshotStorage) GetSnapshot(ctx context.Context, key string) (*models.AwardSnapshot, error) {
	var snapshot models.AwardSnapshot
	err := s.db.Store().Get(SnapshotKey(key), &snapshot)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, interfaces.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return &snapshot, nil
}

// ListSnapshots returns every stored snapshot, most recent first
func (s *SnapshotStorage) ListSnapshots(ctx context.Context) ([]*models.AwardSnapshot, error) {
	var snapshots []models.AwardSnapshot
	if err := s.db.Store().Find(&snapshots, nil); err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].FetchedAt.After(snapshots[j].FetchedAt)
	})

	result := make([]*models.AwardSnapshot, len(snapshots))
	for i := range snapshots {
		result[i] = &snapshots[i]
	}
	return result, nil
}

// DeleteSnapshot removes a snapshot; deleting a missing key is not an error
func (s *SnapshotStorage) DeleteSnapshot(ctx context.Context, key string) error {
	err := s.db.Store().Delete(SnapshotKey(key), &models.AwardSnapshot{})
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}
