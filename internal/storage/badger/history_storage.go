package badger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/govspend/internal/interfaces"
	"github.com/ternarybob/govspend/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// AgencyHistoryStorage implements the AgencyHistoryStorage interface for Badger
type AgencyHistoryStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
	now    func() time.Time
}

// NewAgencyHistoryStorage creates a new AgencyHistoryStorage instance
func NewAgencyHistoryStorage(db *BadgerDB, logger arbor.ILogger) interfaces.AgencyHistoryStorage {
	return &AgencyHistoryStorage{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

func historyKey(agencyID string) string {
	return strings.TrimSpace(agencyID)
}

// SaveHistory caches an agency history stamped with the current time
func (s *AgencyHistoryStorage) SaveHistory(ctx context.Context, history *models.AgencyHistory) error {
	if history == nil || historyKey(history.AgencyID) == "" {
		return fmt.Errorf("agency history requires an agency id")
	}

	entry := models.CachedAgencyHistory{
		AgencyID: historyKey(history.AgencyID),
		History:  *history,
		CachedAt: s.now().UTC(),
	}

	if err := s.db.Store().Upsert(entry.AgencyID, &entry); err != nil {
		return fmt.Errorf("failed to save agency history %s: %w", entry.AgencyID, err)
	}
	return nil
}

// GetHistory returns a cached history no older than maxAge
func (s *AgencyHistoryStorage) GetHistory(ctx context.Context, agencyID string, maxAge time.Duration) (*models.AgencyHistory, error) {
	var entry models.CachedAgencyHistory
	err := s.db.Store().Get(historyKey(agencyID), &entry)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, interfaces.ErrHistoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get agency history: %w", err)
	}

	if maxAge > 0 && s.now().UTC().Sub(entry.CachedAt) > maxAge {
		return nil, interfaces.ErrHistoryNotFound
	}

	history := entry.History
	return &history, nil
}

// PurgeOlderThan deletes cache entries older than maxAge and returns how many were removed
func (s *AgencyHistoryStorage) PurgeOlderThan(ctx context.Context, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}

	query := badgerhold.Where("CachedAt").Lt(s.now().UTC().Add(-maxAge))

	count, err := s.db.Store().Count(&models.CachedAgencyHistory{}, query)
	if err != nil {
		return 0, fmt.Errorf("failed to count stale agency histories: %w", err)
	}
	if count == 0 {
		return 0, nil
	}

	if err := s.db.Store().DeleteMatching(&models.CachedAgencyHistory{}, query); err != nil {
		return 0, fmt.Errorf("failed to purge agency histories: %w", err)
	}

	s.logger.Debug().Int("purged", int(count)).Msg("Purged stale agency histories")
	return int(count), nil
}
