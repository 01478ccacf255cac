package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/govspend/internal/common"
	"github.com/ternarybob/govspend/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db       *BadgerDB
	snapshot interfaces.SnapshotStorage
	history  interfaces.AgencyHistoryStorage
	logger   arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := newManager(db, logger)
	logger.Info().Str("path", config.Path).Msg("Badger storage manager initialized")

	return manager, nil
}

func newManager(db *BadgerDB, logger arbor.ILogger) *Manager {
	return &Manager{
		db:       db,
		snapshot: NewSnapshotStorage(db, logger),
		history:  NewAgencyHistoryStorage(db, logger),
		logger:   logger,
	}
}

// SnapshotStorage returns the award snapshot storage
func (m *Manager) SnapshotStorage() interfaces.SnapshotStorage {
	return m.snapshot
}

// AgencyHistoryStorage returns the agency history cache
func (m *Manager) AgencyHistoryStorage() interfaces.AgencyHistoryStorage {
	return m.history
}

// Compact reclaims value log space left behind by overwritten snapshots
func (m *Manager) Compact() error {
	rewritten, err := m.db.RunValueLogGC(0.5)
	if err != nil {
		return err
	}
	m.logger.Debug().Int("rewritten", rewritten).Msg("Badger value log compacted")
	return nil
}

// Close closes the database connection
func (m *Manager) Close() error {
	return m.db.Close()
}
