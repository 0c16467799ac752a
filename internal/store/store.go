package store

import (
	"context"
	"fmt"

	"github.com/ilyi1116/auto-video-generation-fold6-sub001/internal/config"
	"github.com/ilyi1116/auto-video-generation-fold6-sub001/internal/jobs"
)

// Store persists scheduler snapshots. Both backends implement the
// scheduler's SnapshotStore contract; Close releases backend resources.
type Store interface {
	Save(ctx context.Context, snapshot *jobs.Snapshot) error
	Load(ctx context.Context) (*jobs.Snapshot, error)
	Close() error
}

// Make sure both backends conform to the scheduler's contract.
var (
	_ jobs.SnapshotStore = (Store)(nil)
	_ Store              = (*FileStore)(nil)
	_ Store              = (*DatabaseStore)(nil)
)

// New selects the snapshot backend from the configuration: "file" writes
// atomically-replaced JSON snapshots, "sqlite" and "pgsql" persist through
// gorm.
func New(cfg *config.Config) (Store, error) {
	switch cfg.Database.Type {
	case "file":
		return NewFileStore(cfg.Scheduler.SnapshotPath), nil
	case "sqlite", "pgsql":
		db, err := InitDB(cfg)
		if err != nil {
			return nil, fmt.Errorf("initializing snapshot database: %w", err)
		}
		return NewDatabaseStore(db)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackendType, cfg.Database.Type)
	}
}
