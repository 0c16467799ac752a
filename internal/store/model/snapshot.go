package model

import "time"

// Snapshot is one persisted scheduler snapshot row. The scheduler state is
// kept as an opaque JSON document; the row exists so the latest snapshot
// can be selected by creation time.
type Snapshot struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"index"`
	Data      []byte    `gorm:"type:bytes"`
}
