package datastore

import (
	"time"

	"github.com/tphakala/camrelay/internal/camera"
)

// Camera is the persisted camera row. Every row carries the fixed camera partition
// so the table can later be shared with other record kinds.
type Camera struct {
	ID                 string    `gorm:"primaryKey;size:36"`
	Partition          string    `gorm:"column:partition_key;size:32;not null;index"`
	Name               string    `gorm:"size:255;not null"`
	SourceURL          string    `gorm:"size:2048;not null"`
	PermanentStreamURL *string   `gorm:"size:2048"`
	CreatedAt          time.Time `gorm:"not null"`
	UpdatedAt          time.Time `gorm:"not null"`
}

// TableName overrides GORM's pluralised default.
func (Camera) TableName() string {
	return "cameras"
}

func (c *Camera) toRecord() camera.CameraRecord {
	return camera.CameraRecord{
		ID:                 c.ID,
		Name:               c.Name,
		SourceURL:          c.SourceURL,
		PermanentStreamURL: c.PermanentStreamURL,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

func (c *Camera) toSummary() camera.CameraSummary {
	return camera.CameraSummary{
		ID:        c.ID,
		Name:      c.Name,
		SourceURL: c.SourceURL,
	}
}
