// Package datastore persists camera metadata with GORM on SQLite or MySQL.
package datastore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tphakala/camrelay/internal/camera"
	"github.com/tphakala/camrelay/internal/conf"
	"github.com/tphakala/camrelay/internal/errors"
	"github.com/tphakala/camrelay/internal/logger"
)

// Interface is the metadata store used by the camera service plus its lifecycle.
type Interface interface {
	camera.MetadataStore
	Open() error
	Close() error
	Ping(ctx context.Context) error
}

// DataStore implements the camera operations on top of an open *gorm.DB.
// The dialect specific stores embed it and only differ in how they connect.
type DataStore struct {
	DB  *gorm.DB
	log logger.Logger

	// now and newID are replaced in tests.
	now   func() time.Time
	newID func() (string, error)
}

// New returns the store selected by the datastore settings. It does not connect; call Open.
func New(settings *conf.Settings, log logger.Logger) (Interface, error) {
	if log == nil {
		log = logger.Global()
	}
	log = log.Module(componentName)

	base := DataStore{log: log, now: time.Now, newID: newCameraID}

	switch settings.Datastore.Type {
	case conf.DatastoreSQLite, "":
		return &SQLiteStore{DataStore: base, Settings: settings}, nil
	case conf.DatastoreMySQL:
		return &MySQLStore{DataStore: base, Settings: settings}, nil
	default:
		return nil, errors.Newf("unsupported datastore type %q", settings.Datastore.Type).
			Component(componentName).
			Category(errors.CategoryConfiguration).
			Build()
	}
}

func newCameraID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate camera id: %w", err)
	}
	return id.String(), nil
}

func (ds *DataStore) db(ctx context.Context) (*gorm.DB, error) {
	if ds.DB == nil {
		return nil, errors.Newf("database connection is not initialized").
			Component(componentName).
			Category(errors.CategoryState).
			Build()
	}
	return ds.DB.WithContext(ctx), nil
}

// ListCameras returns every camera in the partition ordered by id.
func (ds *DataStore) ListCameras(ctx context.Context) ([]camera.CameraSummary, error) {
	db, err := ds.db(ctx)
	if err != nil {
		return nil, err
	}

	var rows []Camera
	if err := db.Where("partition_key = ?", camera.Partition).Order("id").Find(&rows).Error; err != nil {
		return nil, dbError(err, "list_cameras", errors.PriorityMedium)
	}

	summaries := make([]camera.CameraSummary, 0, len(rows))
	for i := range rows {
		summaries = append(summaries, rows[i].toSummary())
	}
	return summaries, nil
}

// PutCamera creates a camera when cmd.ID is empty and upserts otherwise.
// An upsert keeps the original CreatedAt of an existing row.
func (ds *DataStore) PutCamera(ctx context.Context, cmd camera.PutCameraCommand) (camera.CameraRecord, error) {
	db, err := ds.db(ctx)
	if err != nil {
		return camera.CameraRecord{}, err
	}

	// Millisecond precision matches what MySQL DATETIME(3) stores.
	now := ds.now().UTC().Truncate(time.Millisecond)
	row := Camera{
		ID:                 cmd.ID,
		Partition:          camera.Partition,
		Name:               cmd.Name,
		SourceURL:          cmd.SourceURL,
		PermanentStreamURL: cmd.PermanentStreamURL,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if row.ID == "" {
		if row.ID, err = ds.newID(); err != nil {
			return camera.CameraRecord{}, dbError(err, "put_camera", errors.PriorityHigh)
		}
		if err := db.Create(&row).Error; err != nil {
			return camera.CameraRecord{}, dbError(err, "put_camera", errors.PriorityMedium, "camera_id", row.ID)
		}
		ds.log.Debug("camera created", logger.String("camera_id", row.ID))
		return row.toRecord(), nil
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var existing Camera
		res := tx.Where("partition_key = ? AND id = ?", camera.Partition, row.ID).Limit(1).Find(&existing)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			row.CreatedAt = existing.CreatedAt
		}
		return tx.Save(&row).Error
	})
	if err != nil {
		return camera.CameraRecord{}, dbError(err, "put_camera", errors.PriorityMedium, "camera_id", row.ID)
	}

	ds.log.Debug("camera stored", logger.String("camera_id", row.ID))
	return row.toRecord(), nil
}

// DeleteCameraByID removes a camera. Deleting an unknown id is not an error.
func (ds *DataStore) DeleteCameraByID(ctx context.Context, id string) error {
	db, err := ds.db(ctx)
	if err != nil {
		return err
	}

	res := db.Where("partition_key = ? AND id = ?", camera.Partition, id).Delete(&Camera{})
	if res.Error != nil {
		return dbError(res.Error, "delete_camera", errors.PriorityMedium, "camera_id", id)
	}
	if res.RowsAffected == 0 {
		ds.log.Debug("delete of unknown camera ignored", logger.String("camera_id", id))
	}
	return nil
}

// FindCameraByID returns the camera or an error wrapping ErrCameraNotFound.
func (ds *DataStore) FindCameraByID(ctx context.Context, id string) (camera.CameraRecord, error) {
	db, err := ds.db(ctx)
	if err != nil {
		return camera.CameraRecord{}, err
	}

	var row Camera
	res := db.Where("partition_key = ? AND id = ?", camera.Partition, id).Limit(1).Find(&row)
	if res.Error != nil {
		return camera.CameraRecord{}, dbError(res.Error, "find_camera", errors.PriorityMedium, "camera_id", id)
	}
	if res.RowsAffected == 0 {
		return camera.CameraRecord{}, notFoundError("find_camera", id)
	}
	return row.toRecord(), nil
}

// CameraExistsByID reports whether a camera with the id exists.
func (ds *DataStore) CameraExistsByID(ctx context.Context, id string) (bool, error) {
	db, err := ds.db(ctx)
	if err != nil {
		return false, err
	}

	var count int64
	if err := db.Model(&Camera{}).Where("partition_key = ? AND id = ?", camera.Partition, id).Count(&count).Error; err != nil {
		return false, dbError(err, "camera_exists", errors.PriorityMedium, "camera_id", id)
	}
	return count > 0, nil
}

// Ping checks the underlying connection.
func (ds *DataStore) Ping(ctx context.Context) error {
	db, err := ds.db(ctx)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return dbError(err, "ping", errors.PriorityHigh)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return dbError(err, "ping", errors.PriorityHigh)
	}
	return nil
}

// Close releases the connection pool.
func (ds *DataStore) Close() error {
	if ds.DB == nil {
		return nil
	}
	sqlDB, err := ds.DB.DB()
	if err != nil {
		return dbError(err, "close", errors.PriorityLow)
	}
	if err := sqlDB.Close(); err != nil {
		return dbError(err, "close", errors.PriorityLow)
	}
	ds.DB = nil
	return nil
}
