// Package camera holds the camera lifecycle use cases. Each use case sanitizes and
// validates its input, then writes to the metadata store and the stream relays in a
// fixed order. The two backends are not updated atomically; failures after the first
// write are reported, never compensated.
package camera

import (
	"context"
	"time"
)

// Partition is the fixed partition every camera record lives in.
const Partition = "camera"

// Wire names of the camera fields, used as validation feedback keys.
const (
	FieldID        = "id"
	FieldName      = "name"
	FieldSourceURL = "source_url"
)

// CameraRecord is a camera as persisted by the metadata store.
type CameraRecord struct {
	ID                 string
	Name               string
	SourceURL          string
	PermanentStreamURL *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// HasPermanentStream reports whether a relay registration was stored for the camera.
func (r CameraRecord) HasPermanentStream() bool {
	return r.PermanentStreamURL != nil && *r.PermanentStreamURL != ""
}

// CameraSummary is the list projection of a camera.
type CameraSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SourceURL string `json:"source_url"`
}

// PutCameraCommand creates a camera when ID is empty, otherwise upserts the camera with that ID.
type PutCameraCommand struct {
	ID                 string
	Name               string
	SourceURL          string
	PermanentStreamURL *string
}

// MetadataStore is the durable store of camera records.
type MetadataStore interface {
	ListCameras(ctx context.Context) ([]CameraSummary, error)
	PutCamera(ctx context.Context, cmd PutCameraCommand) (CameraRecord, error)
	DeleteCameraByID(ctx context.Context, id string) error
	FindCameraByID(ctx context.Context, id string) (CameraRecord, error)
	CameraExistsByID(ctx context.Context, id string) (bool, error)
}

// PutStreamRequest registers a permanent relay for a camera source.
type PutStreamRequest struct {
	RelayID string
	Name    string
	URL     string
}

// PermanentStream is the permanent relay's view of a registration.
type PermanentStream struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// PermanentRelay registers and removes long lived relays.
type PermanentRelay interface {
	PutStream(ctx context.Context, req PutStreamRequest) (PermanentStream, error)
	RemoveStream(ctx context.Context, id string) error
}

// TemporaryStream is a short lived relay minted from a permanent stream.
type TemporaryStream struct {
	ID             string
	Name           string
	URL            string
	ExpirationDate *time.Time
}

// TemporaryRelay mints expiring stream URLs.
type TemporaryRelay interface {
	GetStream(ctx context.Context, cameraID, sourceURL string) (TemporaryStream, error)
}

// CreateInput is the caller input of Create.
type CreateInput struct {
	Name      string
	SourceURL string
}

// PutInput is the caller input of Put.
type PutInput struct {
	ID        string
	Name      string
	SourceURL string
}

// CameraView is returned by Create and Put. It is always built from the stored record.
type CameraView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	SourceURL string    `json:"source_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func viewOf(r CameraRecord) CameraView {
	return CameraView{
		ID:        r.ID,
		Name:      r.Name,
		SourceURL: r.SourceURL,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// StreamURLView is a temporary stream handed to a viewer.
type StreamURLView struct {
	CameraID  string    `json:"camera_id"`
	TempURL   string    `json:"temp_url"`
	ExpiresAt time.Time `json:"expires_at"`
}
