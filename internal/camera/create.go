package camera

import (
	"context"
	"time"

	"github.com/tphakala/camrelay/internal/errors"
	"github.com/tphakala/camrelay/internal/logger"
	"github.com/tphakala/camrelay/internal/validation"
)

// Create stores a new camera, then registers a permanent relay for it and records the
// relay URL on the camera. If the relay step fails the stored camera is kept without a
// permanent stream URL and an InternalDependencyError is returned.
func (s *Service) Create(ctx context.Context, in CreateInput) (view CameraView, err error) {
	start := time.Now()
	defer func() { s.track(OpCreate, start, err) }()

	name, sourceURL := in.Name, in.SourceURL
	if err := sanitizeFields(&name, &sourceURL); err != nil {
		return CameraView{}, s.internal(ctx, OpCreate, msgSanitize, err, "", errors.CategorySanitization)
	}

	outcome := validation.Evaluate(
		validation.NonEmpty(name, FieldName, validation.EmptyMessage(FieldName)),
		validation.NonEmpty(sourceURL, FieldSourceURL, validation.EmptyMessage(FieldSourceURL)),
		validation.RTSPURL(sourceURL, FieldSourceURL, msgInvalidRTSPURL),
	)
	if !outcome.Valid() {
		return CameraView{}, s.rejected(ctx, OpCreate, outcome)
	}

	record, err := s.store.PutCamera(ctx, PutCameraCommand{Name: name, SourceURL: sourceURL})
	if err != nil {
		return CameraView{}, s.internal(ctx, OpCreate, msgCreateCamera, err, "", errors.CategoryDatabase)
	}

	relayID, err := s.newRelayID()
	if err != nil {
		s.partial(ctx, OpCreate, record.ID)
		return CameraView{}, s.internal(ctx, OpCreate, msgRelayID, err, "", errors.CategorySystem)
	}

	stream, err := s.permanent.PutStream(ctx, PutStreamRequest{
		RelayID: relayID,
		Name:    record.ID,
		URL:     sourceURL,
	})
	if err != nil {
		s.partial(ctx, OpCreate, record.ID)
		return CameraView{}, s.internal(ctx, OpCreate, msgRegisterRelay, err, "", errors.CategoryRelay)
	}

	permanentURL := stream.URL
	updated, err := s.store.PutCamera(ctx, PutCameraCommand{
		ID:                 record.ID,
		Name:               record.Name,
		SourceURL:          record.SourceURL,
		PermanentStreamURL: &permanentURL,
	})
	if err != nil {
		s.partial(ctx, OpCreate, record.ID)
		return CameraView{}, s.internal(ctx, OpCreate, msgUpdateCamera, err, "", errors.CategoryDatabase)
	}

	s.log.WithContext(ctx).Info("camera created",
		logger.String("camera_id", updated.ID),
		logger.String("relay_id", relayID))

	return viewOf(updated), nil
}
