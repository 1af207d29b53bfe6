package camera

import (
	"context"
	"time"

	"github.com/tphakala/camrelay/internal/errors"
	"github.com/tphakala/camrelay/internal/logger"
	"github.com/tphakala/camrelay/internal/sanitize"
	"github.com/tphakala/camrelay/internal/validation"
)

// GetTempStreamURL mints a temporary stream URL from the camera's permanent stream.
//
// An unknown camera is a BusinessError. A store failure during the existence check,
// a camera without a permanent stream and a relay response without an expiration
// date are InternalDependencyErrors.
func (s *Service) GetTempStreamURL(ctx context.Context, id string) (view StreamURLView, err error) {
	start := time.Now()
	defer func() { s.track(OpTempStreamURL, start, err) }()

	id, err = sanitize.Pipe(id, sanitize.TrimBothSides)
	if err != nil {
		return StreamURLView{}, s.internal(ctx, OpTempStreamURL, msgSanitize, err, "", errors.CategorySanitization)
	}

	results := []validation.FieldResult{
		validation.NonEmpty(id, FieldID, validation.EmptyMessage(FieldID)),
	}
	// A blank id cannot name a camera, so the store is not asked.
	if id != "" {
		exists, err := validation.CameraExists(ctx, s.store, id, FieldID, msgCameraNotFound)
		if err != nil {
			return StreamURLView{}, s.internal(ctx, OpTempStreamURL, msgCheckExists, err, "", errors.CategoryDatabase)
		}
		results = append(results, exists)
	}
	outcome := validation.Evaluate(results...)
	if !outcome.Valid() {
		return StreamURLView{}, s.rejected(ctx, OpTempStreamURL, outcome)
	}

	camera, err := s.store.FindCameraByID(ctx, id)
	if err != nil {
		return StreamURLView{}, s.internal(ctx, OpTempStreamURL, msgFindCameraByID, err, "", categoryOf(err, errors.CategoryDatabase))
	}

	if !camera.HasPermanentStream() {
		return StreamURLView{}, s.internal(ctx, OpTempStreamURL, msgNoPermanentStream, nil,
			camera.ID+" no permanent stream found for camera", errors.CategoryState)
	}

	stream, err := s.temporary.GetStream(ctx, camera.ID, *camera.PermanentStreamURL)
	if err != nil {
		return StreamURLView{}, s.internal(ctx, OpTempStreamURL, msgTemporaryStream, err, "", errors.CategoryRelay)
	}

	if stream.ExpirationDate == nil {
		return StreamURLView{}, s.internal(ctx, OpTempStreamURL, msgMissingExpiration, nil,
			"temporary stream "+stream.ID+" has no expiration_date", errors.CategoryContract)
	}

	s.log.WithContext(ctx).Debug("temporary stream issued",
		logger.String("camera_id", camera.ID),
		logger.Time("expires_at", *stream.ExpirationDate))

	return StreamURLView{
		CameraID:  camera.ID,
		TempURL:   stream.URL,
		ExpiresAt: *stream.ExpirationDate,
	}, nil
}
