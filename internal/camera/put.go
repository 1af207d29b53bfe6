package camera

import (
	"context"
	"time"

	"github.com/tphakala/camrelay/internal/errors"
	"github.com/tphakala/camrelay/internal/logger"
	"github.com/tphakala/camrelay/internal/validation"
)

// Put updates the name and source of an existing camera. The stored permanent stream
// URL is carried over; the relay registration is not reissued.
func (s *Service) Put(ctx context.Context, in PutInput) (view CameraView, err error) {
	start := time.Now()
	defer func() { s.track(OpPut, start, err) }()

	id, name, sourceURL := in.ID, in.Name, in.SourceURL
	if err := sanitizeFields(&id, &name, &sourceURL); err != nil {
		return CameraView{}, s.internal(ctx, OpPut, msgSanitize, err, "", errors.CategorySanitization)
	}

	outcome := validation.Evaluate(
		validation.NonEmpty(id, FieldID, validation.EmptyMessage(FieldID)),
		validation.NonEmpty(name, FieldName, validation.EmptyMessage(FieldName)),
		validation.NonEmpty(sourceURL, FieldSourceURL, validation.EmptyMessage(FieldSourceURL)),
		validation.RTSPURL(sourceURL, FieldSourceURL, msgInvalidRTSPURL),
	)
	if !outcome.Valid() {
		return CameraView{}, s.rejected(ctx, OpPut, outcome)
	}

	current, err := s.store.FindCameraByID(ctx, id)
	if err != nil {
		return CameraView{}, s.internal(ctx, OpPut, msgFindCamera, err, "", categoryOf(err, errors.CategoryDatabase))
	}

	updated, err := s.store.PutCamera(ctx, PutCameraCommand{
		ID:                 id,
		Name:               name,
		SourceURL:          sourceURL,
		PermanentStreamURL: current.PermanentStreamURL,
	})
	if err != nil {
		return CameraView{}, s.internal(ctx, OpPut, msgUpdateCamera, err, "", errors.CategoryDatabase)
	}

	s.log.WithContext(ctx).Info("camera updated", logger.String("camera_id", updated.ID))

	return viewOf(updated), nil
}

// categoryOf keeps the category of an already categorized dependency error.
func categoryOf(err error, fallback errors.ErrorCategory) errors.ErrorCategory {
	var categorized errors.CategorizedError
	if errors.As(err, &categorized) {
		return categorized.ErrorCategory()
	}
	return fallback
}
