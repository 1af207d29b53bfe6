package camera

import (
	"context"
	"time"

	"github.com/tphakala/camrelay/internal/errors"
	"github.com/tphakala/camrelay/internal/logger"
)

// Delete removes the camera record and then asks the permanent relay to remove the
// stream named by the camera id. A relay failure after the record is gone is still
// reported as an InternalDependencyError.
func (s *Service) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { s.track(OpDelete, start, err) }()

	if err := sanitizeFields(&id); err != nil {
		return s.internal(ctx, OpDelete, msgSanitize, err, "", errors.CategorySanitization)
	}

	if err := s.store.DeleteCameraByID(ctx, id); err != nil {
		return s.internal(ctx, OpDelete, msgDeleteCamera, err, "", errors.CategoryDatabase)
	}

	if err := s.permanent.RemoveStream(ctx, id); err != nil {
		s.partial(ctx, OpDelete, id)
		return s.internal(ctx, OpDelete, msgRemoveRelay, err, "", errors.CategoryRelay)
	}

	s.log.WithContext(ctx).Info("camera deleted", logger.String("camera_id", id))
	return nil
}
