package camera

import (
	"context"
	"time"

	"github.com/tphakala/camrelay/internal/errors"
)

// List returns every camera in the partition. It never touches the relays.
func (s *Service) List(ctx context.Context) (cameras []CameraSummary, err error) {
	start := time.Now()
	defer func() { s.track(OpList, start, err) }()

	cameras, err = s.store.ListCameras(ctx)
	if err != nil {
		return nil, s.internal(ctx, OpList, msgListCameras, err, "", errors.CategoryDatabase)
	}
	if cameras == nil {
		cameras = []CameraSummary{}
	}
	return cameras, nil
}
