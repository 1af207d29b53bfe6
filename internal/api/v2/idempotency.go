package api

import (
	"errors"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/tphakala/camrelay/internal/camera"
)

const (
	defaultIdempotencyTTL = 24 * time.Hour
	idempotencyCleanup    = 10 * time.Minute
)

var errIdempotencyMismatch = errors.New("idempotency key reused with a different request")

// idempotencyEntry is a remembered successful create together with the input that produced it.
type idempotencyEntry struct {
	input camera.CreateInput
	view  camera.CameraView
}

// idempotencyCache replays successful creates per Idempotency-Key. Concurrent requests
// sharing a key are collapsed into one use case run. Failures are not remembered, so a
// retry after an error runs the use case again.
type idempotencyCache struct {
	entries *cache.Cache
	flight  singleflight.Group
}

func newIdempotencyCache(ttl time.Duration) *idempotencyCache {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &idempotencyCache{entries: cache.New(ttl, idempotencyCleanup)}
}

// do returns the remembered view for key, or runs create once and remembers its result.
// replayed is true when the caller did not run create itself.
func (ic *idempotencyCache) do(key string, in camera.CreateInput, create func() (camera.CameraView, error)) (view camera.CameraView, replayed bool, err error) {
	if cached, ok := ic.lookup(key); ok {
		return matchInput(cached, in, true)
	}

	ran := false
	v, err, _ := ic.flight.Do(key, func() (any, error) {
		if cached, ok := ic.lookup(key); ok {
			return cached, nil
		}
		ran = true
		created, err := create()
		if err != nil {
			return nil, err
		}
		entry := idempotencyEntry{input: in, view: created}
		ic.entries.SetDefault(key, entry)
		return entry, nil
	})
	if err != nil {
		return camera.CameraView{}, false, err
	}

	return matchInput(v.(idempotencyEntry), in, !ran)
}

func (ic *idempotencyCache) lookup(key string) (idempotencyEntry, bool) {
	v, ok := ic.entries.Get(key)
	if !ok {
		return idempotencyEntry{}, false
	}
	entry, ok := v.(idempotencyEntry)
	return entry, ok
}

func matchInput(entry idempotencyEntry, in camera.CreateInput, replayed bool) (camera.CameraView, bool, error) {
	if entry.input != in {
		return camera.CameraView{}, false, errIdempotencyMismatch
	}
	return entry.view, replayed, nil
}

func (ic *idempotencyCache) flush() {
	ic.entries.Flush()
}
