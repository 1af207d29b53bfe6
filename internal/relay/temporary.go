package relay

import (
	"context"
	"net/http"
	"time"

	"github.com/tphakala/camrelay/internal/camera"
)

type getStreamBody struct {
	Name      string `json:"name"`
	SourceURL string `json:"source_url"`
	DownScale bool   `json:"down_scale"`
	Expirable bool   `json:"expirable"`
}

type temporaryStream struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	URL            string     `json:"url"`
	ExpirationDate *time.Time `json:"expiration_date"`
}

// TemporaryClient talks to the temporary relay service.
type TemporaryClient struct {
	*base
}

var _ camera.TemporaryRelay = (*TemporaryClient)(nil)

// NewTemporaryClient creates a client for the temporary relay at cfg.BaseURL.
func NewTemporaryClient(cfg Config, opts ...Option) (*TemporaryClient, error) {
	b, err := newBase(ServiceTemporary, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &TemporaryClient{base: b}, nil
}

// GetStream asks for a downscaled, expiring relay of sourceURL. A missing
// expiration_date is passed through as nil; callers decide whether that is fatal.
func (c *TemporaryClient) GetStream(ctx context.Context, cameraID, sourceURL string) (camera.TemporaryStream, error) {
	body := getStreamBody{
		Name:      cameraID,
		SourceURL: sourceURL,
		DownScale: true,
		Expirable: true,
	}
	var out temporaryStream
	if err := c.call(ctx, http.MethodPost, "/streams", body, &out); err != nil {
		return camera.TemporaryStream{}, err
	}
	return camera.TemporaryStream{
		ID:             out.ID,
		Name:           out.Name,
		URL:            out.URL,
		ExpirationDate: out.ExpirationDate,
	}, nil
}
