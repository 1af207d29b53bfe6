package relay

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tphakala/camrelay/internal/camera"
)

// Stream is a stream as reported by the relays.
type Stream struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	AddedAt   string `json:"added_at,omitempty"`
	Expirable bool   `json:"expirable"`
}

type putStreamBody struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SourceURL string `json:"source_url"`
	DownScale bool   `json:"down_scale"`
	Expirable bool   `json:"expirable"`
}

// PermanentClient talks to the permanent relay service.
type PermanentClient struct {
	*base
}

var _ camera.PermanentRelay = (*PermanentClient)(nil)

// NewPermanentClient creates a client for the permanent relay at cfg.BaseURL.
func NewPermanentClient(cfg Config, opts ...Option) (*PermanentClient, error) {
	b, err := newBase(ServicePermanent, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &PermanentClient{base: b}, nil
}

// PutStream registers a non-expiring, full resolution relay under req.RelayID.
func (c *PermanentClient) PutStream(ctx context.Context, req camera.PutStreamRequest) (camera.PermanentStream, error) {
	body := putStreamBody{
		ID:        req.RelayID,
		Name:      req.Name,
		SourceURL: req.URL,
	}
	var out Stream
	if err := c.call(ctx, http.MethodPut, "/streams/permanent/"+url.PathEscape(req.RelayID), body, &out); err != nil {
		return camera.PermanentStream{}, err
	}
	return camera.PermanentStream{ID: out.ID, Name: out.Name, URL: out.URL}, nil
}

// RemoveStream deletes the relay registered under id. Removal is best effort: a 404
// means the relay holds nothing under id and counts as removed. Transport failures and
// any other non-2xx status are errors.
func (c *PermanentClient) RemoveStream(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/streams/"+url.PathEscape(id), nil, nil, http.StatusNotFound)
}

// ListStreams returns every stream known to the permanent relay.
func (c *PermanentClient) ListStreams(ctx context.Context) ([]Stream, error) {
	var out []Stream
	if err := c.call(ctx, http.MethodGet, "/streams", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Stream{}
	}
	return out, nil
}
