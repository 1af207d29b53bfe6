package camera

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/camrelay/internal/validation"
)

func TestPut_CarriesPermanentStreamURL(t *testing.T) {
	h := newHarness(t)
	created := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	permanent := strPtr("rtsp://relay/cam-1")

	h.store.On("FindCameraByID", mock.Anything, "cam-1").
		Return(CameraRecord{ID: "cam-1", Name: "Old", SourceURL: "rtsp://old/live", PermanentStreamURL: permanent, CreatedAt: created}, nil).Once()
	h.store.On("PutCamera", mock.Anything, PutCameraCommand{
		ID:                 "cam-1",
		Name:               "Front Door",
		SourceURL:          "rtsps://new/live",
		PermanentStreamURL: permanent,
	}).Return(CameraRecord{
		ID:                 "cam-1",
		Name:               "Front Door",
		SourceURL:          "rtsps://new/live",
		PermanentStreamURL: permanent,
		CreatedAt:          created,
		UpdatedAt:          created.Add(time.Hour),
	}, nil).Once()

	view, err := h.svc.Put(t.Context(), PutInput{ID: " cam-1 ", Name: "Front   Door", SourceURL: "rtsps://new/live"})
	require.NoError(t, err)

	assert.Equal(t, "cam-1", view.ID)
	assert.Equal(t, "Front Door", view.Name)
	assert.Equal(t, created, view.CreatedAt)
	assert.Equal(t, created.Add(time.Hour), view.UpdatedAt)
	h.permanent.AssertNotCalled(t, "PutStream", mock.Anything, mock.Anything)
}

func TestPut_ValidatesEveryField(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Put(t.Context(), PutInput{})

	var be *BusinessError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, validation.Feedback{
		"id":         {"id cannot be empty"},
		"name":       {"name cannot be empty"},
		"source_url": {"source_url cannot be empty", "must be a valid rtsp url"},
	}, be.Feedback)
	h.store.AssertNotCalled(t, "FindCameraByID", mock.Anything, mock.Anything)
}

func TestPut_FindFailure(t *testing.T) {
	h := newHarness(t)
	h.store.On("FindCameraByID", mock.Anything, "cam-404").
		Return(CameraRecord{}, errNotFound).Once()

	_, err := h.svc.Put(t.Context(), PutInput{ID: "cam-404", Name: "X", SourceURL: "rtsp://x/y"})

	var ie *InternalDependencyError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "Failed to find camera in database", ie.Message)
	assert.ErrorIs(t, err, errNotFound)
	h.store.AssertNotCalled(t, "PutCamera", mock.Anything, mock.Anything)
}

func TestPut_WriteFailure(t *testing.T) {
	h := newHarness(t)
	h.store.On("FindCameraByID", mock.Anything, "cam-1").
		Return(CameraRecord{ID: "cam-1"}, nil).Once()
	h.store.On("PutCamera", mock.Anything, mock.Anything).
		Return(CameraRecord{}, stderrors.New("constraint failed")).Once()

	_, err := h.svc.Put(t.Context(), PutInput{ID: "cam-1", Name: "X", SourceURL: "rtsp://x/y"})

	var ie *InternalDependencyError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "Failed to update camera in database", ie.Message)
	assert.Equal(t, []string{OutcomeInternalError}, h.observer.outcomes)
}
