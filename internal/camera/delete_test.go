package camera

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDelete_RemovesRecordThenRelay(t *testing.T) {
	h := newHarness(t)
	var order []string
	h.store.On("DeleteCameraByID", mock.Anything, "cam-1").
		Run(func(mock.Arguments) { order = append(order, "store") }).
		Return(nil).Once()
	h.permanent.On("RemoveStream", mock.Anything, "cam-1").
		Run(func(mock.Arguments) { order = append(order, "relay") }).
		Return(nil).Once()

	require.NoError(t, h.svc.Delete(t.Context(), "  cam-1 "))
	assert.Equal(t, []string{"store", "relay"}, order)
	assert.Equal(t, []string{OutcomeSuccess}, h.observer.outcomes)
}

func TestDelete_StoreFailureSkipsRelay(t *testing.T) {
	h := newHarness(t)
	h.store.On("DeleteCameraByID", mock.Anything, "cam-1").
		Return(stderrors.New("connection reset")).Once()

	err := h.svc.Delete(t.Context(), "cam-1")

	var ie *InternalDependencyError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "Failed to delete camera from database", ie.Message)
	h.permanent.AssertNotCalled(t, "RemoveStream", mock.Anything, mock.Anything)
	assert.Empty(t, h.observer.partials)
}

// A relay failure after the record is deleted is still an internal error.
func TestDelete_RelayFailureAfterRecordRemoved(t *testing.T) {
	store := newMemStore()
	_, err := store.PutCamera(t.Context(), PutCameraCommand{Name: "Gate", SourceURL: "rtsp://gate/live"})
	require.NoError(t, err)

	permanent := &mockPermanent{}
	permanent.On("RemoveStream", mock.Anything, "cam-1").
		Return(stderrors.New("permanent relay returned 500")).Once()
	observer := &recordingObserver{}

	svc := New(store, permanent, &mockTemporary{}, WithLogger(testLogger()), WithObserver(observer))

	exists, err := store.CameraExistsByID(t.Context(), "cam-1")
	require.NoError(t, err)
	require.True(t, exists)

	err = svc.Delete(t.Context(), "cam-1")

	var ie *InternalDependencyError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "Failed to remove stream from permanent stream server", ie.Message)
	assert.True(t, IsInternalError(err))

	exists, err = store.CameraExistsByID(t.Context(), "cam-1")
	require.NoError(t, err)
	assert.False(t, exists, "record is gone even though the operation failed")
	assert.Equal(t, []string{OpDelete}, observer.partials)
	permanent.AssertExpectations(t)
}
