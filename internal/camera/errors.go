package camera

import (
	stderrors "errors"

	"github.com/tphakala/camrelay/internal/validation"
)

// BusinessError is a failure the caller can fix by changing the input.
type BusinessError struct {
	Message  string
	Feedback validation.Feedback
}

func (e *BusinessError) Error() string {
	return e.Message
}

// InternalDependencyError is a failure of a dependency, a dependency contract or an
// internal invariant. Message is safe to show; DebugDetail is for operators only.
type InternalDependencyError struct {
	Message     string
	DebugDetail string
	Err         error
}

func (e *InternalDependencyError) Error() string {
	return e.Message
}

func (e *InternalDependencyError) Unwrap() error {
	return e.Err
}

// IsBusinessError reports whether err carries a BusinessError.
func IsBusinessError(err error) bool {
	var be *BusinessError
	return stderrors.As(err, &be)
}

// IsInternalError reports whether err carries an InternalDependencyError.
func IsInternalError(err error) bool {
	var ie *InternalDependencyError
	return stderrors.As(err, &ie)
}

// User facing messages.
const (
	msgSanitize          = "Failed to sanitize input"
	msgCreateCamera      = "Failed to create camera"
	msgRelayID           = "Failed to generate relay stream id"
	msgRegisterRelay     = "Failed to register camera with permanent stream server"
	msgUpdateCamera      = "Failed to update camera in database"
	msgFindCamera        = "Failed to find camera in database"
	msgDeleteCamera      = "Failed to delete camera from database"
	msgRemoveRelay       = "Failed to remove stream from permanent stream server"
	msgCheckExists       = "Failed to check if camera exists in the database"
	msgFindCameraByID    = "Failed to find camera by id in the database"
	msgNoPermanentStream = "Could not get temporary stream for camera"
	msgTemporaryStream   = "Failed to get temporary stream"
	msgMissingExpiration = "temporary stream server returned a stream with no expiration date"
	msgListCameras       = "failed to load cameras from database"
	msgInvalidRTSPURL    = "must be a valid rtsp url"
	msgCameraNotFound    = "camera not found in database"
)
