package core

import "errors"

// Error codes for domain errors. Each one is also the name of the
// outbound event that reports it to the requesting connection.
const (
	ErrCodeNicknameRequired = "nickname-required"
	ErrCodeRoomNotFound     = "room-not-found"
	ErrCodeRoomFull         = "room-full"
	ErrCodeRoomNameRequired = "room-name-required"

	// Generic protocol errors, delivered as an "error" event.
	ErrCodeBadRequest      = "bad_request"
	ErrCodeUnknownEvent    = "unknown_event"
	ErrCodeInvalidCapacity = "invalid_max_participants"
	ErrCodeRateLimited     = "rate_limited"
)

var (
	ErrIdentityRequired = errors.New("identity required")
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room full")
	ErrInvalidName      = errors.New("room name required")
	ErrInvalidCapacity  = errors.New("invalid max participants")
	ErrHubStopped       = errors.New("hub stopped")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

// generic reports codes delivered inside an "error" event rather than as
// an event of their own.
func (e *CoreError) generic() bool {
	switch e.Code {
	case ErrCodeBadRequest, ErrCodeUnknownEvent, ErrCodeInvalidCapacity, ErrCodeRateLimited:
		return true
	}
	return false
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// errorFor maps a registry/directory error to the failure reported to the sender.
func errorFor(err error) *CoreError {
	switch {
	case errors.Is(err, ErrIdentityRequired):
		return coreError(ErrCodeNicknameRequired, err.Error())
	case errors.Is(err, ErrRoomNotFound):
		return coreError(ErrCodeRoomNotFound, err.Error())
	case errors.Is(err, ErrRoomFull):
		return coreError(ErrCodeRoomFull, err.Error())
	case errors.Is(err, ErrInvalidName):
		return coreError(ErrCodeRoomNameRequired, err.Error())
	case errors.Is(err, ErrInvalidCapacity):
		return coreError(ErrCodeInvalidCapacity, err.Error())
	default:
		return coreError(ErrCodeBadRequest, err.Error())
	}
}
