package domain

import "errors"

// Static failure messages, one per remote user operation.
const (
	MsgFetchUserFailed  = "Failed to fetch user"
	MsgCreateUserFailed = "Failed to create user"
	MsgUpdateUserFailed = "Failed to update user"
)

var (
	// ErrRequestFailed matches every *RequestFailedError via errors.Is.
	ErrRequestFailed = errors.New("request failed")
	// ErrLoginRequired means no access token could be obtained for the session.
	ErrLoginRequired = errors.New("login required")
	// ErrSessionNotFound is returned by session stores for unknown or expired ids.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidState is returned when an OAuth state parameter does not verify.
	ErrInvalidState = errors.New("invalid oauth state")
	// ErrQueueClosed is returned when a job cannot be handed to the dispatcher.
	ErrQueueClosed = errors.New("provisioning queue unavailable")
)

// RequestFailedError is the single error shape for a non-successful call to
// the user-profile API. Network, auth and server failures all collapse into
// it; the underlying cause is intentionally not retained.
type RequestFailedError struct {
	Operation  string
	Message    string
	StatusCode int // 0 when no response was received
}

func (e *RequestFailedError) Error() string { return e.Message }

func (e *RequestFailedError) Is(target error) bool { return target == ErrRequestFailed }
