package service

import "errors"

// Common service errors
var (
	// ErrPermissionDenied is returned when a user doesn't have permission for an action
	ErrPermissionDenied = errors.New("permission denied")

	// ErrUnauthorized is returned when user is not authenticated
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrRequestNotFound is returned when a request does not exist or is not
	// visible to the caller. Both cases look identical from the outside.
	ErrRequestNotFound = errors.New("request not found")

	// ErrStatusConflict is returned when a transition lost a race: the
	// request's status changed between read and write
	ErrStatusConflict = errors.New("request was modified concurrently")

	// ErrSlotLocked is returned when a document slot is already filled
	ErrSlotLocked = errors.New("document slot already filled")

	// ErrRequestNotEditable is returned when items are changed on a request
	// that has left the pending status
	ErrRequestNotEditable = errors.New("request is no longer editable")

	// ErrAccountNotFound is returned when an account does not exist
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidCredentials is returned on a failed login
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrAccountDisabled is returned when a deactivated account tries to log in
	ErrAccountDisabled = errors.New("account is disabled")

	// ErrUsernameTaken is returned when creating an account with an existing username
	ErrUsernameTaken = errors.New("username already in use")

	// ErrSigningUnavailable is returned when signature stamping is requested
	// but no render service is configured
	ErrSigningUnavailable = errors.New("signature stamping is not configured")
)
