package hass

import "errors"

// Sentinel errors for the hass package.
// Check with errors.Is after unwrapping.
var (
	// ErrAuthFailed indicates the access token was rejected.
	ErrAuthFailed = errors.New("hass: authentication failed")

	// ErrUnexpectedMessage indicates the server broke the expected
	// handshake or command sequence.
	ErrUnexpectedMessage = errors.New("hass: unexpected message")

	// ErrCommandFailed indicates a command returned success: false.
	ErrCommandFailed = errors.New("hass: command failed")
)
