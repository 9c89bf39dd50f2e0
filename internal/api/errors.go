// ABOUTME: Sentinel errors classifying remote board API failures.
// ABOUTME: Callers branch with errors.Is; transport failures stay wrapped.
package api

import "errors"

var (
	// ErrAuthRequired is returned before any network I/O when a call that
	// needs a session token is attempted without one. The caller should
	// send the user to login instead of retrying.
	ErrAuthRequired = errors.New("authentication required")

	// ErrBadCredentials is returned when the server rejects a login attempt.
	ErrBadCredentials = errors.New("incorrect email or password")

	// ErrForbidden is returned when the server rejects an update or delete
	// of a message the current user does not own.
	ErrForbidden = errors.New("not allowed to modify this message")

	// ErrSessionInvalid is returned when the server answers an
	// authenticated call with 401. The stored token has already been
	// cleared by the time the caller sees this error.
	ErrSessionInvalid = errors.New("session is no longer valid")

	// ErrUploadFailed wraps any failure of the multipart upload call.
	ErrUploadFailed = errors.New("file upload failed")
)
