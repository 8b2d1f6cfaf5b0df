package backend

import "errors"

// ErrNotAuthenticated is returned when an operation needs a principal and no
// valid session exists. Callers treat it as a signal to fall back to the
// guest path, not as a fatal error.
var ErrNotAuthenticated = errors.New("not authenticated")

// AuthError is an authentication failure: bad credentials, a taken email, or
// a missing/expired token.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// BackendError is a transport or storage failure, or an unexpected response
// shape. The message is safe to show to a caller.
type BackendError struct {
	Message string
	Err     error
}

func (e *BackendError) Error() string {
	return e.Message
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err is an authentication failure
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

func authErrorf(message string) error {
	return &AuthError{Message: message}
}

func backendErrorf(message string, err error) error {
	return &BackendError{Message: message, Err: err}
}
