package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUninitialized   = errors.New("gateway not initialized")
	ErrUnauthenticated = errors.New("user not authenticated")
	ErrObjectExists    = errors.New("object already exists")

	// ErrConfirmationPending is returned by SignUp when the account was
	// created but the backend issues no session until the e-mail address is
	// confirmed.
	ErrConfirmationPending = errors.New("sign-up requires e-mail confirmation")
)

// Code values produced by the gateways themselves. Backend codes are kept
// as reported.
const (
	CodeNetwork = "network"
)

// RemoteError is any failure reported by, or on the way to, the backend.
type RemoteError struct {
	// Status is the HTTP status code, 0 when the request never completed.
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Is lets conflict responses from storage match ErrObjectExists.
func (e *RemoteError) Is(target error) bool {
	return target == ErrObjectExists && e.Status == http.StatusConflict
}

// NetworkError wraps a transport failure.
func NetworkError(err error) *RemoteError {
	return &RemoteError{Code: CodeNetwork, Message: err.Error(), Err: err}
}

// IsRemote returns the RemoteError inside err, if any.
func IsRemote(err error) (*RemoteError, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
