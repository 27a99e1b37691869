package server

import "errors"

var (
	// ErrReplierRequired indicates New was called without a Replier.
	ErrReplierRequired = errors.New("replier is required")

	// ErrBadRequest marks a request the caller must fix before retrying.
	ErrBadRequest = errors.New("bad request")

	// ErrRequestTooLarge indicates the body exceeded the configured limit.
	ErrRequestTooLarge = errors.New("request body too large")
)
