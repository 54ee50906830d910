package state

import "errors"

// ErrStoreClosed is returned by blocking store calls after Close.
var ErrStoreClosed = errors.New("state store closed")
