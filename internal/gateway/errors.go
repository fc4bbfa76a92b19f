package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrUnreachable means the request never produced an HTTP response.
	ErrUnreachable = errors.New("gateway unreachable")
	// ErrRejected means the gateway answered with a non-success status.
	ErrRejected = errors.New("gateway rejected request")
)

// StatusError carries a non-2xx response. It matches ErrRejected.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway error: status=%d body=%s", e.Status, e.Body)
}

func (e *StatusError) Is(target error) bool { return target == ErrRejected }
