package ai

import (
	"context"
	"errors"
	"net"
)

// ErrUnavailable indicates the inference service could not be reached or did
// not answer in time. Callers may retry once; any other failure is final.
var ErrUnavailable = errors.New("inference service unavailable")

// IsUnavailable reports whether err is a transient transport failure:
// connection refused, timeout, or an explicit ErrUnavailable wrap.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}
