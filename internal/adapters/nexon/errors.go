package nexon

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel kinds for upstream lookups.
var (
	// ErrGuildNotFound is returned when the upstream has no id or no
	// basic payload for the requested guild.
	ErrGuildNotFound = errors.New("guild not found")
)

// StatusError reports a failed upstream call. Code is the HTTP status,
// or 0 for transport failures that never produced a response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Code == 0 {
		return fmt.Sprintf("upstream transport error: %s", e.Message)
	}
	return fmt.Sprintf("upstream status %d: %s", e.Code, e.Message)
}

// IsRateLimited reports whether err is an upstream 429. This is the
// only condition eligible for retry.
func IsRateLimited(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusTooManyRequests
}
