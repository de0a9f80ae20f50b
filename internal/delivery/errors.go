// Package delivery relays composed payloads to webhook endpoints with bounded
// retries.
package delivery

import (
	"errors"
	"fmt"
	"net/url"
)

// ErrNoEndpoint indicates that neither the rule nor the default provides a
// webhook URL.
var ErrNoEndpoint = errors.New("delivery: no webhook endpoint")

// StatusError is a webhook response outside the 2xx range.
type StatusError struct {
	Code     int
	Status   string
	Response string // dump of the response, body truncated
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("delivery: webhook returned %s", e.Status)
}

// Retryable reports true: every non-2xx answer is retried until the policy
// runs out.
func (e *StatusError) Retryable() bool {
	return true
}

// Is implements errors.Is for StatusError.
func (e *StatusError) Is(target error) bool {
	_, ok := target.(*StatusError)
	return ok
}

// ErrStatus is a sentinel for errors.Is matching.
var ErrStatus = &StatusError{}

// RedactURL keeps scheme and host of a webhook URL. Webhook paths carry the
// token that authorizes posting.
func RedactURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "<invalid url>"
	}
	if u.Path == "" || u.Path == "/" {
		return u.Scheme + "://" + u.Host
	}
	return u.Scheme + "://" + u.Host + "/…"
}
