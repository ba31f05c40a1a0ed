// Package webhook defines the inbound provider notification: its wire
// format, field extraction and the authenticity port.
package webhook

import (
	"fmt"
	"net/url"
)

// Notification is one parsed provider webhook. The provider posts
// application/x-www-form-urlencoded bodies, not JSON, regardless of the
// declared content type.
type Notification struct {
	SessionID         string
	RefundedSessionID string
	Status            string
	State             string
}

// IsRefund reports whether the notification is a refund confirmation.
// A refund is recognized solely by the presence of refunded_session_id:
// session_id then identifies the refund transaction itself, while
// refunded_session_id carries the original payment's session.
func (n Notification) IsRefund() bool {
	return n.RefundedSessionID != ""
}

// LookupSessionID is the session id the order must be found by.
func (n Notification) LookupSessionID() string {
	if n.IsRefund() {
		return n.RefundedSessionID
	}
	return n.SessionID
}

// ErrMissingFields reports which required notification fields were absent or
// empty. The dispatcher decides whether this is surfaced or passed through.
type ErrMissingFields struct {
	Fields []string
}

func (e *ErrMissingFields) Error() string {
	return fmt.Sprintf("notification missing required fields: %v", e.Fields)
}

// Parse extracts a Notification from a raw form-urlencoded body. Required
// keys are session_id and status; both must be present and non-empty.
func Parse(rawBody []byte) (Notification, error) {
	values, err := url.ParseQuery(string(rawBody))
	if err != nil {
		return Notification{}, fmt.Errorf("parse form body: %w", err)
	}

	n := Notification{
		SessionID:         values.Get("session_id"),
		RefundedSessionID: values.Get("refunded_session_id"),
		Status:            values.Get("status"),
		State:             values.Get("state"),
	}

	var missing []string
	if n.SessionID == "" {
		missing = append(missing, "session_id")
	}
	if n.Status == "" {
		missing = append(missing, "status")
	}
	if len(missing) > 0 {
		return Notification{}, &ErrMissingFields{Fields: missing}
	}

	return n, nil
}

// Authenticator verifies a webhook's authenticity. Verification always runs
// over the untouched raw body: re-serializing a parsed form can silently
// alter a signed payload.
type Authenticator interface {
	// Verify returns whether the body is authentic and, when it is not, a
	// diagnostic reason suitable for the response body.
	Verify(rawBody []byte, signature string) (ok bool, reason string)
}
