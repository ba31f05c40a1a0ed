package health

import (
	"context"
	"time"
)

// DefaultTimeout bounds a single readiness check.
const DefaultTimeout = 5 * time.Second

// Status of a checked dependency.
type Status string

const (
	StatusUp   Status = "up"
	StatusDown Status = "down"
)

// Result of probing one dependency.
type Result struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// Checker watches one dependency the gateway cannot serve webhooks without.
type Checker interface {
	// Name identifies the dependency in the readiness response.
	Name() string
	Check(ctx context.Context) Result
}
