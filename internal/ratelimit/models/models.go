// Package models holds the rate limiting vocabulary shared by stores and middleware.
package models

import "time"

// EndpointClass categorizes endpoints for differentiated rate limiting.
type EndpointClass string

const (
	// ClassAPI: fee-earner facing check endpoints, keyed by client IP.
	ClassAPI EndpointClass = "api"
	// ClassWebhook: provider deliveries, keyed by the authenticated provider.
	ClassWebhook EndpointClass = "webhook"
)

// IsValid checks if the endpoint class is one of the supported enum values.
func (c EndpointClass) IsValid() bool {
	switch c {
	case ClassAPI, ClassWebhook:
		return true
	}
	return false
}

// Limit is a request budget over a sliding window.
type Limit struct {
	Requests int
	Window   time.Duration
}

// RateLimitResult is the outcome of one Allow call.
type RateLimitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is in whole seconds and only set when denied.
	RetryAfter int
}

// RateLimitExceededResponse is the API response when a limit is exceeded.
type RateLimitExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}

// Key builds the bucket key for a class and identifier.
func Key(class EndpointClass, identifier string) string {
	return "ratelimit:" + string(class) + ":" + identifier
}
