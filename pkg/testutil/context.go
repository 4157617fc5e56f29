package testutil

import (
	"context"
	"net/http"
	"time"

	"casecheck/pkg/requestcontext"
)

// FixedTime is the request time used by handler and service tests.
var FixedTime = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

// WithActor marks the request as authenticated by the given provider.
func WithActor(req *http.Request, actor string) *http.Request {
	return req.WithContext(requestcontext.WithActorID(req.Context(), actor))
}

// Context returns a background context with the request clock pinned to FixedTime.
func Context() context.Context {
	return requestcontext.WithTime(context.Background(), FixedTime)
}
