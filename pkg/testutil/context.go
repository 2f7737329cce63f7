package testutil

import (
	"net/http"
	"time"

	"doseguard/pkg/requestcontext"
)

// WithSubject adds an authenticated session subject to the request context.
// This simulates what the auth middleware would do for authenticated requests.
func WithSubject(req *http.Request, subject string) *http.Request {
	return req.WithContext(requestcontext.WithSubject(req.Context(), subject))
}

// WithDevice adds the device identifier and client metadata the device and
// metadata middleware would have captured.
func WithDevice(req *http.Request, deviceID, clientIP, userAgent string) *http.Request {
	ctx := requestcontext.WithClientMetadata(req.Context(), clientIP, userAgent)
	if deviceID != "" {
		ctx = requestcontext.WithDeviceID(ctx, deviceID)
	}
	return req.WithContext(ctx)
}

// WithRequestTime pins the server receive time for the request.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}

// WithRequestID sets the request ID the metadata middleware would generate.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
