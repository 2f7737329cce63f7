// Package requestcontext carries request-scoped values (session subject,
// device, client address, request id, request time) through context.Context
// so services can read them without importing net/http.
package requestcontext

import (
	"context"
	"time"
)

type key int

const (
	subjectKey key = iota
	deviceIDKey
	clientIPKey
	userAgentKey
	requestIDKey
	requestTimeKey
)

func str(ctx context.Context, k key) string {
	v, _ := ctx.Value(k).(string)
	return v
}

// Subject is the authenticated app-session subject, or "" for anonymous calls.
func Subject(ctx context.Context) string { return str(ctx, subjectKey) }

func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey, subject)
}

// DeviceID is the device identifier the app presented, from the session token
// or the X-Device-ID header.
func DeviceID(ctx context.Context) string { return str(ctx, deviceIDKey) }

func WithDeviceID(ctx context.Context, deviceID string) context.Context {
	return context.WithValue(ctx, deviceIDKey, deviceID)
}

func ClientIP(ctx context.Context) string  { return str(ctx, clientIPKey) }
func UserAgent(ctx context.Context) string { return str(ctx, userAgentKey) }

func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey, clientIP)
	return context.WithValue(ctx, userAgentKey, userAgent)
}

func RequestID(ctx context.Context) string { return str(ctx, requestIDKey) }

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// Now is the time the request arrived. Outside a request (workers, tests
// without WithTime) it is the wall clock.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey).(time.Time); ok {
		return t
	}
	return time.Now()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey, t)
}
