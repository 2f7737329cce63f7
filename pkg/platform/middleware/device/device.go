// Package device captures the scanning device's identity from request headers.
package device

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"doseguard/pkg/requestcontext"
)

// DeviceIDHeader is set by the patient app to a stable per-install identifier.
const DeviceIDHeader = "X-Device-ID"

const maxDeviceIDLength = 128

// Middleware stores the device identifier header in the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deviceID := strings.TrimSpace(r.Header.Get(DeviceIDHeader))
		if len(deviceID) > maxDeviceIDLength {
			deviceID = deviceID[:maxDeviceIDLength]
		}
		ctx := r.Context()
		if deviceID != "" {
			ctx = requestcontext.WithDeviceID(ctx, deviceID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Profile is what the user agent tells us about the scanning device.
type Profile struct {
	OS      string
	Browser string
	Mobile  bool
	Bot     bool
}

// ParseUserAgent extracts a device profile. An empty user agent yields the zero Profile.
func ParseUserAgent(raw string) Profile {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Profile{}
	}
	ua := useragent.New(raw)
	name, version := ua.Browser()
	browser := strings.TrimSpace(name + " " + version)
	return Profile{
		OS:      ua.OS(),
		Browser: browser,
		Mobile:  ua.Mobile(),
		Bot:     ua.Bot(),
	}
}
