package device

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"

	"doseguard/pkg/requestcontext"
)

type DeviceSuite struct {
	suite.Suite
}

func TestDeviceSuite(t *testing.T) {
	suite.Run(t, new(DeviceSuite))
}

func (s *DeviceSuite) TestParseUserAgent() {
	s.Run("empty user agent yields zero profile", func() {
		s.Equal(Profile{}, ParseUserAgent("  "))
	})

	s.Run("safari on iphone is mobile", func() {
		p := ParseUserAgent("Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1")
		s.True(p.Mobile)
		s.Contains(p.Browser, "Safari")
		s.False(p.Bot)
	})

	s.Run("firefox on linux is not mobile", func() {
		p := ParseUserAgent("Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0")
		s.False(p.Mobile)
		s.Contains(p.Browser, "Firefox")
		s.NotEmpty(p.OS)
	})
}

func (s *DeviceSuite) TestMiddleware() {
	var got string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = requestcontext.DeviceID(r.Context())
	}))

	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.Header.Set(DeviceIDHeader, " install-42 ")
	h.ServeHTTP(httptest.NewRecorder(), r)
	s.Equal("install-42", got)
}
