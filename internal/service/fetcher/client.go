package fetcher

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

const (
	dialTimeout           = 30 * time.Second
	tlsHandshakeTimeout   = 10 * time.Second
	responseHeaderTimeout = 30 * time.Second
	maxRedirects          = 10
)

var (
	errInsecureRedirect = errors.New("redirect to non-https url is not allowed")
	errTooManyRedirects = errors.New("too many redirects")
)

// newHTTPClient builds the client used for release downloads. Release hosts
// redirect to CDNs, so redirects are followed as long as they stay on HTTPS.
// Overall duration is bounded per request by the caller's context.
func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:              http.ProxyFromEnvironment,
			DisableCompression: true,
			DialContext: (&net.Dialer{
				Timeout:   dialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   tlsHandshakeTimeout,
			ResponseHeaderTimeout: responseHeaderTimeout,
			ExpectContinueTimeout: time.Second,
		},
		CheckRedirect: checkRedirect,
	}
}

func checkRedirect(req *http.Request, via []*http.Request) error {
	if req.URL.Scheme != "https" {
		return fmt.Errorf("%s: %w", req.URL.Redacted(), errInsecureRedirect)
	}

	if len(via) >= maxRedirects {
		return errTooManyRedirects
	}

	return nil
}
