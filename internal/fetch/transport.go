package fetch

import "net/http"

// HeaderMapTransport sets fixed headers on every request.
type HeaderMapTransport struct {
	Headers map[string]string
	Base    http.RoundTripper
}

func (t *HeaderMapTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(t.Headers) > 0 {
		req = req.Clone(req.Context())
		for k, v := range t.Headers {
			req.Header.Set(k, v)
		}
	}
	return t.base().RoundTrip(req)
}

func (t *HeaderMapTransport) base() http.RoundTripper {
	if t.Base == nil {
		return http.DefaultTransport
	}
	return t.Base
}
