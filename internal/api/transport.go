package api

import (
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// RequestIDHeader is sent on every backend call so a page request and the
// API calls it caused can be matched up in the logs.
const RequestIDHeader = "X-Request-ID"

// requestIDTransport forwards the id chi assigned to the incoming page
// request, or a fresh UUID when there is none.
type requestIDTransport struct {
	base http.RoundTripper
}

func (t requestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	if req.Header.Get(RequestIDHeader) != "" {
		return base.RoundTrip(req)
	}

	id := chimiddleware.GetReqID(req.Context())
	if id == "" {
		id = uuid.NewString()
	}
	// RoundTrippers must not modify the caller's request.
	clone := req.Clone(req.Context())
	clone.Header.Set(RequestIDHeader, id)
	return base.RoundTrip(clone)
}
