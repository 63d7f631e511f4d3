package device

import (
	"context"
	"net/http"
	"time"

	"wallet-flows/internal/domain/ports/service"
)

var _ service.Reachability = (*HTTPReachability)(nil)

// HTTPReachability answers the pre-flight connectivity check with a cheap
// HEAD request against the wallet backend.
type HTTPReachability struct {
	url    string
	client *http.Client
}

func NewHTTPReachability(baseURL string) *HTTPReachability {
	return &HTTPReachability{
		url:    baseURL + "/healthz",
		client: &http.Client{Timeout: 2 * time.Second},
	}
}

func (r *HTTPReachability) HasInternetConnection() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, r.url, nil)
	if err != nil {
		return false
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}
