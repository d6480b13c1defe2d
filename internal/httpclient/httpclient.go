// Package httpclient provides the shared HTTP client used for catalogue
// downloads and remote file probes. Transient failures (transport errors
// and 5xx responses) are retried with exponential backoff; other statuses
// are returned to the caller untouched.
package httpclient

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"git.home.luguber.info/inful/clomonitor/internal/logfields"
)

const (
	requestTimeout = 30 * time.Second
	maxRedirects   = 10

	initialInterval = 500 * time.Millisecond
	maxInterval     = 10 * time.Second
	maxElapsedTime  = time.Minute
)

var errServer = errors.New("server error")

// New returns an HTTP client with timeouts, a redirect cap and retries for
// transient failures. The transport is cloned from the default one so proxy
// environment variables keep working.
func New() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	return &http.Client{
		Timeout:   requestTimeout,
		Transport: &retryTransport{base: transport},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}

// retryTransport retries idempotent requests with exponential backoff.
// Requests with a body pass through unretried.
type retryTransport struct {
	base http.RoundTripper
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return t.base.RoundTrip(req)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = initialInterval
	policy.MaxInterval = maxInterval
	policy.MaxElapsedTime = maxElapsedTime

	var resp *http.Response
	operation := func() error {
		var err error
		resp, err = t.base.RoundTrip(req)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 500 && resp.StatusCode <= 599 {
			status := resp.Status
			resp.Body.Close()
			resp = nil
			return fmt.Errorf("%w: %s", errServer, status)
		}
		return nil
	}
	notify := func(err error, wait time.Duration) {
		slog.Warn("Retrying HTTP request",
			logfields.URL(req.URL.String()),
			slog.Duration("wait", wait),
			logfields.Error(err))
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(policy, req.Context()), notify); err != nil {
		return nil, err
	}
	return resp, nil
}
