package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"git.home.luguber.info/inful/clomonitor/internal/version"
)

// Get issues a GET request identified with the service user agent.
func Get(ctx context.Context, client *http.Client, url string) (*http.Response, error) {
	return do(ctx, client, http.MethodGet, url)
}

// Head issues a HEAD request identified with the service user agent.
func Head(ctx context.Context, client *http.Client, url string) (*http.Response, error) {
	return do(ctx, client, http.MethodHead, url)
}

// GetBody fetches url and returns the response body. Non-2xx statuses are
// reported as errors.
func GetBody(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	resp, err := Get(ctx, client, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status fetching %s: %s", url, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body from %s: %w", url, err)
	}
	return data, nil
}

// Exists probes url with a HEAD request and reports whether it answered
// with a 2xx status.
func Exists(ctx context.Context, client *http.Client, url string) (bool, error) {
	resp, err := Head(ctx, client, url)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode <= 299, nil
}

func do(ctx context.Context, client *http.Client, method, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating %s request for %s: %w", method, url, err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	return client.Do(req)
}
