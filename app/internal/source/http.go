package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPSource fetches the dashboard with a plain GET. Useful when the page is
// server-rendered, or in environments without a browser.
type HTTPSource struct {
	URL     string
	Client  *http.Client
	Timeout time.Duration
}

// NewHTTPSource creates an HTTP-backed source for the given page.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPSource{
		URL:     url,
		Client:  &http.Client{Timeout: timeout},
		Timeout: timeout,
	}
}

// Fetch downloads the page body.
func (s *HTTPSource) Fetch(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return "", &AcquisitionError{Kind: KindNavigationFailed, Err: err}
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", &AcquisitionError{Kind: KindTimeout, Err: err}
		}
		var ne interface{ Timeout() bool }
		if errors.As(err, &ne) && ne.Timeout() {
			return "", &AcquisitionError{Kind: KindTimeout, Err: err}
		}
		return "", &AcquisitionError{Kind: KindNavigationFailed, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &AcquisitionError{
			Kind: KindNavigationFailed,
			Err:  fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", &AcquisitionError{Kind: KindNoContent, Err: err}
	}
	if strings.TrimSpace(string(body)) == "" {
		return "", &AcquisitionError{Kind: KindNoContent}
	}
	return string(body), nil
}
