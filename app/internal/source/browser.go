package source

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserSource renders the dashboard in a headless browser and returns the
// visible body text. Each Fetch spins up its own browser context and tears it
// down before returning.
type BrowserSource struct {
	URL     string
	Timeout time.Duration
}

// NewBrowserSource creates a browser-backed source for the given page.
func NewBrowserSource(url string, timeout time.Duration) *BrowserSource {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &BrowserSource{URL: url, Timeout: timeout}
}

// Fetch navigates to the dashboard and extracts the rendered body text.
func (s *BrowserSource) Fetch(ctx context.Context) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, s.Timeout)
	defer cancelRun()

	var body string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(s.URL),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		chromedp.Text("body", &body, chromedp.ByQuery),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", &AcquisitionError{Kind: KindTimeout, Err: err}
		}
		return "", &AcquisitionError{Kind: KindNavigationFailed, Err: err}
	}

	if strings.TrimSpace(body) == "" {
		return "", &AcquisitionError{Kind: KindNoContent}
	}
	return body, nil
}
