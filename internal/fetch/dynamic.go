package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/SebbyC/runiuni-agent-pipeline/internal/logger"
	"github.com/chromedp/chromedp"
)

// DynamicFetcher uses chromedp for JavaScript-rendered pages. Facebook and
// Meetup pages often serve an empty shell to plain HTTP clients.
type DynamicFetcher struct {
	config    Config
	allocCtx  context.Context
	cancelCtx context.CancelFunc
}

// NewDynamicFetcher creates a new dynamic fetcher with a browser instance.
func NewDynamicFetcher(cfg Config) (*DynamicFetcher, error) {
	logger.Debug("creating dynamic fetcher")

	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultConfig().UserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	// Include stealth options to avoid bot detection
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(cfg.UserAgent),
		chromedp.WindowSize(1920, 1080),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	return &DynamicFetcher{
		config:    cfg,
		allocCtx:  allocCtx,
		cancelCtx: cancelAlloc,
	}, nil
}

// Fetch retrieves page content using a headless browser.
func (f *DynamicFetcher) Fetch(ctx context.Context, targetURL string, opts Options) (PageContent, error) {
	logger.Debug("dynamic fetch starting", "url", targetURL)

	result := PageContent{
		URL:       targetURL,
		FetchedAt: time.Now(),
	}

	browserCtx, cancelBrowser := chromedp.NewContext(f.allocCtx)
	defer cancelBrowser()

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = f.config.Timeout
	}
	timeoutCtx, cancelTimeout := context.WithTimeout(browserCtx, timeout)
	defer cancelTimeout()

	var html string
	actions := []chromedp.Action{
		chromedp.Navigate(targetURL),
	}

	if opts.WaitForSelector != "" {
		actions = append(actions, chromedp.WaitVisible(opts.WaitForSelector))
	} else {
		actions = append(actions, chromedp.WaitVisible("body"))
	}

	if opts.WaitDuration > 0 {
		actions = append(actions, chromedp.Sleep(opts.WaitDuration))
	}

	actions = append(actions, chromedp.OuterHTML("html", &html))

	if err := chromedp.Run(timeoutCtx, actions...); err != nil {
		return result, fmt.Errorf("browser automation failed: %w", err)
	}

	result.HTML = html
	result.ContentType = "text/html"
	result.StatusCode = 200 // chromedp doesn't easily expose status codes

	logger.Debug("dynamic fetch complete", "url", targetURL, "html_size", len(html))
	return result, nil
}

// Close releases browser resources.
func (f *DynamicFetcher) Close() error {
	if f.cancelCtx != nil {
		f.cancelCtx()
	}
	return nil
}

// Type returns the fetcher type.
func (f *DynamicFetcher) Type() string {
	return "dynamic"
}
