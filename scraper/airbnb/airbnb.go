package airbnb

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"stayfinder/config"
	"stayfinder/models"
	"stayfinder/utils"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Scraper reads listings from Airbnb search result pages with a headless
// browser. It implements services.ListingSource.
type Scraper struct {
	cfg    *config.Config
	logger *utils.Logger
	retry  *utils.RetryConfig
}

// New creates a ready-to-use Airbnb Scraper.
func New(cfg *config.Config, logger *utils.Logger) *Scraper {
	return &Scraper{
		cfg:    cfg,
		logger: logger,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

// Fetch walks up to PagesToScrape result pages starting at AirbnbSearchURL,
// then visits each listing's page for its description and photos.
func (s *Scraper) Fetch(ctx context.Context) ([]*models.RawListing, error) {
	s.logger.Info("[airbnb] Starting scrape: %d pages, %d listings/page from %s",
		s.cfg.PagesToScrape, s.cfg.ListingsPerPage, s.cfg.AirbnbSearchURL)

	browserCtx, cancel := s.newBrowser(ctx)
	defer cancel()

	seen := utils.NewSeenSet()
	listings := make([]*models.RawListing, 0)

	pageURL := s.cfg.AirbnbSearchURL
	for page := 1; page <= s.cfg.PagesToScrape && pageURL != ""; page++ {
		cards, next, err := s.scrapePage(browserCtx, pageURL, page)
		if err != nil {
			if len(listings) == 0 {
				return nil, fmt.Errorf("airbnb: page %d: %w", page, err)
			}
			s.logger.Error("[airbnb] Page %d failed, keeping %d listings: %v", page, len(listings), err)
			break
		}

		added := 0
		for _, c := range cards {
			raw := cardToRaw(c)
			if raw == nil {
				continue
			}
			if !seen.Add(raw.ID.String()) {
				s.logger.Debug("[airbnb] Skipping duplicate: %s", raw.URL)
				continue
			}
			listings = append(listings, raw)
			added++
		}
		if added == 0 {
			s.logger.Warn("[airbnb] Page %d returned no new listings, stopping", page)
			break
		}
		s.logger.Info("[airbnb] Page %d done, %d listings so far", page, len(listings))

		pageURL = next
		if err := sleepCtx(ctx, time.Duration(s.cfg.RateLimitMs)*time.Millisecond); err != nil {
			return nil, err
		}
	}

	s.enrich(browserCtx, listings)

	s.logger.Info("[airbnb] Scrape complete, %d raw listings", len(listings))
	return listings, nil
}

func (s *Scraper) newBrowser(ctx context.Context) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)
	if bin := findChromeBinary(s.cfg.ChromeBin); bin != "" {
		s.logger.Debug("[airbnb] Using browser binary: %s", bin)
		opts = append(opts, chromedp.ExecPath(bin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	return browserCtx, func() {
		cancelBrowser()
		cancelAlloc()
	}
}

// scrapePage loads one search results page and returns its cards and the
// next page's URL, if any.
func (s *Scraper) scrapePage(browserCtx context.Context, pageURL string, page int) ([]card, string, error) {
	var cards []card
	var next string

	err := s.retry.Do(browserCtx, fmt.Sprintf("scrape-page-%d", page), func() error {
		tabCtx, cancel := chromedp.NewContext(browserCtx)
		defer cancel()
		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, 90*time.Second)
		defer cancelTimeout()

		err := chromedp.Run(tabCtx,
			chromedp.Navigate(pageURL),
			chromedp.Sleep(5*time.Second),
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(2*time.Second),
			chromedp.Evaluate(cardsScript(s.cfg.ListingsPerPage), &cards),
			chromedp.Evaluate(nextPageScript, &next),
		)
		if err != nil {
			return fmt.Errorf("chromedp page scrape: %w", err)
		}
		return nil
	})

	s.logger.Debug("[airbnb] Page %d: %d cards", page, len(cards))
	return cards, next, err
}

// enrich visits detail pages on the worker pool. Failures leave the card
// data in place.
func (s *Scraper) enrich(browserCtx context.Context, listings []*models.RawListing) {
	pool := utils.NewWorkerPool(s.cfg.MaxConcurrency, s.cfg.RateLimitMs)
	for _, listing := range listings {
		l := listing
		pool.Submit(func() {
			if browserCtx.Err() != nil {
				return
			}
			d, err := s.scrapeDetail(browserCtx, l.URL)
			if err != nil {
				s.logger.Warn("[airbnb] Detail page failed for %s: %v", l.URL, err)
				return
			}
			mergeDetail(l, d)
			s.logger.Debug("[airbnb] Enriched: %s", l.Name)
		})
	}
	pool.Wait()
}

func (s *Scraper) scrapeDetail(browserCtx context.Context, url string) (detail, error) {
	var d detail
	err := s.retry.Do(browserCtx, "detail-page", func() error {
		tabCtx, cancel := chromedp.NewContext(browserCtx)
		defer cancel()
		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, 60*time.Second)
		defer cancelTimeout()

		if err := chromedp.Run(tabCtx,
			chromedp.Navigate(url),
			chromedp.Sleep(4*time.Second),
			chromedp.Evaluate(detailScript, &d),
		); err != nil {
			return fmt.Errorf("chromedp detail extract: %w", err)
		}
		return nil
	})
	return d, err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// findChromeBinary locates Chrome/Chromium. An explicit path wins.
func findChromeBinary(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	for _, name := range []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	for _, p := range []string{"/usr/bin/chromium", "/snap/bin/chromium", "/opt/google/chrome/google-chrome"} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
