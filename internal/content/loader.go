// Package content holds the live service catalog and price list, and knows
// where to load them from at startup.
package content

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/importers"
	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/models"
)

// Defaults applied when a Loader field is left zero.
const (
	DefaultFetchTimeout = 10 * time.Second
	DefaultBackoff      = 250 * time.Millisecond
)

// Loader fetches services.json and prices.json from a remote base URL.
type Loader struct {
	BaseURL string
	Client  *http.Client
	// Timeout bounds each individual request attempt.
	Timeout time.Duration
	// Retries is the number of extra attempts per document after the first.
	Retries uint64
	// Backoff is the initial delay of the exponential retry schedule.
	Backoff time.Duration

	now func() time.Time
}

// Load fetches both documents concurrently. Either both succeed or Load
// returns an error and no data.
func (l *Loader) Load(ctx context.Context) ([]models.Service, []models.Price, error) {
	if l.BaseURL == "" {
		return nil, nil, errors.New("content: no base url configured")
	}

	stamp := strconv.FormatInt(l.clock().UnixMilli(), 10)

	var (
		services []models.Service
		prices   []models.Price
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return l.fetch(gctx, importers.FileServices, stamp, func(resp *http.Response) error {
			var err error
			services, err = importers.ParseServices(resp.Body)
			return err
		})
	})
	g.Go(func() error {
		return l.fetch(gctx, importers.FilePrices, stamp, func(resp *http.Response) error {
			var err error
			prices, err = importers.ParsePrices(resp.Body)
			return err
		})
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return services, prices, nil
}

// DocumentURL returns the cache-busted URL of a document under BaseURL.
func (l *Loader) DocumentURL(file, stamp string) string {
	return strings.TrimRight(l.BaseURL, "/") + "/" + file + "?t=" + stamp
}

func (l *Loader) fetch(ctx context.Context, file, stamp string, decode func(*http.Response) error) error {
	url := l.DocumentURL(file, stamp)
	backoff := retry.WithMaxRetries(l.Retries, retry.NewExponential(l.backoff()))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, l.timeout())
		defer cancel()

		req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Cache-Control", "no-cache")

		resp, err := l.client().Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return retry.RetryableError(fmt.Errorf("status %d", resp.StatusCode))
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		return decode(resp)
	})
	if err != nil {
		return fmt.Errorf("content: fetch %s: %w", file, err)
	}
	return nil
}

func (l *Loader) client() *http.Client {
	if l.Client != nil {
		return l.Client
	}
	return http.DefaultClient
}

func (l *Loader) timeout() time.Duration {
	if l.Timeout > 0 {
		return l.Timeout
	}
	return DefaultFetchTimeout
}

func (l *Loader) backoff() time.Duration {
	if l.Backoff > 0 {
		return l.Backoff
	}
	return DefaultBackoff
}

func (l *Loader) clock() time.Time {
	if l.now != nil {
		return l.now()
	}
	return time.Now()
}
