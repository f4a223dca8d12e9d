package content

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jellydator/ttlcache/v3"
	"github.com/pkg/errors"
	"github.com/san-kum/mlviz/internal/config"
	"github.com/san-kum/mlviz/internal/log"
	"go.uber.org/zap"
)

// FetchError is a failed lesson download. Retryable errors are worth
// offering the reader a retry for.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Retryable is true for transport failures, throttling and server errors.
func (e *FetchError) Retryable() bool {
	if e.Status == 0 {
		return !errors.Is(e.Err, context.Canceled)
	}
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

type Fetcher struct {
	// InitialInterval is the first retry delay; later ones back off
	// exponentially.
	InitialInterval time.Duration

	base    *url.URL
	client  *http.Client
	retries int
	cache   *ttlcache.Cache[string, []byte]
	logger  *zap.Logger
}

// NewFetcher resolves relative lesson URLs against cfg.BaseURL. A nil
// client means http.DefaultClient.
func NewFetcher(cfg config.ContentConfig, client *http.Client) (*Fetcher, error) {
	f := &Fetcher{
		InitialInterval: 200 * time.Millisecond,
		client:          client,
		retries:         cfg.Retries,
		logger:          log.Logger().Named("content"),
	}
	if f.client == nil {
		f.client = http.DefaultClient
	}
	if cfg.BaseURL != "" {
		base, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "content base url")
		}
		f.base = base
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = ttlcache.NoTTL
	}
	f.cache = ttlcache.New(ttlcache.WithTTL[string, []byte](ttl), ttlcache.WithDisableTouchOnHit[string, []byte]())
	go f.cache.Start()
	return f, nil
}

// Close stops the cache's expiry loop.
func (f *Fetcher) Close() {
	f.cache.Stop()
}

func (f *Fetcher) resolve(raw string) (string, error) {
	ref, err := url.Parse(raw)
	if err != nil {
		return "", errors.Wrapf(err, "lesson url %q", raw)
	}
	if f.base != nil {
		ref = f.base.ResolveReference(ref)
	}
	if !ref.IsAbs() {
		return "", errors.Errorf("lesson url %q is relative and no base url is configured", raw)
	}
	return ref.String(), nil
}

// Fetch downloads a document, retrying transient failures. Successful
// bodies are cached.
func (f *Fetcher) Fetch(ctx context.Context, raw string) ([]byte, error) {
	u, err := f.resolve(raw)
	if err != nil {
		return nil, err
	}
	if item := f.cache.Get(u); item != nil {
		return item.Value(), nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.InitialInterval
	body, err := backoff.Retry(ctx, func() ([]byte, error) {
		return f.get(ctx, u)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(f.retries+1)),
		backoff.WithNotify(func(err error, d time.Duration) {
			f.logger.Warn("lesson fetch failed, retrying", zap.String("url", u), zap.Duration("in", d), zap.Error(err))
		}),
	)
	if err != nil {
		var fe *FetchError
		if !errors.As(err, &fe) {
			fe = &FetchError{URL: u, Err: err}
		}
		return nil, fe
	}
	f.cache.Set(u, body, ttlcache.DefaultTTL)
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, backoff.Permanent(&FetchError{URL: u, Err: err})
	}
	resp, err := f.client.Do(req)
	if err != nil {
		fe := &FetchError{URL: u, Err: err}
		if !fe.Retryable() {
			return nil, backoff.Permanent(fe)
		}
		return nil, fe
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		fe := &FetchError{URL: u, Status: resp.StatusCode, Err: errors.New(resp.Status)}
		if !fe.Retryable() {
			return nil, backoff.Permanent(fe)
		}
		return nil, fe
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: u, Err: err}
	}
	return body, nil
}

// Lesson fetches the Markdown of a catalog entry.
func (f *Fetcher) Lesson(ctx context.Context, id string) (Course, []byte, error) {
	c, err := Find(id)
	if err != nil {
		return Course{}, nil, err
	}
	if !c.Available() {
		return c, nil, errors.Wrapf(ErrNotAvailable, "%s (%s)", c.ID, c.Status)
	}
	body, err := f.Fetch(ctx, c.FileURL)
	return c, body, err
}
