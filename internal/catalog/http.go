package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// HTTPOptions configures the HTTP catalog source.
type HTTPOptions struct {
	UserAgent string
	Timeout   time.Duration
	CacheTTL  time.Duration
	Limiter   *rate.Limiter
}

// HTTPSource loads a JSON catalog from a remote endpoint, caching the
// result in memory for the configured TTL.
type HTTPSource struct {
	url     string
	client  *http.Client
	opts    HTTPOptions
	limiter *rate.Limiter

	mu        sync.Mutex
	cached    *Catalog
	fetchedAt time.Time
}

// NewHTTPSource creates an HTTPSource for the given catalog URL.
func NewHTTPSource(url string, opts HTTPOptions) *HTTPSource {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = 15 * time.Minute
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "delivery-cli/1.0"
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(5, 5)
	}
	return &HTTPSource{
		url:     url,
		client:  &http.Client{Timeout: opts.Timeout},
		opts:    opts,
		limiter: limiter,
	}
}

func (s *HTTPSource) Load(ctx context.Context) (*Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil && time.Since(s.fetchedAt) < s.opts.CacheTTL {
		return s.cached, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "catalog: rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: create request")
	}
	req.Header.Set("User-Agent", s.opts.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: fetch %s", s.url)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("catalog: unexpected status %d from %s", resp.StatusCode, s.url)
	}

	var c Catalog
	if err := json.NewDecoder(resp.Body).Decode(&c); err != nil {
		return nil, eris.Wrapf(err, "catalog: decode %s", s.url)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	s.cached = &c
	s.fetchedAt = time.Now()
	zap.L().Debug("catalog fetched",
		zap.String("url", s.url),
		zap.Int("domains", len(c.Domains)),
		zap.Int("functions", len(c.Functions)),
	)
	return s.cached, nil
}
