package holiday

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/teemow/conflictfewer/internal/instrumentation"
	"github.com/teemow/conflictfewer/internal/logging"
	"github.com/teemow/conflictfewer/internal/timeutil"
)

// Searcher runs a web search and returns a text summary of the results.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// CustomSearch implements Searcher on the Google Custom Search API.
type CustomSearch struct {
	svc      *customsearch.Service
	engineID string
}

// NewCustomSearch creates a search client with an API key and a custom
// search engine ID.
func NewCustomSearch(ctx context.Context, apiKey, engineID string) (*CustomSearch, error) {
	if apiKey == "" || engineID == "" {
		return nil, fmt.Errorf("search API key and engine ID are required")
	}
	svc, err := customsearch.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create search service: %w", err)
	}
	return &CustomSearch{svc: svc, engineID: engineID}, nil
}

// Search returns the concatenated snippets of the top results.
func (s *CustomSearch) Search(ctx context.Context, query string) (string, error) {
	resp, err := s.svc.Cse.List().Q(query).Cx(s.engineID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("search failed: %w", err)
	}
	var parts []string
	for _, item := range resp.Items {
		if item.Snippet != "" {
			parts = append(parts, item.Snippet)
		}
	}
	return strings.Join(parts, " "), nil
}

// Cache memoizes holiday verdicts by (country, date). It is an explicit
// object with an injectable clock so tests never share state through a
// package-level map.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

type cacheEntry struct {
	value   bool
	expires time.Time
}

// NewCache creates a cache. A zero ttl means entries live for the process
// lifetime.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// WithClock overrides the cache's clock, for tests.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

func (c *Cache) get(key string) (bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return false, false
	}
	if !e.expires.IsZero() && c.now().After(e.expires) {
		delete(c.entries, key)
		return false, false
	}
	return e.value, true
}

func (c *Cache) put(key string, value bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := cacheEntry{value: value}
	if c.ttl > 0 {
		e.expires = c.now().Add(c.ttl)
	}
	c.entries[key] = e
}

// Len returns the number of cached verdicts.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

var affirmative = []string{
	"public holiday",
	"national holiday",
	"bank holiday",
	"federal holiday",
}

var negative = []string{
	"not a public holiday",
	"not a holiday",
	"is not a national holiday",
}

// Checker answers "is this date a public holiday in this country" with a
// search-based heuristic. It fails open: any search problem means "not a
// holiday", since an unverifiable holiday must not block scheduling.
type Checker struct {
	searcher Searcher
	cache    *Cache
	logger   *slog.Logger
	metrics  *instrumentation.Metrics
}

// NewChecker creates a checker. A nil searcher disables holiday detection.
func NewChecker(searcher Searcher, cache *Cache, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	if cache == nil {
		cache = NewCache(0)
	}
	return &Checker{searcher: searcher, cache: cache, logger: logger}
}

// WithMetrics attaches a recorder for lookup metrics. Returns the checker
// for chaining.
func (c *Checker) WithMetrics(m *instrumentation.Metrics) *Checker {
	c.metrics = m
	return c
}

func (c *Checker) record(ctx context.Context, result string) {
	if c.metrics != nil {
		c.metrics.RecordHolidayLookup(ctx, result)
	}
}

// IsHoliday reports whether the date is a public holiday in the country.
// Negation phrasing in the search results wins over affirmative phrasing.
func (c *Checker) IsHoliday(ctx context.Context, date timeutil.Date, country string) bool {
	if country == "" || c.searcher == nil {
		return false
	}

	key := country + ":" + date.String()
	if cached, ok := c.cache.get(key); ok {
		c.record(ctx, "cached")
		return cached
	}

	query := fmt.Sprintf("Is %s a public holiday in %s?", date, country)
	start := time.Now()
	results, err := c.searcher.Search(ctx, query)
	if c.metrics != nil {
		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
		}
		c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceSearch, instrumentation.OperationSearch, status, time.Since(start))
	}
	if err != nil {
		c.logger.Warn("holiday lookup failed", logging.Operation("is_holiday"), logging.Err(err))
		c.record(ctx, "error")
		return false
	}

	verdict := classify(results)
	c.cache.put(key, verdict)
	if verdict {
		c.record(ctx, "hit")
	} else {
		c.record(ctx, "miss")
	}
	return verdict
}

func classify(results string) bool {
	lower := strings.ToLower(results)

	verdict := false
	for _, phrase := range affirmative {
		if strings.Contains(lower, phrase) {
			verdict = true
			break
		}
	}
	for _, phrase := range negative {
		if strings.Contains(lower, phrase) {
			return false
		}
	}
	return verdict
}
