package upbit

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"upbit-alert-bot/internal/types"
)

// fetchMarkets downloads the full market catalog and keeps the KRW pairs.
func (c *Client) fetchMarkets(ctx context.Context) ([]types.Market, error) {
	url := fmt.Sprintf("%s/v1/market/all?isDetails=false", c.baseURL)

	var lastErr error
	for attempt := 0; attempt < fetchAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(fetchBackoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		var entries []struct {
			Market      string `json:"market"`
			KoreanName  string `json:"korean_name"`
			EnglishName string `json:"english_name"`
		}
		if err := c.getJSON(ctx, url, &entries); err != nil {
			lastErr = err
			continue
		}

		var out []types.Market
		for _, e := range entries {
			if !strings.HasPrefix(e.Market, "KRW-") {
				continue
			}
			name := e.KoreanName
			if name == "" {
				name = e.EnglishName
			}
			if name == "" {
				name = strings.SplitN(e.Market, "-", 2)[1]
			}
			out = append(out, types.Market{Market: e.Market, Name: name})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Market < out[j].Market })
		return out, nil
	}
	return nil, lastErr
}

// Catalog caches the KRW market list so the registration surface does not
// hit the exchange on every request. Expired entries are served stale when a
// refresh fails.
type Catalog struct {
	client *Client
	ttl    time.Duration
	now    func() time.Time

	mu        sync.Mutex
	items     []types.Market
	fetchedAt time.Time
}

func NewCatalog(client *Client, ttl time.Duration) *Catalog {
	return &Catalog{
		client: client,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Get returns the catalog and whether it is fresh. A refresh failure falls
// back to the previously cached list (fresh == false); the error is only
// returned when nothing has ever been cached.
func (c *Catalog) Get(ctx context.Context) ([]types.Market, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.items) > 0 && c.now().Sub(c.fetchedAt) < c.ttl {
		return c.items, true, nil
	}

	items, err := c.client.fetchMarkets(ctx)
	if err != nil {
		if len(c.items) > 0 {
			log.Warnf("market catalog refresh failed, serving stale list: %v", err)
			return c.items, false, nil
		}
		return nil, false, err
	}

	c.items = items
	c.fetchedAt = c.now()
	return c.items, true, nil
}
