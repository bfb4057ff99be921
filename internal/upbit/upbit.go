package upbit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"upbit-alert-bot/internal/types"
)

const (
	// Upbit caps the ticker endpoint at this many markets per request.
	tickerChunkSize = 30

	fetchAttempts = 3
	fetchBackoff  = 800 * time.Millisecond

	userAgent = "UpbitAlertBot/1.0"
)

// ErrSourceUnavailable is returned when no quote chunk could be fetched
// after exhausting retries.
var ErrSourceUnavailable = errors.New("upbit source unavailable")

// Client talks to the Upbit public REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// FetchTickers returns the current trade price for each requested market.
// Requests are chunked to stay within the provider's per-call limit and each
// chunk is retried independently; markets whose chunk ultimately failed are
// simply absent from the result. Only when every chunk fails does the whole
// call error out.
func (c *Client) FetchTickers(ctx context.Context, markets []string) (map[string]types.Quote, error) {
	out := make(map[string]types.Quote)
	if len(markets) == 0 {
		return out, nil
	}

	var lastErr error
	failed := 0
	chunks := 0
	for i := 0; i < len(markets); i += tickerChunkSize {
		end := i + tickerChunkSize
		if end > len(markets) {
			end = len(markets)
		}
		chunks++

		quotes, err := c.fetchTickerChunk(ctx, markets[i:end])
		if err != nil {
			log.Errorf("failed to fetch ticker chunk %v: %v", markets[i:end], err)
			lastErr = err
			failed++
			continue
		}
		for m, q := range quotes {
			out[m] = q
		}
	}

	if failed == chunks && lastErr != nil {
		return nil, errors.Wrap(ErrSourceUnavailable, lastErr.Error())
	}
	return out, nil
}

func (c *Client) fetchTickerChunk(ctx context.Context, markets []string) (map[string]types.Quote, error) {
	url := fmt.Sprintf("%s/v1/ticker?markets=%s", c.baseURL, strings.Join(markets, ","))

	var lastErr error
	for attempt := 0; attempt < fetchAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(fetchBackoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		var tickers []struct {
			Market     string  `json:"market"`
			TradePrice float64 `json:"trade_price"`
		}
		if err := c.getJSON(ctx, url, &tickers); err != nil {
			lastErr = err
			continue
		}

		quotes := make(map[string]types.Quote, len(tickers))
		for _, t := range tickers {
			quotes[t.Market] = types.Quote{Market: t.Market, Price: t.TradePrice}
		}
		return quotes, nil
	}
	return nil, lastErr
}

func (c *Client) getJSON(ctx context.Context, url string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "could not build upbit request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "upbit request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("upbit returned status %d for %s", resp.StatusCode, url)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return errors.Wrap(err, "could not parse upbit response")
	}
	return nil
}
