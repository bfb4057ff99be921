package alert

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"upbit-alert-bot/internal/notify"
	"upbit-alert-bot/internal/types"
)

// Store is the persistence contract the engine needs: the registered
// trackers plus the last notified state per (market, channel) key.
type Store interface {
	GetAllTrackers() ([]types.Tracker, error)
	GetLastState(market, channelID string) (*types.AlertState, error)
	UpsertState(market, channelID, state string, ts time.Time) error
}

// PriceSource fetches current trade prices for a batch of markets.
type PriceSource interface {
	FetchTickers(ctx context.Context, markets []string) (map[string]types.Quote, error)
}

// Engine evaluates all trackers against live prices once per tick and sends
// edge-triggered notifications.
type Engine struct {
	store    Store
	source   PriceSource
	notifier notify.Notifier
	now      func() time.Time
}

func NewEngine(store Store, source PriceSource, notifier notify.Notifier) *Engine {
	return &Engine{
		store:    store,
		source:   source,
		notifier: notifier,
		now:      time.Now,
	}
}

// Tick runs one full evaluation cycle. A store or price-source failure skips
// the whole cycle without mutating any state; failures of individual
// trackers are logged and do not affect the rest.
func (e *Engine) Tick(ctx context.Context) error {
	ticksTotal.Inc()

	trackers, err := e.store.GetAllTrackers()
	if err != nil {
		return errors.Wrap(err, "failed to load trackers")
	}
	trackedPairs.Set(float64(len(trackers)))
	if len(trackers) == 0 {
		log.Debug("no trackers registered, skipping tick")
		return nil
	}

	quotes, err := e.source.FetchTickers(ctx, distinctMarkets(trackers))
	if err != nil {
		fetchFailures.Inc()
		return errors.Wrap(err, "price fetch failed, skipping tick")
	}

	for _, t := range trackers {
		e.evaluate(ctx, t, quotes)
	}
	return nil
}

func (e *Engine) evaluate(ctx context.Context, t types.Tracker, quotes map[string]types.Quote) {
	quote, ok := quotes[t.Market]
	if !ok {
		log.Warnf("⚠️ no price data for market %s, skipping", t.Market)
		return
	}
	if quote.Price <= 0 || t.AvgPrice <= 0 {
		return
	}

	pct := (quote.Price - t.AvgPrice) / t.AvgPrice * 100
	state := classify(pct, t.UpThreshold, t.DownThreshold)

	prev, err := e.store.GetLastState(t.Market, t.ChannelID)
	if err != nil {
		log.Errorf("❌ failed to load last state for %s/%s: %v", t.Market, t.ChannelID, err)
		return
	}

	if state == types.StateNeutral {
		// Silence, but a return to neutral re-arms the edge so the next
		// genuine crossing notifies again. Keys never alerted stay rowless.
		if prev != nil && prev.LastState != types.StateNeutral {
			if err := e.store.UpsertState(t.Market, t.ChannelID, state, e.now()); err != nil {
				log.Errorf("❌ failed to persist state for %s/%s: %v", t.Market, t.ChannelID, err)
			}
		}
		return
	}

	if prev != nil && prev.LastState == state {
		return
	}

	err = e.notifier.Send(ctx, t.ChannelID, notify.Alert{
		Market:        t.Market,
		State:         state,
		Price:         quote.Price,
		AvgPrice:      t.AvgPrice,
		Pct:           pct,
		UpThreshold:   t.UpThreshold,
		DownThreshold: t.DownThreshold,
	})
	if err != nil {
		// State stays untouched so the same edge fires again next tick.
		sendFailures.Inc()
		log.Errorf("❌ failed to send alert for %s/%s: %v", t.Market, t.ChannelID, err)
		return
	}
	alertsSent.Inc()
	log.Infof("✅ %s alert sent for %s to channel %s (%.2f%%)", state, t.Market, t.ChannelID, pct)

	if err := e.store.UpsertState(t.Market, t.ChannelID, state, e.now()); err != nil {
		log.Errorf("❌ failed to persist state for %s/%s: %v", t.Market, t.ChannelID, err)
	}
}

func classify(pct, upThreshold, downThreshold float64) string {
	switch {
	case pct >= upThreshold:
		return types.StateAbove
	case pct <= downThreshold:
		return types.StateBelow
	default:
		return types.StateNeutral
	}
}

func distinctMarkets(trackers []types.Tracker) []string {
	seen := make(map[string]struct{}, len(trackers))
	var markets []string
	for _, t := range trackers {
		if _, ok := seen[t.Market]; ok {
			continue
		}
		seen[t.Market] = struct{}{}
		markets = append(markets, t.Market)
	}
	sort.Strings(markets)
	return markets
}
