package types

import "time"

// Alert classification states for a tracked market.
const (
	StateAbove   = "above"
	StateBelow   = "below"
	StateNeutral = "neutral"
)

// Tracker is a user's request to watch one market against a reference price.
// Uniquely keyed by (Market, ChannelID); re-registration overwrites the
// price and threshold fields in place.
type Tracker struct {
	Market        string  `json:"market"`
	AvgPrice      float64 `json:"avg_price"`
	UpThreshold   float64 `json:"up_threshold"`
	DownThreshold float64 `json:"down_threshold"`
	ChannelID     string  `json:"channel_id"`
}

// AlertState records the last notified classification for a tracker key.
// A missing record means no alert has ever been delivered for the key.
type AlertState struct {
	Market    string    `json:"market"`
	ChannelID string    `json:"channel_id"`
	LastState string    `json:"last_state"`
	LastTS    time.Time `json:"last_ts"`
}

// Quote is the current traded price of a market for a single polling cycle.
// Quotes are never persisted.
type Quote struct {
	Market string  `json:"market"`
	Price  float64 `json:"trade_price"`
}

// Market is one entry of the exchange's KRW market catalog.
type Market struct {
	Market string `json:"market"`
	Name   string `json:"name"`
}
