package notify

import (
	"context"
	"fmt"

	"upbit-alert-bot/internal/types"
	"upbit-alert-bot/lib/helpers"
	"upbit-alert-bot/lib/translation"
)

// Colors used for rise/drop alerts, matching the web UI palette.
const (
	colorRise = 0x22c55e
	colorDrop = 0xef4444
)

const maxRateLimitRetries = 10

// Alert is one notification about a market crossing a tracker threshold.
type Alert struct {
	Market        string
	State         string
	Price         float64
	AvgPrice      float64
	Pct           float64
	UpThreshold   float64
	DownThreshold float64
}

// Notifier delivers alerts to an external messaging destination.
type Notifier interface {
	Send(ctx context.Context, channelID string, alert Alert) error
}

func (a Alert) title() string {
	if a.State == types.StateAbove {
		return fmt.Sprintf("📈 %s %s", a.Market, translation.Translate("rise alert"))
	}
	return fmt.Sprintf("📉 %s %s", a.Market, translation.Translate("drop alert"))
}

func (a Alert) description() string {
	return fmt.Sprintf("%s: **%s**\n%s: **%s**\n%s: **%s** (↑%s / ↓%s)",
		translation.Translate("Current price"), helpers.FormatWon(a.Price),
		translation.Translate("Reference price"), helpers.FormatWon(a.AvgPrice),
		translation.Translate("Change"), helpers.FormatPct(a.Pct),
		helpers.FormatPct(a.UpThreshold), helpers.FormatPct(a.DownThreshold),
	)
}

func (a Alert) color() int {
	if a.State == types.StateAbove {
		return colorRise
	}
	return colorDrop
}

func (a Alert) footer() string {
	return translation.Translate("Upbit alerts")
}

// markdownV2 renders the alert as a Telegram MarkdownV2 message.
func (a Alert) markdownV2() string {
	return fmt.Sprintf("*%s*\n\n%s: *%s*\n%s: *%s*\n%s: *%s* \\(↑%s / ↓%s\\)",
		helpers.EscapeMarkdownV2(a.title()),
		helpers.EscapeMarkdownV2(translation.Translate("Current price")), helpers.EscapeMarkdownV2(helpers.FormatWon(a.Price)),
		helpers.EscapeMarkdownV2(translation.Translate("Reference price")), helpers.EscapeMarkdownV2(helpers.FormatWon(a.AvgPrice)),
		helpers.EscapeMarkdownV2(translation.Translate("Change")), helpers.EscapeMarkdownV2(helpers.FormatPct(a.Pct)),
		helpers.EscapeMarkdownV2(helpers.FormatPct(a.UpThreshold)), helpers.EscapeMarkdownV2(helpers.FormatPct(a.DownThreshold)),
	)
}
