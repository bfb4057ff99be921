package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const discordAPIBase = "https://discord.com/api/v10"

// DiscordConfig configuration of the Discord notifier
type DiscordConfig struct {
	Token   string
	BaseURL string
}

// Discord posts alerts as embeds to Discord channels using a bot token.
type Discord struct {
	config     DiscordConfig
	httpClient *http.Client
}

func NewDiscord(c DiscordConfig) *Discord {
	if c.BaseURL == "" {
		c.BaseURL = discordAPIBase
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	return &Discord{
		config:     c,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type discordEmbed struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Color       int                 `json:"color"`
	Footer      *discordEmbedFooter `json:"footer,omitempty"`
}

type discordEmbedFooter struct {
	Text string `json:"text"`
}

// Send posts the alert embed to the channel. Discord signals backpressure
// with 429 responses carrying a retry_after duration; those are waited out
// and the identical payload is posted again. Any other non-2xx status is a
// hard failure.
func (d *Discord) Send(ctx context.Context, channelID string, alert Alert) error {
	payload, err := json.Marshal(map[string]interface{}{
		"embeds": []discordEmbed{{
			Title:       alert.title(),
			Description: alert.description(),
			Color:       alert.color(),
			Footer:      &discordEmbedFooter{Text: alert.footer()},
		}},
	})
	if err != nil {
		return errors.Wrap(err, "could not marshal discord payload")
	}

	url := fmt.Sprintf("%s/channels/%s/messages", d.config.BaseURL, channelID)

	for attempt := 0; attempt < maxRateLimitRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return errors.Wrap(err, "could not build discord request")
		}
		req.Header.Set("Authorization", "Bot "+d.config.Token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := d.httpClient.Do(req)
		if err != nil {
			return errors.Wrapf(err, "discord request to channel %s failed", channelID)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			var body struct {
				RetryAfter float64 `json:"retry_after"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				body.RetryAfter = 1.0
			}
			resp.Body.Close()

			wait := time.Duration((body.RetryAfter+0.1)*1000) * time.Millisecond
			log.Debugf("discord rate limited on channel %s, retrying in %s", channelID, wait)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return errors.Errorf("discord returned status %d for channel %s", resp.StatusCode, channelID)
		}
		return nil
	}

	return errors.Errorf("discord rate limit retries exhausted for channel %s", channelID)
}
