package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upbit-alert-bot/internal/types"
)

func testAlert() Alert {
	return Alert{
		Market:        "KRW-BTC",
		State:         types.StateAbove,
		Price:         106_000_000,
		AvgPrice:      100_000_000,
		Pct:           6,
		UpThreshold:   5,
		DownThreshold: -5,
	}
}

func TestDiscordSendPostsEmbed(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	d := NewDiscord(DiscordConfig{Token: "secret", BaseURL: server.URL})
	require.NoError(t, d.Send(context.Background(), "123456789012345678", testAlert()))

	assert.Equal(t, "/channels/123456789012345678/messages", gotPath)
	assert.Equal(t, "Bot secret", gotAuth)

	var payload struct {
		Embeds []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Color       int    `json:"color"`
			Footer      struct {
				Text string `json:"text"`
			} `json:"footer"`
		} `json:"embeds"`
	}
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	require.Len(t, payload.Embeds, 1)
	assert.Contains(t, payload.Embeds[0].Title, "KRW-BTC")
	assert.Contains(t, payload.Embeds[0].Description, "+6.00%")
	assert.Equal(t, colorRise, payload.Embeds[0].Color)
	assert.NotEmpty(t, payload.Embeds[0].Footer.Text)
}

func TestDiscordSendWaitsOutRateLimit(t *testing.T) {
	var bodies [][]byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		bodies = append(bodies, body)
		if len(bodies) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]float64{"retry_after": 0.2})
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	d := NewDiscord(DiscordConfig{Token: "secret", BaseURL: server.URL})
	start := time.Now()
	require.NoError(t, d.Send(context.Background(), "123456789012345678", testAlert()))
	elapsed := time.Since(start)

	// Two 429s at retry_after=0.2s each must be waited out in full.
	assert.GreaterOrEqual(t, elapsed, 400*time.Millisecond)
	require.Len(t, bodies, 3)
	// The identical payload goes out on every attempt.
	assert.Equal(t, bodies[0], bodies[1])
	assert.Equal(t, bodies[1], bodies[2])
}

func TestDiscordSendHardFailure(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	d := NewDiscord(DiscordConfig{Token: "secret", BaseURL: server.URL})
	err := d.Send(context.Background(), "123456789012345678", testAlert())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	// Hard failures are not retried.
	assert.Equal(t, 1, attempts)
}

func TestDiscordSendRateLimitRetriesBounded(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]float64{"retry_after": 0})
	}))
	defer server.Close()

	d := NewDiscord(DiscordConfig{Token: "secret", BaseURL: server.URL})
	err := d.Send(context.Background(), "123456789012345678", testAlert())
	require.Error(t, err)
	assert.Equal(t, maxRateLimitRetries, attempts)
}

func TestDiscordSendHonorsContextDuringWait(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]float64{"retry_after": 5})
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	d := NewDiscord(DiscordConfig{Token: "secret", BaseURL: server.URL})
	err := d.Send(ctx, "123456789012345678", testAlert())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAlertDropRendering(t *testing.T) {
	a := testAlert()
	a.State = types.StateBelow
	a.Price = 94_000_000
	a.Pct = -6

	assert.Contains(t, a.title(), "📉")
	assert.Equal(t, colorDrop, a.color())
	assert.Contains(t, a.description(), "-6.00%")
	assert.Contains(t, a.description(), "94,000,000₩")
}
