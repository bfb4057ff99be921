package api

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"

	"upbit-alert-bot/internal/types"
)

// TrackerStore is the write side of tracker registration.
type TrackerStore interface {
	UpsertTracker(t types.Tracker) error
}

// MarketCatalog lists the tradable KRW markets.
type MarketCatalog interface {
	Get(ctx context.Context) ([]types.Market, bool, error)
}

// Handler serves the tracker registration surface: health, market catalog
// and tracker upserts. The alert engine itself has no HTTP interface.
type Handler struct {
	store   TrackerStore
	catalog MarketCatalog
}

func NewHandler(store TrackerStore, catalog MarketCatalog) *Handler {
	return &Handler{store: store, catalog: catalog}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/health", h.handleHealth)
	mux.HandleFunc("/api/markets", h.handleMarkets)
	mux.HandleFunc("/api/track", h.handleTrack)
	mux.HandleFunc("/", h.handleIndex)
}

var (
	bareSymbolRe = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)
	marketRe     = regexp.MustCompile(`^[A-Z]{3,5}-[A-Z0-9]{2,15}$`)
	channelIDRe  = regexp.MustCompile(`^-?\d{6,25}$`)
)

// NormalizeMarket canonicalizes user input: a bare symbol like "btc" becomes
// "KRW-BTC", a full pair like "KRW-ETH" passes through uppercased. Returns
// "" for anything else.
func NormalizeMarket(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if bareSymbolRe.MatchString(s) {
		return "KRW-" + s
	}
	if marketRe.MatchString(s) {
		return s
	}
	return ""
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

func (h *Handler) handleMarkets(w http.ResponseWriter, r *http.Request) {
	markets, _, err := h.catalog.Get(r.Context())
	if err != nil {
		log.Errorf("❌ failed to fetch market catalog: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"ok":  false,
			"msg": "Upbit fetch failed: " + err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, markets)
}

type trackRequest struct {
	Market        string  `json:"market"`
	AvgPrice      float64 `json:"avg_price"`
	UpThreshold   float64 `json:"up_threshold"`
	DownThreshold float64 `json:"down_threshold"`
	ChannelID     string  `json:"channel_id"`
}

func (h *Handler) handleTrack(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req trackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	market := NormalizeMarket(req.Market)
	if market == "" {
		writeError(w, http.StatusBadRequest, "invalid market")
		return
	}
	if req.AvgPrice <= 0 {
		writeError(w, http.StatusBadRequest, "avg_price must be > 0")
		return
	}
	if req.UpThreshold <= 0 || req.DownThreshold >= 0 {
		writeError(w, http.StatusBadRequest, "up must be > 0 and down must be < 0")
		return
	}
	if !channelIDRe.MatchString(req.ChannelID) {
		writeError(w, http.StatusBadRequest, "invalid channel_id")
		return
	}

	err := h.store.UpsertTracker(types.Tracker{
		Market:        market,
		AvgPrice:      req.AvgPrice,
		UpThreshold:   req.UpThreshold,
		DownThreshold: req.DownThreshold,
		ChannelID:     req.ChannelID,
	})
	if err != nil {
		log.Errorf("❌ failed to upsert tracker: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to save tracker")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "market": market})
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if _, err := os.Stat("index.html"); err == nil {
		http.ServeFile(w, r, "index.html")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "msg": "Upload index.html at repo root."})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{"ok": false, "msg": msg})
}
