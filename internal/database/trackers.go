package database

import (
	"database/sql"
	"fmt"
	"time"

	"upbit-alert-bot/internal/types"
)

// UpsertTracker inserts a tracker or, when the (market, channel_id) key
// already exists, overwrites its reference price and thresholds in place.
func (s *Store) UpsertTracker(t types.Tracker) error {
	query := `
	INSERT INTO trackers (market, avg_price, up_threshold, down_threshold, channel_id)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(market, channel_id) DO UPDATE SET
		avg_price = excluded.avg_price,
		up_threshold = excluded.up_threshold,
		down_threshold = excluded.down_threshold;`

	_, err := s.db.Exec(query, t.Market, t.AvgPrice, t.UpThreshold, t.DownThreshold, t.ChannelID)
	if err != nil {
		return fmt.Errorf("failed to upsert tracker: %w", err)
	}
	return nil
}

// GetAllTrackers fetches every registered tracker.
func (s *Store) GetAllTrackers() ([]types.Tracker, error) {
	query := `SELECT market, avg_price, up_threshold, down_threshold, channel_id FROM trackers;`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query trackers: %w", err)
	}
	defer rows.Close()

	var trackers []types.Tracker
	for rows.Next() {
		var t types.Tracker
		if err := rows.Scan(&t.Market, &t.AvgPrice, &t.UpThreshold, &t.DownThreshold, &t.ChannelID); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		trackers = append(trackers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trackers: %w", err)
	}

	return trackers, nil
}

// GetLastState returns the last notified state for a tracker key, or nil
// when no alert has been delivered for it yet.
func (s *Store) GetLastState(market, channelID string) (*types.AlertState, error) {
	query := `SELECT last_state, last_ts FROM last_alert WHERE market = ? AND channel_id = ?;`

	var state string
	var ts int64
	err := s.db.QueryRow(query, market, channelID).Scan(&state, &ts)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get last state for %s/%s: %w", market, channelID, err)
	}

	return &types.AlertState{
		Market:    market,
		ChannelID: channelID,
		LastState: state,
		LastTS:    time.Unix(ts, 0),
	}, nil
}

// UpsertState records the state that was just notified for a tracker key.
func (s *Store) UpsertState(market, channelID, state string, ts time.Time) error {
	query := `
	INSERT INTO last_alert (market, channel_id, last_state, last_ts)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(market, channel_id) DO UPDATE SET
		last_state = excluded.last_state,
		last_ts = excluded.last_ts;`

	_, err := s.db.Exec(query, market, channelID, state, ts.Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert last state: %w", err)
	}
	return nil
}
