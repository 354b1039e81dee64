package model

import (
	"encoding/json"
	"time"
)

// Record is a persisted event log row. Rows are append-only: the store
// assigns ID on insert and never updates or deletes them.
type Record struct {
	ID         int64           `json:"id"`
	NodeID     int64           `json:"node_id"`
	ActionName string          `json:"action_name"`
	Email      string          `json:"email,omitempty"` // empty is stored as NULL
	Data       json.RawMessage `json:"data"`
	Timestamp  time.Time       `json:"timestamp"`
}

// Node identifies the member site an event originated from.
type Node struct {
	ID  int64  `json:"id"`
	URL string `json:"url,omitempty"`
}
