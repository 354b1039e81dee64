package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/alfredjeanlab/nethub/internal/model"
	"github.com/alfredjeanlab/nethub/internal/store"
)

// exportPageSize is the number of rows fetched per ScanEvents call.
const exportPageSize = 500

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version    string    `json:"version"`
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	EventCount int       `json:"event_count"`
	ThroughID  int64     `json:"through_id"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string        `json:"type"`
	Data *model.Record `json:"data"`
}

// ExportJSONL streams the event log to w as JSONL, oldest first, and returns
// the number of event lines written. The snapshot covers rows up to the
// highest ID present when the export starts; rows appended while it runs are
// left for the next one. Rows with actions the hub no longer accepts are
// included.
func ExportJSONL(ctx context.Context, events store.EventScanner, w io.Writer) (int, error) {
	through, err := events.LatestEventID(ctx)
	if err != nil {
		return 0, fmt.Errorf("find snapshot bound: %w", err)
	}
	count, err := events.CountEventsThrough(ctx, through)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:    "1",
		Type:       "header",
		Timestamp:  time.Now().UTC(),
		EventCount: count,
		ThroughID:  through,
	}); err != nil {
		return 0, fmt.Errorf("encode header: %w", err)
	}

	n := 0
	for after := int64(0); after < through; {
		page, err := events.ScanEvents(ctx, after, through, exportPageSize)
		if err != nil {
			return n, fmt.Errorf("scan events after %d: %w", after, err)
		}
		for _, r := range page {
			if err := enc.Encode(record{Type: "event", Data: r}); err != nil {
				return n, fmt.Errorf("encode event %d: %w", r.ID, err)
			}
			n++
			after = r.ID
		}
		if len(page) < exportPageSize {
			break
		}
	}
	return n, nil
}
