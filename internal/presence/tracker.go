// Package presence tracks which member nodes have been sending events.
//
// The Tracker is fed from the processor's publish path: it implements
// events.Publisher and records every EventRecorded notification. A
// background sweep marks nodes quiet once they have been silent for longer
// than a threshold; the next event from a quiet node brings it back.
//
// State is in memory only. After a restart the roster fills again as nodes
// send events; the event log remains the record of past activity.
package presence

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/alfredjeanlab/nethub/internal/events"
)

var _ events.Publisher = (*Tracker)(nil)

// Entry is a snapshot of one node's activity.
type Entry struct {
	NodeID     int64     `json:"node_id"`
	URL        string    `json:"url,omitempty"`
	FirstSeen  time.Time `json:"first_seen"`
	LastSeen   time.Time `json:"last_seen"`
	LastAction string    `json:"last_action"`
	IdleSecs   float64   `json:"idle_secs"`
	EventCount int64     `json:"event_count"`
	Quiet      bool      `json:"quiet,omitempty"`
	QuietSince time.Time `json:"quiet_since,omitzero"`
}

// SweepConfig configures the background quiet-node sweep.
type SweepConfig struct {
	// QuietAfter is how long a node may go without events before it is
	// marked quiet. Default: 24 hours.
	QuietAfter time.Duration

	// Interval is how often the sweep runs. Default: 1 minute.
	Interval time.Duration

	// OnQuiet is called outside the lock for each node newly marked quiet.
	OnQuiet func(nodeID int64, url string)
}

// Tracker maintains an in-memory roster of nodes.
type Tracker struct {
	mu     sync.RWMutex
	nodes  map[int64]*nodeState
	logger *slog.Logger
	now    func() time.Time

	sweepStop chan struct{}
	sweepDone chan struct{}
}

type nodeState struct {
	url        string
	firstSeen  time.Time
	lastSeen   time.Time
	lastAction string
	eventCount int64
	quiet      bool
	quietSince time.Time
}

// New creates an empty tracker.
func New(logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		nodes:  make(map[int64]*nodeState),
		logger: logger,
		now:    time.Now,
	}
}

// Record notes an event from a node. A non-empty url replaces the one
// previously seen for the node.
func (t *Tracker) Record(nodeID int64, url, action string) {
	if nodeID <= 0 {
		return
	}

	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.nodes[nodeID]
	if !ok {
		state = &nodeState{firstSeen: now}
		t.nodes[nodeID] = state
	}
	if state.quiet {
		t.logger.Info("presence: node active again", "node_id", nodeID, "quiet_for", now.Sub(state.quietSince))
		state.quiet = false
		state.quietSince = time.Time{}
	}

	state.lastSeen = now
	state.lastAction = action
	state.eventCount++
	if url != "" {
		state.url = url
	}
}

// Publish records EventRecorded notifications and ignores everything else.
func (t *Tracker) Publish(_ context.Context, topic string, event any) error {
	if topic != events.TopicEventRecorded {
		return nil
	}
	if rec, ok := event.(events.EventRecorded); ok {
		t.Record(rec.NodeID, rec.NodeURL, rec.Action)
	}
	return nil
}

// Close stops the sweep if it is running.
func (t *Tracker) Close() error {
	t.Stop()
	return nil
}

// Nodes returns a snapshot of tracked nodes, most recently active first.
// When activeWithin is positive, nodes idle for longer are left out.
func (t *Tracker) Nodes(activeWithin time.Duration) []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	now := t.now()
	entries := make([]Entry, 0, len(t.nodes))
	for id, state := range t.nodes {
		idle := now.Sub(state.lastSeen)
		if activeWithin > 0 && idle > activeWithin {
			continue
		}
		entries = append(entries, Entry{
			NodeID:     id,
			URL:        state.url,
			FirstSeen:  state.firstSeen,
			LastSeen:   state.lastSeen,
			LastAction: state.lastAction,
			IdleSecs:   idle.Seconds(),
			EventCount: state.eventCount,
			Quiet:      state.quiet,
			QuietSince: state.quietSince,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].LastSeen.Equal(entries[j].LastSeen) {
			return entries[i].NodeID < entries[j].NodeID
		}
		return entries[i].LastSeen.After(entries[j].LastSeen)
	})
	return entries
}

// StartSweep launches the background goroutine that marks silent nodes
// quiet. Call Stop to shut it down.
func (t *Tracker) StartSweep(cfg SweepConfig) {
	if cfg.QuietAfter <= 0 {
		cfg.QuietAfter = 24 * time.Hour
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}

	t.sweepStop = make(chan struct{})
	t.sweepDone = make(chan struct{})

	go t.sweepLoop(cfg)
	t.logger.Info("presence: sweep started", "quiet_after", cfg.QuietAfter, "interval", cfg.Interval)
}

// Stop shuts down the sweep goroutine. It is safe to call more than once.
func (t *Tracker) Stop() {
	if t.sweepStop != nil {
		close(t.sweepStop)
		<-t.sweepDone
		t.sweepStop = nil
		t.sweepDone = nil
	}
}

func (t *Tracker) sweepLoop(cfg SweepConfig) {
	defer close(t.sweepDone)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.sweepStop:
			return
		case <-ticker.C:
			t.sweep(cfg)
		}
	}
}

func (t *Tracker) sweep(cfg SweepConfig) {
	now := t.now()

	type quietNode struct {
		id  int64
		url string
	}
	var newlyQuiet []quietNode

	t.mu.Lock()
	for id, state := range t.nodes {
		if state.quiet {
			continue
		}
		if now.Sub(state.lastSeen) > cfg.QuietAfter {
			state.quiet = true
			state.quietSince = now
			newlyQuiet = append(newlyQuiet, quietNode{id: id, url: state.url})
		}
	}
	t.mu.Unlock()

	for _, n := range newlyQuiet {
		t.logger.Warn("presence: node quiet", "node_id", n.id, "url", n.url, "threshold", cfg.QuietAfter)
		if cfg.OnQuiet != nil {
			cfg.OnQuiet(n.id, n.url)
		}
	}
}
