// Package archive takes periodic JSONL snapshots of the event log and
// uploads them to object storage. Archiving only reads the log; retention
// is handled outside the hub.
package archive

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/alfredjeanlab/nethub/internal/store"
)

// Destination is the interface for an archive target.
type Destination interface {
	// Write stores one complete JSONL snapshot of size bytes read from body.
	Write(ctx context.Context, body io.ReadSeeker, size int64) error
}

// Scheduler runs periodic snapshots to one or more destinations.
type Scheduler struct {
	events       store.EventScanner
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger

	// spoolDir holds the snapshot file while it is uploaded; "" means
	// os.TempDir.
	spoolDir string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler that exports the event log to the given
// destinations at the specified interval.
func NewScheduler(events store.EventScanner, destinations []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		events:       events,
		destinations: destinations,
		interval:     interval,
		logger:       logger,
	}
}

// Start begins periodic archiving. It runs an initial snapshot immediately,
// then on each tick.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop cancels the scheduler and waits for the current snapshot (if any) to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce exports the log to a spool file and writes it to every
// destination. Failures are logged; a failing destination does not prevent
// writes to the others.
func (s *Scheduler) RunOnce(ctx context.Context) {
	f, n, size, err := s.spool(ctx)
	if err != nil {
		s.logger.Error("archive export failed", "err", err)
		return
	}
	defer func() {
		f.Close()
		os.Remove(f.Name())
	}()

	failed := 0
	for i, dest := range s.destinations {
		if err := dest.Write(ctx, io.NewSectionReader(f, 0, size), size); err != nil {
			failed++
			s.logger.Error("archive destination write failed", "destination", fmt.Sprintf("%d", i), "err", err)
		}
	}

	s.logger.Info("archive completed", "events", n, "destinations", len(s.destinations), "failed", failed, "bytes", size)
}

// spool writes a snapshot to a new temporary file and returns it with the
// event count and file size. The caller removes the file.
func (s *Scheduler) spool(ctx context.Context) (*os.File, int, int64, error) {
	f, err := os.CreateTemp(s.spoolDir, "nethub-archive-*.jsonl")
	if err != nil {
		return nil, 0, 0, fmt.Errorf("create spool file: %w", err)
	}
	fail := func(err error) (*os.File, int, int64, error) {
		f.Close()
		os.Remove(f.Name())
		return nil, 0, 0, err
	}

	bw := bufio.NewWriter(f)
	n, err := ExportJSONL(ctx, s.events, bw)
	if err != nil {
		return fail(err)
	}
	if err := bw.Flush(); err != nil {
		return fail(fmt.Errorf("write spool file: %w", err))
	}
	size, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return fail(fmt.Errorf("size spool file: %w", err))
	}
	return f, n, size, nil
}
