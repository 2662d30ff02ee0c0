package sinks

import (
	"context"
	"sync"
	"time"

	"github.com/mkedev/planning-sync/internal/progress"
)

// SourceState records the terminal outcome of one source within a run.
type SourceState struct {
	SourceID string        `json:"sourceId"`
	Kind     string        `json:"kind"`
	Action   string        `json:"action"`
	Note     string        `json:"note,omitempty"`
	Dur      time.Duration `json:"durationMs"`
	TS       time.Time     `json:"finishedAt"`
}

// RunSnapshot is the folded view of a sync run, built from progress events.
type RunSnapshot struct {
	RunID      string        `json:"runId"`
	Scope      string        `json:"scope"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt,omitempty"`
	Running    bool          `json:"running"`
	Active     string        `json:"activeSource,omitempty"`
	Sources    []SourceState `json:"sources"`

	Total   int64 `json:"total"`
	Created int64 `json:"created"`
	Updated int64 `json:"updated"`
	Skipped int64 `json:"skipped"`
	Failed  int64 `json:"failed"`
}

// StateSink keeps the most recent run snapshot in memory so the ops server
// can expose it without a datastore round trip.
type StateSink struct {
	mu      sync.Mutex
	current *RunSnapshot
}

// NewStateSink constructs an empty StateSink.
func NewStateSink() *StateSink {
	return &StateSink{}
}

// Consume folds the batch into the current run snapshot. Events for a run
// that was never started (for example when the hub dropped its start event)
// materialize a skeleton snapshot rather than being discarded.
func (s *StateSink) Consume(_ context.Context, batch []progress.Event) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, evt := range batch {
		runID := evt.RunUUID().String()
		switch evt.Stage {
		case progress.StageRunStart:
			s.current = &RunSnapshot{
				RunID:     runID,
				Scope:     evt.Scope,
				StartedAt: evt.TS,
				Running:   true,
			}
		case progress.StageSourceStart:
			snap := s.ensure(runID, evt.TS)
			snap.Active = evt.SourceID
		case progress.StageSourceDone:
			snap := s.ensure(runID, evt.TS)
			if snap.Active == evt.SourceID {
				snap.Active = ""
			}
			snap.Sources = append(snap.Sources, SourceState{
				SourceID: evt.SourceID,
				Kind:     evt.Kind,
				Action:   evt.Action,
				Note:     evt.Note,
				Dur:      evt.Dur,
				TS:       evt.TS,
			})
		case progress.StageRunDone:
			snap := s.ensure(runID, evt.TS)
			snap.FinishedAt = evt.TS
			snap.Running = false
			snap.Active = ""
			snap.Total = evt.Total
			snap.Created = evt.Created
			snap.Updated = evt.Updated
			snap.Skipped = evt.Skipped
			snap.Failed = evt.Failed
		}
	}
	return nil
}

// ensure returns the snapshot for runID, replacing the current one when the
// run changed mid-stream.
func (s *StateSink) ensure(runID string, ts time.Time) *RunSnapshot {
	if s.current == nil || s.current.RunID != runID {
		s.current = &RunSnapshot{
			RunID:     runID,
			StartedAt: ts,
			Running:   true,
		}
	}
	return s.current
}

// Latest returns a copy of the most recent run snapshot, or nil when no run
// has been observed yet.
func (s *StateSink) Latest() *RunSnapshot {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	snap := *s.current
	snap.Sources = append([]SourceState(nil), s.current.Sources...)
	return &snap
}

// Close implements the Sink interface; it performs no action.
func (s *StateSink) Close(context.Context) error {
	return nil
}
