package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageRunStart    Stage = "RUN_START"
	StageRunDone     Stage = "RUN_DONE"
	StageSourceStart Stage = "SOURCE_START"
	StageSourceDone  Stage = "SOURCE_DONE"
)

// Event captures a single milestone of a sync run.
type Event struct {
	// RunID uniquely identifies a run using the 16-byte UUID form.
	RunID [16]byte
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which run or source milestone occurred.
	Stage Stage
	// Scope describes the selection being synced ("all", a cadence, or a
	// single source id); set on RUN_START.
	Scope string
	// SourceID scopes source events to one registry entry.
	SourceID string
	// Kind is the source content kind (html or pdf).
	Kind string
	// Action is the outcome of a finished source: Created, Updated,
	// Skipped or Failed.
	Action string
	// Note lets emitters attach low-volume context (outcome message or
	// error text).
	Note string
	// Dur captures execution latency for sources and completed runs.
	Dur time.Duration
	// Run totals, set on RUN_DONE.
	Total   int64
	Created int64
	Updated int64
	Skipped int64
	Failed  int64
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == [16]byte{} {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone:
	case StageSourceStart:
		if e.SourceID == "" {
			return errors.New("source start requires source id")
		}
	case StageSourceDone:
		if e.SourceID == "" {
			return errors.New("source done requires source id")
		}
		if e.Action == "" {
			return errors.New("source done requires action")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// RunUUID converts the binary run ID to uuid.UUID for sinks.
func (e Event) RunUUID() uuid.UUID {
	return uuid.UUID(e.RunID)
}

// UUIDToBytes encodes a uuid.UUID into the Event form.
func UUIDToBytes(id uuid.UUID) [16]byte {
	var dest [16]byte
	copy(dest[:], id[:])
	return dest
}
