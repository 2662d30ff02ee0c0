package sync

import "time"

// Action classifies how a source sync ended.
type Action string

const (
	ActionCreated Action = "Created"
	ActionUpdated Action = "Updated"
	ActionSkipped Action = "Skipped"
	ActionFailed  Action = "Failed"
)

// Outcome reports how one source fared during a run.
type Outcome struct {
	SourceID string
	Success  bool
	Action   Action
	Message  string
}

// Summary aggregates the outcomes of one run, in input order.
type Summary struct {
	RunID    string
	Scope    string
	Duration time.Duration

	Total   int
	Created int
	Updated int
	Skipped int
	Failed  int

	Outcomes []Outcome
}

func (s *Summary) add(out Outcome) {
	s.Outcomes = append(s.Outcomes, out)
	s.Total++
	switch out.Action {
	case ActionCreated:
		s.Created++
	case ActionUpdated:
		s.Updated++
	case ActionSkipped:
		s.Skipped++
	case ActionFailed:
		s.Failed++
	}
}

// Succeeded reports whether every source completed without failure.
func (s Summary) Succeeded() bool {
	return s.Failed == 0
}

// Failures returns the failed outcomes in run order.
func (s Summary) Failures() []Outcome {
	var out []Outcome
	for _, o := range s.Outcomes {
		if o.Action == ActionFailed {
			out = append(out, o)
		}
	}
	return out
}

func failure(sourceID, message string) Outcome {
	return Outcome{SourceID: sourceID, Action: ActionFailed, Message: message}
}
