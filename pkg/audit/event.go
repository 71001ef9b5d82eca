// Package audit records the per-tick request/response trail: every action
// an agent (or a red/green script) applies against a node. ACL and routing
// decisions on traffic are not recorded here. It is the
// same append-only JSON-lines event log the teacher used for configuration
// changes, retargeted from "what changed on the device" to "what was asked
// of the simulation and what happened".
package audit

import (
	"fmt"
	"time"
)

// Outcome mirrors the three-way result a request dispatch leaf can return
// (spec.md §7): Success, Failure (with a Reason), or Unreachable (the path
// named no handler).
type Outcome string

const (
	OutcomeSuccess     Outcome = "success"
	OutcomeFailure     Outcome = "failure"
	OutcomeUnreachable Outcome = "unreachable"
)

// Event is one audited request against the simulated network.
type Event struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Tick      int           `json:"tick"`
	Agent     string        `json:"agent"`
	Node      string        `json:"node"`
	Path      string        `json:"path"`
	Outcome   Outcome       `json:"outcome"`
	Reason    string        `json:"reason,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Severity indicates the importance of an audit event.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Filter defines criteria for querying audit events.
type Filter struct {
	Agent       string
	Node        string
	Path        string
	StartTick   int
	EndTick     int
	SuccessOnly bool
	FailureOnly bool
	Limit       int
	Offset      int
}

// NewEvent creates a new audit event for the given tick/agent/node.
func NewEvent(tick int, agent, node string) *Event {
	return &Event{
		ID:        generateID(),
		Timestamp: time.Now(),
		Tick:      tick,
		Agent:     agent,
		Node:      node,
	}
}

// WithPath sets the request-tree path that was dispatched.
func (e *Event) WithPath(path string) *Event {
	e.Path = path
	return e
}

// WithOutcome records the dispatch outcome and, for a failure, the reason.
func (e *Event) WithOutcome(outcome Outcome, reason string) *Event {
	e.Outcome = outcome
	e.Reason = reason
	return e
}

// WithDuration sets the operation duration.
func (e *Event) WithDuration(d time.Duration) *Event {
	e.Duration = d
	return e
}

func generateID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}
