// Package session tracks the active dialog of each contact: which flow is
// running, which step it is on, and the answers collected so far. A contact
// has at most one active session; no session means the contact is idle at the
// main menu.
package session

import "context"

// Flow identifies a multi-step dialog.
type Flow int

const (
	// FlowScheduleAppointment collects patient, doctor, time and day.
	FlowScheduleAppointment Flow = iota + 1
	// FlowScheduleFollowUp collects the same fields for a follow-up visit.
	FlowScheduleFollowUp
	// FlowPriceLookup awaits a single free-text procedure query.
	FlowPriceLookup
	// FlowProcedureLookup awaits a single free-text "is this offered" query.
	FlowProcedureLookup
)

// Step identifies the field a flow is currently waiting for.
type Step int

const (
	StepPatientName Step = iota + 1
	StepDoctor
	StepTime
	StepDay
	StepQuery
)

// Session is the per-contact dialog state. Collected accumulates answers as
// the flow advances strictly forward through its step sequence.
type Session struct {
	Flow      Flow              `json:"flow"`
	Step      Step              `json:"step"`
	Collected map[string]string `json:"collected"`
}

// New creates a session positioned at the first step of a flow.
func New(flow Flow, step Step) *Session {
	return &Session{
		Flow:      flow,
		Step:      step,
		Collected: make(map[string]string),
	}
}

// Set stores a collected answer under a step-specific key.
func (s *Session) Set(key, value string) {
	if s.Collected == nil {
		s.Collected = make(map[string]string)
	}
	s.Collected[key] = value
}

// Get returns a collected answer, or "" when absent.
func (s *Session) Get(key string) string {
	return s.Collected[key]
}

// Store persists active sessions keyed by contact identifier.
type Store interface {
	// Get returns the active session for a contact, or (nil, nil) when idle.
	Get(ctx context.Context, contactID string) (*Session, error)
	// Put creates or replaces the contact's session.
	Put(ctx context.Context, contactID string, s *Session) error
	// Delete removes the contact's session; deleting an idle contact is a no-op.
	Delete(ctx context.Context, contactID string) error
}
