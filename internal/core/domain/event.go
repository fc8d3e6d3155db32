package domain

import "time"

// EventKind labels a document lifecycle event on the bus.
type EventKind string

const (
	EventRegistered    EventKind = "document.registered"
	EventStatusChanged EventKind = "document.status_changed"
	EventReassigned    EventKind = "document.reassigned"
	EventRenamed       EventKind = "document.renamed"
	EventDeleted       EventKind = "document.deleted"
	EventNotice        EventKind = "notice"
)

// Event is the wire form published for every mutation and reconciliation
// outcome. The worker persists these as the audit trail.
type Event struct {
	Kind           EventKind `json:"kind"`
	DocumentID     string    `json:"document_id,omitempty"`
	Message        string    `json:"message,omitempty"`
	Reconciliation string    `json:"reconciliation,omitempty"`
	At             time.Time `json:"at"`
}
