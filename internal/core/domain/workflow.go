package domain

import "time"

// Transition moves a record to the given workflow status. Every move is
// operator-initiated; any valid status is reachable from any other (the
// workflow board allows dragging a card back).
func Transition(rec *DocumentRecord, next Status, now time.Time) error {
	if !next.Valid() {
		return WrapError(ErrInvalidInput, "workflow transition", errInvalidStatus(next))
	}
	rec.Status = next
	rec.LastModified = now
	return nil
}

// Reassign sets the responsible party and forces the record back into
// review. Reassigning an archived record reopens it.
func Reassign(rec *DocumentRecord, assignee, area string, now time.Time) {
	rec.AssignedTo = assignee
	rec.AssignedArea = area
	rec.Status = StatusEnRevision
	rec.LastModified = now
}
