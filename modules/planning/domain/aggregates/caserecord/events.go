package caserecord

import (
	"time"

	"github.com/google/uuid"
)

// StatusChangedEvent fires after a status change commits. The planning
// services listen for it to advance pending validation requests whose
// send-timing window just opened.
type StatusChangedEvent struct {
	CaseRecordID uuid.UUID
	Previous     Status
	Next         Status
	OccurredAt   time.Time
}
