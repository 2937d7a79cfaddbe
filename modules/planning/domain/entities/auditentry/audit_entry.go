package auditentry

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Actor identifies who performed a transition. It is always passed
// explicitly by the caller; the engine never reads an ambient current user.
type Actor struct {
	ID   uuid.UUID
	Name string
	Role string
}

const (
	RoleOfficer   = "officer"
	RoleApplicant = "applicant"
	RoleSystem    = "system"
)

// System is the attribution used by scheduled jobs.
func System() Actor {
	return Actor{Name: "system", Role: RoleSystem}
}

// AuditEntry is one immutable line in a case's audit trail. Entries are only
// ever appended.
type AuditEntry struct {
	ID           uuid.UUID
	CaseRecordID uuid.UUID
	Actor        Actor
	ActivityType string
	Comment      string
	TargetType   string
	TargetID     uuid.UUID
	CreatedAt    time.Time
}

type Sink interface {
	Record(ctx context.Context, entry AuditEntry) error
	ListByCase(ctx context.Context, caseRecordID uuid.UUID) ([]AuditEntry, error)
}
