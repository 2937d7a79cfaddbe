package validationrequest

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type FindParams struct {
	CaseRecordID uuid.UUID
	Kind         *Kind
	States       []State
}

type Repository interface {
	Create(ctx context.Context, request *ValidationRequest) (*ValidationRequest, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ValidationRequest, error)

	// GetByIDForUpdate locks the row for the remainder of the transaction so
	// concurrent transitions on the same request serialize.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*ValidationRequest, error)

	Update(ctx context.Context, request *ValidationRequest) error
	List(ctx context.Context, params *FindParams) ([]*ValidationRequest, error)

	// FamilyMembers returns every request of the kind+target family on the
	// case, newest first.
	FamilyMembers(ctx context.Context, caseRecordID uuid.UUID, kind Kind, familyKey string) ([]*ValidationRequest, error)

	// Overdue lists open requests of the given kinds whose deadline is on or
	// before asOf.
	Overdue(ctx context.Context, asOf time.Time, kinds []Kind, limit int) ([]uuid.UUID, error)

	// SetFamilyCounter makes holderID the family's only flagged member;
	// uuid.Nil clears the flag across the family.
	SetFamilyCounter(ctx context.Context, caseRecordID uuid.UUID, kind Kind, familyKey string, holderID uuid.UUID) error
}
