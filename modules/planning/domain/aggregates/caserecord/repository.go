package caserecord

import (
	"context"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
)

var ErrNotFound = gerrors.New("case record not found")

type Repository interface {
	Create(ctx context.Context, record *CaseRecord) (*CaseRecord, error)
	GetByID(ctx context.Context, id uuid.UUID) (*CaseRecord, error)

	// GetByIDForUpdate locks the case row so concurrent close-effects on the
	// same application serialize.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*CaseRecord, error)

	Update(ctx context.Context, record *CaseRecord) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
}
