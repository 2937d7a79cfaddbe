package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/unboxed/bops-go/modules/planning/domain/aggregates/caserecord"
	"github.com/unboxed/bops-go/modules/planning/domain/entities/auditentry"
	"github.com/unboxed/bops-go/pkg/composables"
	"github.com/unboxed/bops-go/pkg/eventbus"
)

type CaseRecordService struct {
	cases     caserecord.Repository
	audit     auditentry.Sink
	publisher eventbus.EventBus
}

func NewCaseRecordService(cases caserecord.Repository, audit auditentry.Sink, publisher eventbus.EventBus) *CaseRecordService {
	return &CaseRecordService{
		cases:     cases,
		audit:     audit,
		publisher: publisher,
	}
}

func (s *CaseRecordService) Create(ctx context.Context, reference, description string) (*caserecord.CaseRecord, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) (*caserecord.CaseRecord, error) {
		return s.cases.Create(txCtx, caserecord.New(reference, description))
	})
}

func (s *CaseRecordService) GetByID(ctx context.Context, id uuid.UUID) (*caserecord.CaseRecord, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) (*caserecord.CaseRecord, error) {
		return s.cases.GetByID(txCtx, id)
	})
}

// SetStatus moves the case through its workflow. The published event is what
// triggers dispatch of validation requests queued for the new status.
func (s *CaseRecordService) SetStatus(ctx context.Context, id uuid.UUID, status caserecord.Status, actor auditentry.Actor) error {
	var event *caserecord.StatusChangedEvent
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		rec, err := s.cases.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		previous := rec.SetStatus(status)
		if previous == status {
			return nil
		}
		if err := s.cases.UpdateStatus(txCtx, id, status); err != nil {
			return err
		}
		if err := s.audit.Record(txCtx, auditentry.AuditEntry{
			CaseRecordID: id,
			Actor:        actor,
			ActivityType: "case_status_changed",
			Comment:      string(previous) + " -> " + string(status),
			TargetType:   "case_record",
			TargetID:     id,
		}); err != nil {
			return err
		}
		event = &caserecord.StatusChangedEvent{
			CaseRecordID: id,
			Previous:     previous,
			Next:         status,
			OccurredAt:   time.Now(),
		}
		return nil
	})
	if err != nil {
		return err
	}
	// Published after commit so subscribers observe the new status.
	if event != nil {
		s.publisher.Publish(event)
	}
	return nil
}

// AuditTrail returns the case's append-only history, oldest first.
func (s *CaseRecordService) AuditTrail(ctx context.Context, id uuid.UUID) ([]auditentry.AuditEntry, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) ([]auditentry.AuditEntry, error) {
		return s.audit.ListByCase(txCtx, id)
	})
}
