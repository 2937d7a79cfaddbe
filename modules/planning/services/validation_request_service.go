package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/unboxed/bops-go/modules/planning/domain/aggregates/caserecord"
	"github.com/unboxed/bops-go/modules/planning/domain/aggregates/validationrequest"
	"github.com/unboxed/bops-go/modules/planning/domain/entities/auditentry"
	"github.com/unboxed/bops-go/pkg/bdays"
	"github.com/unboxed/bops-go/pkg/composables"
	"github.com/unboxed/bops-go/pkg/eventbus"
)

const (
	activityRequestCreated    = "validation_request_created"
	activityRequestSent       = "validation_request_sent"
	activityRequestCancelled  = "validation_request_cancelled"
	activityRequestClosed     = "validation_request_closed"
	activityRequestAutoClosed = "validation_request_auto_closed"

	auditTargetValidationRequest = "validation_request"
)

type ValidationRequestServiceParams struct {
	Requests  validationrequest.Repository
	Cases     caserecord.Repository
	Audit     auditentry.Sink
	Calendar  bdays.Calendar
	Publisher eventbus.EventBus
	Notifier  Notifier

	// Clock defaults to time.Now.
	Clock func() time.Time
}

type ValidationRequestService struct {
	requests  validationrequest.Repository
	cases     caserecord.Repository
	audit     auditentry.Sink
	calendar  bdays.Calendar
	publisher eventbus.EventBus
	notifier  Notifier
	now       func() time.Time
}

func NewValidationRequestService(params ValidationRequestServiceParams) *ValidationRequestService {
	now := params.Clock
	if now == nil {
		now = time.Now
	}
	return &ValidationRequestService{
		requests:  params.Requests,
		cases:     params.Cases,
		audit:     params.Audit,
		calendar:  params.Calendar,
		publisher: params.Publisher,
		notifier:  params.Notifier,
		now:       now,
	}
}

func (s *ValidationRequestService) GetByID(ctx context.Context, id uuid.UUID) (*validationrequest.ValidationRequest, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) (*validationrequest.ValidationRequest, error) {
		return s.requests.GetByID(txCtx, id)
	})
}

func (s *ValidationRequestService) ListByCase(ctx context.Context, params *validationrequest.FindParams) ([]*validationrequest.ValidationRequest, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) ([]*validationrequest.ValidationRequest, error) {
		return s.requests.List(txCtx, params)
	})
}

func (s *ValidationRequestService) FamilyMembers(ctx context.Context, caseRecordID uuid.UUID, kind validationrequest.Kind, familyKey string) ([]*validationrequest.ValidationRequest, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) ([]*validationrequest.ValidationRequest, error) {
		return s.requests.FamilyMembers(txCtx, caseRecordID, kind, familyKey)
	})
}

// Create raises a new request against a case. Depending on the case status it
// either stays pending, batched into the next invalidation notice, or goes
// out to the applicant immediately.
func (s *ValidationRequestService) Create(
	ctx context.Context,
	caseRecordID uuid.UUID,
	kind validationrequest.Kind,
	payload json.RawMessage,
	actor auditentry.Actor,
) (*validationrequest.ValidationRequest, error) {
	variant, err := validationrequest.DecodeVariant(kind, payload)
	if err != nil {
		return nil, err
	}
	if err := variant.ValidateCreate(); err != nil {
		return nil, err
	}

	var sent *validationrequest.ValidationRequest
	created, err := composables.InTxResult(ctx, func(txCtx context.Context) (*validationrequest.ValidationRequest, error) {
		rec, err := s.cases.GetByIDForUpdate(txCtx, caseRecordID)
		if err != nil {
			return nil, err
		}
		if !creatable(rec.Status(), kind) {
			return nil, &validationrequest.CreationWindowClosedError{Kind: kind}
		}

		if key, ok := variant.ExclusivityKey(); ok {
			members, err := s.requests.FamilyMembers(txCtx, caseRecordID, kind, key)
			if err != nil {
				return nil, err
			}
			for _, member := range members {
				if !member.State().Terminal() {
					return nil, &validationrequest.ExclusivityError{Kind: kind, FamilyKey: key}
				}
			}
		}

		request, err := s.requests.Create(txCtx, validationrequest.New(caseRecordID, variant, actor))
		if err != nil {
			return nil, err
		}

		variant.ApplyHold(rec)
		if err := s.cases.Update(txCtx, rec); err != nil {
			return nil, err
		}

		if err := s.recordAudit(txCtx, request, actor, activityRequestCreated, fmt.Sprintf("%s request raised", request.Kind())); err != nil {
			return nil, err
		}
		s.publisher.Publish(&validationrequest.CreatedEvent{Request: request, Actor: actor})

		if sendsImmediately(rec.Status(), kind) {
			if err := s.send(txCtx, request, actor); err != nil {
				return nil, err
			}
			sent = request
		}
		return request, nil
	})
	if err != nil {
		return nil, err
	}

	if sent != nil {
		s.notifySent(ctx, sent)
	}
	return created, nil
}

// MarkAsSent dispatches a pending request, stamping the notification date and
// the business-day deadline for kinds that carry one. A repeated call on an
// already-open request is a no-op: the applicant is never notified twice.
func (s *ValidationRequestService) MarkAsSent(ctx context.Context, id uuid.UUID, actor auditentry.Actor) (*validationrequest.ValidationRequest, error) {
	var sent bool
	request, err := composables.InTxResult(ctx, func(txCtx context.Context) (*validationrequest.ValidationRequest, error) {
		request, err := s.requests.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return nil, err
		}
		if request.State() == validationrequest.StateOpen {
			return request, nil
		}
		if err := s.send(txCtx, request, actor); err != nil {
			return nil, err
		}
		sent = true
		return request, nil
	})
	if err != nil {
		return nil, err
	}
	if sent {
		s.notifySent(ctx, request)
	}
	return request, nil
}

// Cancel withdraws a pending or open request. Any hold the request had on the
// case is released, and the cancelled request takes the family's update
// counter as its latest terminal event.
func (s *ValidationRequestService) Cancel(ctx context.Context, id uuid.UUID, reason string, actor auditentry.Actor) (*validationrequest.ValidationRequest, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) (*validationrequest.ValidationRequest, error) {
		request, err := s.requests.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return nil, err
		}
		rec, err := s.cases.GetByIDForUpdate(txCtx, request.CaseRecordID())
		if err != nil {
			return nil, err
		}

		if err := request.Cancel(reason, s.now()); err != nil {
			return nil, err
		}
		if err := s.requests.Update(txCtx, request); err != nil {
			return nil, err
		}

		variant := request.Variant()
		variant.ReleaseHold(rec)
		if err := s.cases.Update(txCtx, rec); err != nil {
			return nil, err
		}

		if err := s.flagFamilyCounter(txCtx, request); err != nil {
			return nil, err
		}

		if err := s.recordAudit(txCtx, request, actor, activityRequestCancelled, reason); err != nil {
			return nil, err
		}
		s.publisher.Publish(&validationrequest.CancelledEvent{Request: request, Actor: actor, Reason: reason})
		return request, nil
	})
}

// Close resolves an open request with the applicant's (or officer's) outcome
// and applies the variant's effect to the case record in the same
// transaction.
func (s *ValidationRequestService) Close(ctx context.Context, id uuid.UUID, outcome validationrequest.Outcome, actor auditentry.Actor) (*validationrequest.ValidationRequest, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) (*validationrequest.ValidationRequest, error) {
		request, err := s.requests.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return nil, err
		}
		rec, err := s.cases.GetByIDForUpdate(txCtx, request.CaseRecordID())
		if err != nil {
			return nil, err
		}

		now := s.now()
		if err := request.Close(outcome, now); err != nil {
			return nil, err
		}
		if err := s.applyClose(txCtx, request, rec, outcome, now); err != nil {
			return nil, err
		}

		comment := fmt.Sprintf("%s request %s", request.Kind(), outcome.Decision)
		if err := s.recordAudit(txCtx, request, actor, activityRequestClosed, comment); err != nil {
			return nil, err
		}
		s.publisher.Publish(&validationrequest.ClosedEvent{Request: request, Actor: actor, Outcome: outcome})
		return request, nil
	})
}

// AutoClose is the sweep entry point: it closes an overdue request with the
// variant's default outcome. Losing the race to an applicant response or an
// officer cancellation is expected and not an error.
func (s *ValidationRequestService) AutoClose(ctx context.Context, id uuid.UUID) error {
	actor := auditentry.System()

	var closed *validationrequest.ValidationRequest
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		request, err := s.requests.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return err
		}

		now := s.now()
		outcome, err := request.AutoClose(now)
		if err != nil {
			var transitionErr *validationrequest.InvalidTransitionError
			if gerrors.As(err, &transitionErr) {
				return nil
			}
			return err
		}

		rec, err := s.cases.GetByIDForUpdate(txCtx, request.CaseRecordID())
		if err != nil {
			return err
		}
		if err := s.applyClose(txCtx, request, rec, outcome, now); err != nil {
			return err
		}

		comment := fmt.Sprintf("%s request closed by deadline, deemed %s", request.Kind(), outcome.Decision)
		if err := s.recordAudit(txCtx, request, actor, activityRequestAutoClosed, comment); err != nil {
			return err
		}
		s.publisher.Publish(&validationrequest.ClosedEvent{Request: request, Actor: actor, Outcome: outcome, AutoClosed: true})
		closed = request
		return nil
	})
	if err != nil {
		return err
	}

	if closed != nil && s.notifier != nil {
		if nErr := s.notifier.RequestAutoClosed(ctx, closed); nErr != nil {
			composables.UseLogger(ctx).WithError(nErr).Warn("auto-close notification failed")
		}
	}
	return nil
}

// OverdueRequests lists the open, past-deadline requests the sweep should
// pick up. Only kinds with a default outcome are eligible.
func (s *ValidationRequestService) OverdueRequests(ctx context.Context, asOf time.Time, limit int) ([]uuid.UUID, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) ([]uuid.UUID, error) {
		return s.requests.Overdue(txCtx, asOf, validationrequest.AutoClosableKinds(), limit)
	})
}

// DeadlineFor computes the response deadline for a variant notified at the
// given time, or nil for variants without one.
func (s *ValidationRequestService) DeadlineFor(variant validationrequest.Variant, notifiedAt time.Time) *time.Time {
	offset, ok := variant.DeadlineOffset()
	if !ok {
		return nil
	}
	deadline := s.calendar.NextBusinessDay(notifiedAt, offset)
	return &deadline
}

// DispatchPending sends every pending request whose send-timing window the
// given case status opens. The status-changed subscriber calls it when a case
// is invalidated so the batched requests go out with the invalidation notice.
func (s *ValidationRequestService) DispatchPending(ctx context.Context, caseRecordID uuid.UUID, status caserecord.Status, actor auditentry.Actor) error {
	var dispatched []*validationrequest.ValidationRequest
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		pending, err := s.requests.List(txCtx, &validationrequest.FindParams{
			CaseRecordID: caseRecordID,
			States:       []validationrequest.State{validationrequest.StatePending},
		})
		if err != nil {
			return err
		}
		for _, request := range pending {
			if !sendsImmediately(status, request.Kind()) {
				continue
			}
			if err := s.send(txCtx, request, actor); err != nil {
				return err
			}
			dispatched = append(dispatched, request)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, request := range dispatched {
		s.notifySent(ctx, request)
	}
	return nil
}

func (s *ValidationRequestService) send(ctx context.Context, request *validationrequest.ValidationRequest, actor auditentry.Actor) error {
	now := s.now()
	if err := request.MarkAsSent(now, s.DeadlineFor(request.Variant(), now)); err != nil {
		return err
	}
	if err := s.requests.Update(ctx, request); err != nil {
		return err
	}

	comment := fmt.Sprintf("%s request sent to applicant", request.Kind())
	if deadline := request.Deadline(); deadline != nil {
		comment = fmt.Sprintf("%s, response due %s", comment, deadline.Format("2 January 2006"))
	}
	if err := s.recordAudit(ctx, request, actor, activityRequestSent, comment); err != nil {
		return err
	}
	s.publisher.Publish(&validationrequest.SentEvent{Request: request, Actor: actor, NotifiedAt: now})
	return nil
}

// applyClose persists the closed request, applies the variant's effect to the
// case record and moves the family counter onto the closed request, all in
// the caller's transaction.
func (s *ValidationRequestService) applyClose(
	ctx context.Context,
	request *validationrequest.ValidationRequest,
	rec *caserecord.CaseRecord,
	outcome validationrequest.Outcome,
	now time.Time,
) error {
	if err := s.requests.Update(ctx, request); err != nil {
		return err
	}

	variant := request.Variant()
	if err := variant.ApplyCloseEffect(rec, outcome, now); err != nil {
		return err
	}
	if err := s.cases.Update(ctx, rec); err != nil {
		return err
	}

	return s.flagFamilyCounter(ctx, request)
}

// flagFamilyCounter marks the just-terminated request as the family member
// carrying the update counter and drops the flag from every sibling, so
// exactly one member records the latest terminal event.
func (s *ValidationRequestService) flagFamilyCounter(ctx context.Context, request *validationrequest.ValidationRequest) error {
	variant := request.Variant()
	key, ok := variant.ExclusivityKey()
	if !ok || !variant.CarriesCounter() {
		return nil
	}
	if err := s.requests.SetFamilyCounter(ctx, request.CaseRecordID(), request.Kind(), key, request.ID()); err != nil {
		return err
	}
	request.SetUpdateCounter(true)
	return nil
}

func (s *ValidationRequestService) recordAudit(ctx context.Context, request *validationrequest.ValidationRequest, actor auditentry.Actor, activity, comment string) error {
	return s.audit.Record(ctx, auditentry.AuditEntry{
		CaseRecordID: request.CaseRecordID(),
		Actor:        actor,
		ActivityType: activity,
		Comment:      comment,
		TargetType:   auditTargetValidationRequest,
		TargetID:     request.ID(),
	})
}

func (s *ValidationRequestService) notifySent(ctx context.Context, request *validationrequest.ValidationRequest) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.RequestSent(ctx, request); err != nil {
		composables.UseLogger(ctx).WithError(err).Warn("send notification failed")
	}
}
