package validationrequest

import (
	"time"

	"github.com/google/uuid"

	"github.com/unboxed/bops-go/modules/planning/domain/entities/auditentry"
	"github.com/unboxed/bops-go/pkg/serrors"
)

type State string

const (
	StatePending   State = "pending"
	StateOpen      State = "open"
	StateCancelled State = "cancelled"
	StateClosed    State = "closed"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateCancelled || s == StateClosed
}

// ValidationRequest is the shared envelope around the ten request variants.
// The envelope owns the lifecycle; the variant owns kind-specific
// validation, deadlines and the close-effect on the case record.
type ValidationRequest struct {
	id           uuid.UUID
	caseRecordID uuid.UUID
	kind         Kind
	variant      Variant
	state        State

	notifiedAt *time.Time
	deadline   *time.Time

	cancelledAt  *time.Time
	cancelReason string

	closedAt        *time.Time
	approved        *bool
	rejectionReason string
	response        string

	autoClosed   bool
	autoClosedAt *time.Time

	updateCounter bool

	createdBy auditentry.Actor
	createdAt time.Time
	updatedAt time.Time
}

func New(caseRecordID uuid.UUID, variant Variant, createdBy auditentry.Actor) *ValidationRequest {
	return &ValidationRequest{
		caseRecordID: caseRecordID,
		kind:         variant.Kind(),
		variant:      variant,
		state:        StatePending,
		createdBy:    createdBy,
	}
}

func Hydrate(
	id uuid.UUID,
	caseRecordID uuid.UUID,
	variant Variant,
	state State,
	notifiedAt *time.Time,
	deadline *time.Time,
	cancelledAt *time.Time,
	cancelReason string,
	closedAt *time.Time,
	approved *bool,
	rejectionReason string,
	response string,
	autoClosed bool,
	autoClosedAt *time.Time,
	updateCounter bool,
	createdBy auditentry.Actor,
	createdAt time.Time,
	updatedAt time.Time,
) *ValidationRequest {
	return &ValidationRequest{
		id:              id,
		caseRecordID:    caseRecordID,
		kind:            variant.Kind(),
		variant:         variant,
		state:           state,
		notifiedAt:      notifiedAt,
		deadline:        deadline,
		cancelledAt:     cancelledAt,
		cancelReason:    cancelReason,
		closedAt:        closedAt,
		approved:        approved,
		rejectionReason: rejectionReason,
		response:        response,
		autoClosed:      autoClosed,
		autoClosedAt:    autoClosedAt,
		updateCounter:   updateCounter,
		createdBy:       createdBy,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

func (r *ValidationRequest) ID() uuid.UUID               { return r.id }
func (r *ValidationRequest) CaseRecordID() uuid.UUID     { return r.caseRecordID }
func (r *ValidationRequest) Kind() Kind                  { return r.kind }
func (r *ValidationRequest) Variant() Variant            { return r.variant }
func (r *ValidationRequest) State() State                { return r.state }
func (r *ValidationRequest) NotifiedAt() *time.Time      { return r.notifiedAt }
func (r *ValidationRequest) Deadline() *time.Time        { return r.deadline }
func (r *ValidationRequest) CancelledAt() *time.Time     { return r.cancelledAt }
func (r *ValidationRequest) CancelReason() string        { return r.cancelReason }
func (r *ValidationRequest) ClosedAt() *time.Time        { return r.closedAt }
func (r *ValidationRequest) Approved() *bool             { return r.approved }
func (r *ValidationRequest) RejectionReason() string     { return r.rejectionReason }
func (r *ValidationRequest) Response() string            { return r.response }
func (r *ValidationRequest) AutoClosed() bool            { return r.autoClosed }
func (r *ValidationRequest) AutoClosedAt() *time.Time    { return r.autoClosedAt }
func (r *ValidationRequest) UpdateCounter() bool         { return r.updateCounter }
func (r *ValidationRequest) CreatedBy() auditentry.Actor { return r.createdBy }
func (r *ValidationRequest) CreatedAt() time.Time        { return r.createdAt }
func (r *ValidationRequest) UpdatedAt() time.Time        { return r.updatedAt }

// MarkAsSent advances pending -> open, records the notification date and the
// response deadline (nil for variants without one).
func (r *ValidationRequest) MarkAsSent(now time.Time, deadline *time.Time) error {
	if r.state != StatePending {
		return &InvalidTransitionError{From: r.state, Op: OpMarkAsSent}
	}
	r.state = StateOpen
	t := now
	r.notifiedAt = &t
	r.deadline = deadline
	return nil
}

// Cancel moves pending/open -> cancelled. A reason is always required.
func (r *ValidationRequest) Cancel(reason string, now time.Time) error {
	if isBlank(reason) {
		return serrors.NewFieldRequiredError("cancel_reason", "Planning.ValidationRequests.Fields.cancel_reason")
	}
	if r.state != StatePending && r.state != StateOpen {
		return &InvalidTransitionError{From: r.state, Op: OpCancel}
	}
	r.state = StateCancelled
	t := now
	r.cancelledAt = &t
	r.cancelReason = reason
	return nil
}

// Close moves open -> closed with the applicant's (or officer's) outcome.
func (r *ValidationRequest) Close(o Outcome, now time.Time) error {
	if r.state != StateOpen {
		return &InvalidTransitionError{From: r.state, Op: OpClose}
	}
	if err := r.variant.ValidateClose(o); err != nil {
		return err
	}
	r.applyOutcome(o, now)
	return nil
}

// AutoClose moves open -> closed with the variant's default outcome. The
// caller is responsible for deadline checks; a variant without a default
// outcome can never auto-close.
func (r *ValidationRequest) AutoClose(now time.Time) (Outcome, error) {
	if r.state != StateOpen {
		return Outcome{}, &InvalidTransitionError{From: r.state, Op: OpAutoClose}
	}
	outcome, ok := r.variant.DefaultOutcome()
	if !ok {
		return Outcome{}, &InvalidTransitionError{From: r.state, Op: OpAutoClose}
	}
	r.applyOutcome(outcome, now)
	r.autoClosed = true
	t := now
	r.autoClosedAt = &t
	return outcome, nil
}

func (r *ValidationRequest) applyOutcome(o Outcome, now time.Time) {
	r.state = StateClosed
	t := now
	r.closedAt = &t
	approved := o.Approved()
	r.approved = &approved
	r.rejectionReason = o.Reason
	r.response = o.Response
}

// SetUpdateCounter flips the family "needs attention" flag. The counter
// reset policy keeps at most one family member flagged.
func (r *ValidationRequest) SetUpdateCounter(v bool) {
	r.updateCounter = v
}
