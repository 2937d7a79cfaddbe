package services_test

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/unboxed/bops-go/modules/planning/domain/aggregates/caserecord"
	"github.com/unboxed/bops-go/modules/planning/domain/aggregates/validationrequest"
	"github.com/unboxed/bops-go/modules/planning/domain/entities/auditentry"
	"github.com/unboxed/bops-go/modules/planning/services"
	"github.com/unboxed/bops-go/pkg/bdays"
	"github.com/unboxed/bops-go/pkg/composables"
	"github.com/unboxed/bops-go/pkg/eventbus"
)

// stubTx satisfies the transaction surface so InTx joins it instead of
// opening a real database transaction.
type stubTx struct{}

func (stubTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (stubTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (stubTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

type memRequestRepo struct {
	items []*validationrequest.ValidationRequest
}

func (r *memRequestRepo) Create(ctx context.Context, request *validationrequest.ValidationRequest) (*validationrequest.ValidationRequest, error) {
	now := time.Now()
	created := validationrequest.Hydrate(
		uuid.New(),
		request.CaseRecordID(),
		request.Variant(),
		request.State(),
		nil, nil,
		nil, "",
		nil, nil, "", "",
		false, nil,
		request.UpdateCounter(),
		request.CreatedBy(),
		now, now,
	)
	r.items = append(r.items, created)
	return created, nil
}

func (r *memRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*validationrequest.ValidationRequest, error) {
	for _, item := range r.items {
		if item.ID() == id {
			return item, nil
		}
	}
	return nil, validationrequest.ErrNotFound
}

func (r *memRequestRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*validationrequest.ValidationRequest, error) {
	return r.GetByID(ctx, id)
}

func (r *memRequestRepo) Update(ctx context.Context, request *validationrequest.ValidationRequest) error {
	for i, item := range r.items {
		if item.ID() == request.ID() {
			r.items[i] = request
			return nil
		}
	}
	return validationrequest.ErrNotFound
}

func (r *memRequestRepo) List(ctx context.Context, params *validationrequest.FindParams) ([]*validationrequest.ValidationRequest, error) {
	var out []*validationrequest.ValidationRequest
	for i := len(r.items) - 1; i >= 0; i-- {
		item := r.items[i]
		if item.CaseRecordID() != params.CaseRecordID {
			continue
		}
		if params.Kind != nil && item.Kind() != *params.Kind {
			continue
		}
		if len(params.States) > 0 && !containsState(params.States, item.State()) {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *memRequestRepo) FamilyMembers(ctx context.Context, caseRecordID uuid.UUID, kind validationrequest.Kind, familyKey string) ([]*validationrequest.ValidationRequest, error) {
	var out []*validationrequest.ValidationRequest
	for i := len(r.items) - 1; i >= 0; i-- {
		item := r.items[i]
		if item.CaseRecordID() != caseRecordID || item.Kind() != kind {
			continue
		}
		if key, ok := item.Variant().ExclusivityKey(); ok && key == familyKey {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *memRequestRepo) Overdue(ctx context.Context, asOf time.Time, kinds []validationrequest.Kind, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, item := range r.items {
		if item.State() != validationrequest.StateOpen || item.Deadline() == nil {
			continue
		}
		if item.Deadline().After(asOf) {
			continue
		}
		if !containsKind(kinds, item.Kind()) {
			continue
		}
		ids = append(ids, item.ID())
		if len(ids) == limit {
			break
		}
	}
	return ids, nil
}

func (r *memRequestRepo) SetFamilyCounter(ctx context.Context, caseRecordID uuid.UUID, kind validationrequest.Kind, familyKey string, holderID uuid.UUID) error {
	for _, item := range r.items {
		if item.CaseRecordID() != caseRecordID || item.Kind() != kind {
			continue
		}
		if key, ok := item.Variant().ExclusivityKey(); ok && key == familyKey {
			item.SetUpdateCounter(item.ID() == holderID)
		}
	}
	return nil
}

func containsState(states []validationrequest.State, s validationrequest.State) bool {
	for _, state := range states {
		if state == s {
			return true
		}
	}
	return false
}

func containsKind(kinds []validationrequest.Kind, k validationrequest.Kind) bool {
	for _, kind := range kinds {
		if kind == k {
			return true
		}
	}
	return false
}

type memCaseRepo struct {
	items map[uuid.UUID]*caserecord.CaseRecord
}

func newMemCaseRepo() *memCaseRepo {
	return &memCaseRepo{items: map[uuid.UUID]*caserecord.CaseRecord{}}
}

func (r *memCaseRepo) Create(ctx context.Context, record *caserecord.CaseRecord) (*caserecord.CaseRecord, error) {
	now := time.Now()
	created := caserecord.Hydrate(
		uuid.New(),
		record.Reference(),
		record.Description(),
		record.Boundary(),
		record.ExpiryDate(),
		record.Status(),
		record.ValidFee(),
		record.ValidBoundary(),
		record.Documents(),
		record.Conditions(),
		record.Terms(),
		record.Certificate(),
		record.Responses(),
		now, now,
	)
	r.items[created.ID()] = created
	return created, nil
}

func (r *memCaseRepo) GetByID(ctx context.Context, id uuid.UUID) (*caserecord.CaseRecord, error) {
	record, ok := r.items[id]
	if !ok {
		return nil, caserecord.ErrNotFound
	}
	return record, nil
}

func (r *memCaseRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*caserecord.CaseRecord, error) {
	return r.GetByID(ctx, id)
}

func (r *memCaseRepo) Update(ctx context.Context, record *caserecord.CaseRecord) error {
	if _, ok := r.items[record.ID()]; !ok {
		return caserecord.ErrNotFound
	}
	r.items[record.ID()] = record
	return nil
}

func (r *memCaseRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status caserecord.Status) error {
	record, ok := r.items[id]
	if !ok {
		return caserecord.ErrNotFound
	}
	record.SetStatus(status)
	return nil
}

type memAudit struct {
	entries []auditentry.AuditEntry
}

func (a *memAudit) Record(ctx context.Context, entry auditentry.AuditEntry) error {
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now()
	a.entries = append(a.entries, entry)
	return nil
}

func (a *memAudit) ListByCase(ctx context.Context, caseRecordID uuid.UUID) ([]auditentry.AuditEntry, error) {
	var out []auditentry.AuditEntry
	for _, entry := range a.entries {
		if entry.CaseRecordID == caseRecordID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (a *memAudit) activities() []string {
	out := make([]string, 0, len(a.entries))
	for _, entry := range a.entries {
		out = append(out, entry.ActivityType)
	}
	return out
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type fixture struct {
	ctx      context.Context
	svc      *services.ValidationRequestService
	caseSvc  *services.CaseRecordService
	requests *memRequestRepo
	cases    *memCaseRepo
	audit    *memAudit
	clock    *fakeClock

	officer auditentry.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	bus := eventbus.NewEventPublisher(logger)

	requests := &memRequestRepo{}
	cases := newMemCaseRepo()
	audit := &memAudit{}
	// Monday.
	clock := &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}

	svc := services.NewValidationRequestService(services.ValidationRequestServiceParams{
		Requests:  requests,
		Cases:     cases,
		Audit:     audit,
		Calendar:  bdays.New(nil),
		Publisher: bus,
		Notifier:  &services.LogNotifier{Logger: logger},
		Clock:     clock.Now,
	})
	caseSvc := services.NewCaseRecordService(cases, audit, bus)

	ctx := composables.WithTx(context.Background(), stubTx{})
	ctx = composables.WithLogger(ctx, logrus.NewEntry(logger))

	// Mirrors the module wiring: a status change dispatches newly eligible
	// pending requests.
	bus.Subscribe(func(event *caserecord.StatusChangedEvent) {
		_ = svc.DispatchPending(ctx, event.CaseRecordID, event.Next, auditentry.System())
	})

	return &fixture{
		ctx:      ctx,
		svc:      svc,
		caseSvc:  caseSvc,
		requests: requests,
		cases:    cases,
		audit:    audit,
		clock:    clock,
		officer:  auditentry.Actor{ID: uuid.New(), Name: "Alice Officer", Role: auditentry.RoleOfficer},
	}
}

func (f *fixture) newCase(t *testing.T, status caserecord.Status) *caserecord.CaseRecord {
	t.Helper()
	rec, err := f.caseSvc.Create(f.ctx, "PA-2026-0042", "Two storey side extension")
	require.NoError(t, err)
	if status != caserecord.StatusNotStarted {
		require.NoError(t, f.caseSvc.SetStatus(f.ctx, rec.ID(), status, f.officer))
	}
	return rec
}

func payload(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func TestCreate_BeforeValidationStaysPending(t *testing.T) {
	f := newFixture(t)
	rec := f.newCase(t, caserecord.StatusNotStarted)

	request, err := f.svc.Create(f.ctx, rec.ID(), validationrequest.KindReplacementDocument,
		payload(t, map[string]any{"old_document_id": uuid.New(), "reason": "illegible scan"}), f.officer)
	require.NoError(t, err)

	require.Equal(t, validationrequest.StatePending, request.State())
	require.Nil(t, request.NotifiedAt())
	require.Contains(t, f.audit.activities(), "validation_request_created")
	require.NotContains(t, f.audit.activities(), "validation_request_sent")
}

func TestCreate_OnInvalidatedCaseSendsImmediately(t *testing.T) {
	f := newFixture(t)
	rec := f.newCase(t, caserecord.StatusInvalidated)

	request, err := f.svc.Create(f.ctx, rec.ID(), validationrequest.KindFeeChange,
		payload(t, map[string]any{"reason": "underpaid by £120"}), f.officer)
	require.NoError(t, err)

	require.Equal(t, validationrequest.StateOpen, request.State())
	require.Equal(t, f.clock.Now(), *request.NotifiedAt())
	require.Nil(t, request.Deadline())
	require.Contains(t, f.audit.activities(), "validation_request_sent")
}

func TestCreate_DescriptionChangeSendsBeforeValidation(t *testing.T) {
	f := newFixture(t)
	rec := f.newCase(t, caserecord.StatusNotStarted)

	request, err := f.svc.Create(f.ctx, rec.ID(), validationrequest.KindDescriptionChange,
		payload(t, map[string]any{"proposed_description": "Erection of a rear extension"}), f.officer)
	require.NoError(t, err)

	require.Equal(t, validationrequest.StateOpen, request.State())
	// Six business days from Monday 2 March 2026.
	require.Equal(t, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), *request.Deadline())
}

func TestCreate_PostValidationWindow(t *testing.T) {
	f := newFixture(t)
	rec := f.newCase(t, caserecord.StatusInAssessment)

	_, err := f.svc.Create(f.ctx, rec.ID(), validationrequest.KindFeeChange,
		payload(t, map[string]any{"reason": "underpaid"}), f.officer)
	var windowErr *validationrequest.CreationWindowClosedError
	require.ErrorAs(t, err, &windowErr)
	require.Equal(t, validationrequest.KindFeeChange, windowErr.Kind)

	request, err := f.svc.Create(f.ctx, rec.ID(), validationrequest.KindRedLineBoundaryChange,
		payload(t, map[string]any{"proposed_geometry": map[string]any{"type": "Polygon"}, "reason": "wrong plot"}), f.officer)
	require.NoError(t, err)
	require.Equal(t, validationrequest.StateOpen, request.State())
}

func TestCreate_UnknownCase(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(f.ctx, uuid.New(), validationrequest.KindFeeChange,
		payload(t, map[string]any{"reason": "underpaid"}), f.officer)
	require.ErrorIs(t, err, caserecord.ErrNotFound)
}

func TestCreate_InvalidPayload(t *testing.T) {
	f := newFixture(t)
	rec := f.newCase(t, caserecord.StatusInvalidated)

	_, err := f.svc.Create(f.ctx, rec.ID(), validationrequest.KindFeeChange,
		payload(t, map[string]any{}), f.officer)
	require.Error(t, err)
	require.Empty(t, f.requests.items)
}

func TestCreate_AppliesHold(t *testing.T) {
	f := newFixture(t)
	rec := f.newCase(t, caserecord.StatusInvalidated)

	request, err := f.svc.Create(f.ctx, rec.ID(), validationrequest.KindFeeChange,
		payload(t, map[string]any{"reason": "underpaid"}), f.officer)
	require.NoError(t, err)
	// The counter only marks terminal events, never newly raised requests.
	require.False(t, request.UpdateCounter())

	stored, err := f.cases.GetByID(f.ctx, rec.ID())
	require.NoError(t, err)
	require.NotNil(t, stored.ValidFee())
	require.False(t, *stored.ValidFee())
}

func TestCancel_ReleasesHoldAndFlagsCounter(t *testing.T) {
	f := newFixture(t)
	rec := f.newCase(t, caserecord.StatusInvalidated)

	request, err := f.svc.Create(f.ctx, rec.ID(), validationrequest.KindFeeChange,
		payload(t, map[string]any{"reason": "underpaid"}), f.officer)
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(f.ctx, request.ID(), "raised in error", f.officer)
	require.NoError(t, err)
	require.Equal(t, validationrequest.StateCancelled, cancelled.State())
	require.True(t, cancelled.UpdateCounter())

	stored, err := f.cases.GetByID(f.ctx, rec.ID())
	require.NoError(t, err)
	require.Nil(t, stored.ValidFee())
	require.Contains(t, f.audit.activities(), "validation_request_cancelled")
}

func TestMarkAsSent_RepeatedCallIsANoOp(t *testing.T) {
	f := newFixture(t)
	rec := f.newCase(t, caserecord.StatusNotStarted)

	request, err := f.svc.Create(f.ctx, rec.ID(), validationrequest.KindReplacementDocument,
		payload(t, map[string]any{"old_document_id": uuid.New(), "reason": "illegible scan"}), f.officer)
	require.NoError(t, err)

	sent, err := f.svc.MarkAsSent(f.ctx, request.ID(), f.officer)
	require.NoError(t, err)
	require.Equal(t, validationrequest.StateOpen, sent.State())
	notifiedAt := *sent.NotifiedAt()

	f.clock.Advance(24 * time.Hour)

	// The applicant must not be notified twice.
	again, err := f.svc.MarkAsSent(f.ctx, request.ID(), f.officer)
	require.NoError(t, err)
	require.Equal(t, validationrequest.StateOpen, again.State())
	require.Equal(t, notifiedAt, *again.NotifiedAt())

	sends := 0
	for _, activity := range f.audit.activities() {
		if activity == "validation_request_sent" {
			sends++
		}
	}
	require.Equal(t, 1, sends)
}

func TestMarkAsSent_TerminalStatesRefuse(t *testing.T) {
	f := newFixture(t)
	rec := f.newCase(t, caserecord.StatusNotStarted)

	request, err := f.svc.Create(f.ctx, rec.ID(), validationrequest.KindReplacementDocument,
		payload(t, map[string]any{"old_document_id": uuid.New(), "reason": "illegible scan"}), f.officer)
	require.NoError(t, err)

	_, err = f.svc.Cancel(f.ctx, request.ID(), "raised in error", f.officer)
	require.NoError(t, err)

	_, err = f.svc.MarkAsSent(f.ctx, request.ID(), f.officer)
	var transitionErr *validationrequest.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
}

func TestCancel_RequiresReason(t *testing.T) {
	f := newFixture(t)
	rec := f.newCase(t, caserecord.StatusInvalidated)

	request, err := f.svc.Create(f.ctx, rec.ID(), validationrequest.KindFeeChange,
		payload(t, map[string]any{"reason": "underpaid"}), f.officer)
	require.NoError(t, err)

	_, err = f.svc.Cancel(f.ctx, request.ID(), "", f.officer)
	require.Error(t, err)

	stored, err := f.svc.GetByID(f.ctx, request.ID())
	require.NoError(t, err)
	require.Equal(t, validationrequest.StateOpen, stored.State())
}

func TestClose_AppliesEffectAndFlagsCounter(t *testing.T) {
	f := newFixture(t)
	rec := f.newCase(t, caserecord.StatusInvalidated)

	request, err := f.svc.Create(f.ctx, rec.ID(), validationrequest.KindFeeChange,
		payload(t, map[string]any{"reason": "underpaid"}), f.officer)
	require.NoError(t, err)

	applicant := auditentry.Actor{ID: uuid.New(), Name: "Bob Applicant", Role: auditentry.RoleApplicant}
	closed, err := f.svc.Close(f.ctx, request.ID(), validationrequest.Outcome{
		Decision: validationrequest.DecisionApproved,
		Response: "paid the balance",
	}, applicant)
	require.NoError(t, err)

	require.Equal(t, validationrequest.StateClosed, closed.State())
	require.True(t, *closed.Approved())
	require.True(t, closed.UpdateCounter())

	stored, err := f.cases.GetByID(f.ctx, rec.ID())
	require.NoError(t, err)
	require.True(t, *stored.ValidFee())
	require.Contains(t, stored.Responses(), "paid the balance")
}

func TestClose_TerminalStatesRefuse(t *testing.T) {
	f := newFixture(t)
	rec := f.newCase(t, caserecord.StatusInvalidated)

	request, err := f.svc.Create(f.ctx, rec.ID(), validationrequest.KindFeeChange,
		payload(t, map[string]any{"reason": "underpaid"}), f.officer)
	require.NoError(t, err)

	_, err = f.svc.Cancel(f.ctx, request.ID(), "done", f.officer)
	require.NoError(t, err)

	_, err = f.svc.Close(f.ctx, request.ID(), validationrequest.Outcome{
		Decision: validationrequest.DecisionApproved,
		Response: "late reply",
	}, f.officer)
	var transitionErr *validationrequest.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
}

// Scenario: a request raised before the case is looked at waits for the
// invalidation notice, then goes out with it.
func TestStatusChange_DispatchesPendingRequests(t *testing.T) {
	f := newFixture(t)
	rec := f.newCase(t, caserecord.StatusNotStarted)

	request, err := f.svc.Create(f.ctx, rec.ID(), validationrequest.KindReplacementDocument,
		payload(t, map[string]any{"old_document_id": uuid.New(), "reason": "illegible scan"}), f.officer)
	require.NoError(t, err)
	require.Equal(t, validationrequest.StatePending, request.State())

	require.NoError(t, f.caseSvc.SetStatus(f.ctx, rec.ID(), caserecord.StatusInvalidated, f.officer))

	stored, err := f.svc.GetByID(f.ctx, request.ID())
	require.NoError(t, err)
	require.Equal(t, validationrequest.StateOpen, stored.State())
	require.Equal(t, f.clock.Now(), *stored.NotifiedAt())
}

// A fee change left pending when the case skips invalidation must not go
// out after validation, its creation window has closed.
func TestStatusChange_PostValidationSkipsClosedWindowKinds(t *testing.T) {
	f := newFixture(t)
	rec := f.newCase(t, caserecord.StatusNotStarted)

	request, err := f.svc.Create(f.ctx, rec.ID(), validationrequest.KindFeeChange,
		payload(t, map[string]any{"reason": "underpaid"}), f.officer)
	require.NoError(t, err)
	require.Equal(t, validationrequest.StatePending, request.State())

	require.NoError(t, f.caseSvc.SetStatus(f.ctx, rec.ID(), caserecord.StatusInAssessment, f.officer))

	stored, err := f.svc.GetByID(f.ctx, request.ID())
	require.NoError(t, err)
	require.Equal(t, validationrequest.StatePending, stored.State())
	require.Nil(t, stored.NotifiedAt())
}

// Scenario: no applicant response by the business-day deadline closes a
// boundary change with its default outcome and swaps the geometry.
func TestSweep_AutoClosesOverdueBoundaryChange(t *testing.T) {
	f := newFixture(t)
	rec := f.newCase(t, caserecord.StatusInvalidated)

	request, err := f.svc.Create(f.ctx, rec.ID(), validationrequest.KindRedLineBoundaryChange,
		payload(t, map[string]any{"proposed_geometry": map[string]any{"type": "Polygon"}, "reason": "wrong plot"}), f.officer)
	require.NoError(t, err)

	// Five business days from Monday 2 March 2026 is Monday 9 March.
	require.Equal(t, time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC), *request.Deadline())

	f.clock.Advance(7 * 24 * time.Hour)

	due, err := f.svc.OverdueRequests(f.ctx, f.clock.Now(), 100)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{request.ID()}, due)

	require.NoError(t, f.svc.AutoClose(f.ctx, request.ID()))

	stored, err := f.svc.GetByID(f.ctx, request.ID())
	require.NoError(t, err)
	require.Equal(t, validationrequest.StateClosed, stored.State())
	require.True(t, stored.AutoClosed())
	require.True(t, *stored.Approved())

	storedCase, err := f.cases.GetByID(f.ctx, rec.ID())
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"Polygon"}`, string(storedCase.Boundary()))
	require.True(t, *storedCase.ValidBoundary())
	require.Contains(t, f.audit.activities(), "validation_request_auto_closed")
}

func TestAutoClose_LosingTheRaceIsNotAnError(t *testing.T) {
	f := newFixture(t)
	rec := f.newCase(t, caserecord.StatusInvalidated)

	request, err := f.svc.Create(f.ctx, rec.ID(), validationrequest.KindRedLineBoundaryChange,
		payload(t, map[string]any{"proposed_geometry": map[string]any{"type": "Polygon"}, "reason": "wrong plot"}), f.officer)
	require.NoError(t, err)

	// The applicant responds before the sweep reaches the item.
	_, err = f.svc.Close(f.ctx, request.ID(), validationrequest.Outcome{
		Decision: validationrequest.DecisionRejected,
		Reason:   "the boundary is correct as submitted",
	}, auditentry.Actor{ID: uuid.New(), Name: "Bob Applicant", Role: auditentry.RoleApplicant})
	require.NoError(t, err)

	require.NoError(t, f.svc.AutoClose(f.ctx, request.ID()))

	stored, err := f.svc.GetByID(f.ctx, request.ID())
	require.NoError(t, err)
	require.False(t, stored.AutoClosed())
	require.False(t, *stored.Approved())
	require.NotContains(t, f.audit.activities(), "validation_request_auto_closed")
}

// Scenario: rejecting a pre-commencement condition without a reason fails
// validation and leaves everything untouched.
func TestClose_RejectionWithoutReasonFails(t *testing.T) {
	f := newFixture(t)
	rec := f.newCase(t, caserecord.StatusInvalidated)

	request, err := f.svc.Create(f.ctx, rec.ID(), validationrequest.KindPreCommencementCondition,
		payload(t, map[string]any{"condition_ref": "PC1", "condition_text": "materials to be agreed"}), f.officer)
	require.NoError(t, err)

	_, err = f.svc.Close(f.ctx, request.ID(), validationrequest.Outcome{
		Decision: validationrequest.DecisionRejected,
	}, f.officer)
	require.Error(t, err)

	stored, err := f.svc.GetByID(f.ctx, request.ID())
	require.NoError(t, err)
	require.Equal(t, validationrequest.StateOpen, stored.State())

	storedCase, err := f.cases.GetByID(f.ctx, rec.ID())
	require.NoError(t, err)
	require.Empty(t, storedCase.Conditions())
}

// Scenario: one open fee change blocks a second; cancelling the first frees
// the family for a replacement.
func TestExclusivity_OneOpenRequestPerFamily(t *testing.T) {
	f := newFixture(t)
	rec := f.newCase(t, caserecord.StatusInvalidated)

	first, err := f.svc.Create(f.ctx, rec.ID(), validationrequest.KindFeeChange,
		payload(t, map[string]any{"reason": "underpaid"}), f.officer)
	require.NoError(t, err)

	_, err = f.svc.Create(f.ctx, rec.ID(), validationrequest.KindFeeChange,
		payload(t, map[string]any{"reason": "still underpaid"}), f.officer)
	var exclusivityErr *validationrequest.ExclusivityError
	require.ErrorAs(t, err, &exclusivityErr)
	require.Equal(t, validationrequest.KindFeeChange, exclusivityErr.Kind)
	require.Equal(t, "fee", exclusivityErr.FamilyKey)

	_, err = f.svc.Cancel(f.ctx, first.ID(), "typo in the amount", f.officer)
	require.NoError(t, err)

	second, err := f.svc.Create(f.ctx, rec.ID(), validationrequest.KindFeeChange,
		payload(t, map[string]any{"reason": "underpaid by £120"}), f.officer)
	require.NoError(t, err)
	require.False(t, second.UpdateCounter())

	// The cancelled request stays the family's latest terminal event.
	stored, err := f.svc.GetByID(f.ctx, first.ID())
	require.NoError(t, err)
	require.True(t, stored.UpdateCounter())
}

// Whenever a counted request closes or is cancelled, it takes the family's
// update counter and every sibling loses it.
func TestCounter_FollowsLatestTerminalEvent(t *testing.T) {
	f := newFixture(t)
	rec := f.newCase(t, caserecord.StatusInvalidated)

	first, err := f.svc.Create(f.ctx, rec.ID(), validationrequest.KindFeeChange,
		payload(t, map[string]any{"reason": "underpaid"}), f.officer)
	require.NoError(t, err)

	closed, err := f.svc.Close(f.ctx, first.ID(), validationrequest.Outcome{
		Decision: validationrequest.DecisionRejected,
		Reason:   "the fee is correct",
		Response: "the fee is correct",
	}, f.officer)
	require.NoError(t, err)
	require.True(t, closed.UpdateCounter())

	second, err := f.svc.Create(f.ctx, rec.ID(), validationrequest.KindFeeChange,
		payload(t, map[string]any{"reason": "still underpaid"}), f.officer)
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(f.ctx, second.ID(), "raised against the wrong case", f.officer)
	require.NoError(t, err)
	require.True(t, cancelled.UpdateCounter())

	// The flag moved with the newer terminal event.
	stored, err := f.svc.GetByID(f.ctx, first.ID())
	require.NoError(t, err)
	require.False(t, stored.UpdateCounter())
}

func TestExclusivity_DifferentFamiliesCoexist(t *testing.T) {
	f := newFixture(t)
	rec := f.newCase(t, caserecord.StatusInvalidated)

	_, err := f.svc.Create(f.ctx, rec.ID(), validationrequest.KindHeadsOfTerms,
		payload(t, map[string]any{"term_ref": "HT1", "term_text": "open space"}), f.officer)
	require.NoError(t, err)

	_, err = f.svc.Create(f.ctx, rec.ID(), validationrequest.KindHeadsOfTerms,
		payload(t, map[string]any{"term_ref": "HT2", "term_text": "highways contribution"}), f.officer)
	require.NoError(t, err)

	_, err = f.svc.Create(f.ctx, rec.ID(), validationrequest.KindAdditionalDocument,
		payload(t, map[string]any{"document_request_type": "floor plan"}), f.officer)
	require.NoError(t, err)
	_, err = f.svc.Create(f.ctx, rec.ID(), validationrequest.KindAdditionalDocument,
		payload(t, map[string]any{"document_request_type": "site plan"}), f.officer)
	require.NoError(t, err)
}

func TestListByCase_FiltersByState(t *testing.T) {
	f := newFixture(t)
	rec := f.newCase(t, caserecord.StatusInvalidated)

	first, err := f.svc.Create(f.ctx, rec.ID(), validationrequest.KindFeeChange,
		payload(t, map[string]any{"reason": "underpaid"}), f.officer)
	require.NoError(t, err)
	_, err = f.svc.Cancel(f.ctx, first.ID(), "superseded", f.officer)
	require.NoError(t, err)

	_, err = f.svc.Create(f.ctx, rec.ID(), validationrequest.KindFeeChange,
		payload(t, map[string]any{"reason": "underpaid by £120"}), f.officer)
	require.NoError(t, err)

	open, err := f.svc.ListByCase(f.ctx, &validationrequest.FindParams{
		CaseRecordID: rec.ID(),
		States:       []validationrequest.State{validationrequest.StateOpen},
	})
	require.NoError(t, err)
	require.Len(t, open, 1)

	all, err := f.svc.ListByCase(f.ctx, &validationrequest.FindParams{CaseRecordID: rec.ID()})
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestAuditTrail_RecordsEveryTransition(t *testing.T) {
	f := newFixture(t)
	rec := f.newCase(t, caserecord.StatusInvalidated)

	request, err := f.svc.Create(f.ctx, rec.ID(), validationrequest.KindFeeChange,
		payload(t, map[string]any{"reason": "underpaid"}), f.officer)
	require.NoError(t, err)

	_, err = f.svc.Close(f.ctx, request.ID(), validationrequest.Outcome{
		Decision: validationrequest.DecisionApproved,
		Response: "paid",
	}, f.officer)
	require.NoError(t, err)

	trail, err := f.caseSvc.AuditTrail(f.ctx, rec.ID())
	require.NoError(t, err)

	activities := make([]string, 0, len(trail))
	for _, entry := range trail {
		activities = append(activities, entry.ActivityType)
	}
	require.Subset(t, activities, []string{
		"validation_request_created",
		"validation_request_sent",
		"validation_request_closed",
	})

	for _, entry := range trail {
		if entry.TargetType == "validation_request" {
			require.Equal(t, request.ID(), entry.TargetID)
			require.Equal(t, f.officer.ID, entry.Actor.ID)
		}
	}
}
