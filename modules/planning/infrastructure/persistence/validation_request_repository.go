package persistence

import (
	"context"
	"strconv"
	"strings"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/unboxed/bops-go/modules/planning/domain/aggregates/validationrequest"
	"github.com/unboxed/bops-go/modules/planning/domain/entities/auditentry"
	"github.com/unboxed/bops-go/pkg/composables"
)

const validationRequestColumns = `
	id,
	case_record_id,
	kind,
	payload,
	state,
	notified_at,
	deadline,
	cancelled_at,
	cancel_reason,
	closed_at,
	approved,
	rejection_reason,
	response,
	auto_closed,
	auto_closed_at,
	update_counter,
	created_by_id,
	created_by_name,
	created_by_role,
	created_at,
	updated_at`

type ValidationRequestRepository struct{}

func NewValidationRequestRepository() *ValidationRequestRepository {
	return &ValidationRequestRepository{}
}

func (r *ValidationRequestRepository) Create(ctx context.Context, request *validationrequest.ValidationRequest) (*validationrequest.ValidationRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := validationrequest.EncodeVariant(request.Variant())
	if err != nil {
		return nil, err
	}

	var familyKey pgtype.Text
	if key, ok := request.Variant().ExclusivityKey(); ok {
		familyKey = pgtype.Text{String: key, Valid: true}
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO validation_requests (
			case_record_id,
			kind,
			family_key,
			payload,
			state,
			update_counter,
			created_by_id,
			created_by_name,
			created_by_role
		)
		VALUES ($1,$2,$3,$4::jsonb,$5,$6,$7,$8,$9)
		RETURNING `+validationRequestColumns,
		pgUUID(request.CaseRecordID()),
		string(request.Kind()),
		familyKey,
		payload,
		string(request.State()),
		request.UpdateCounter(),
		pgNullableUUID(request.CreatedBy().ID),
		request.CreatedBy().Name,
		request.CreatedBy().Role,
	)
	created, err := scanValidationRequest(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if gerrors.As(err, &pgErr) && pgErr.Code == "23505" && strings.Contains(pgErr.ConstraintName, "family_active") {
			return nil, &validationrequest.ExclusivityError{
				Kind:      request.Kind(),
				FamilyKey: familyKey.String,
			}
		}
		return nil, err
	}
	return created, nil
}

func (r *ValidationRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*validationrequest.ValidationRequest, error) {
	return r.getByID(ctx, id, "")
}

func (r *ValidationRequestRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*validationrequest.ValidationRequest, error) {
	return r.getByID(ctx, id, " FOR UPDATE")
}

func (r *ValidationRequestRepository) getByID(ctx context.Context, id uuid.UUID, suffix string) (*validationrequest.ValidationRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx,
		`SELECT `+validationRequestColumns+` FROM validation_requests WHERE id=$1`+suffix,
		pgUUID(id),
	)
	request, err := scanValidationRequest(row)
	if gerrors.Is(err, pgx.ErrNoRows) {
		return nil, validationrequest.ErrNotFound
	}
	return request, err
}

func (r *ValidationRequestRepository) Update(ctx context.Context, request *validationrequest.ValidationRequest) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	payload, err := validationrequest.EncodeVariant(request.Variant())
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE validation_requests SET
			payload=$2::jsonb,
			state=$3,
			notified_at=$4,
			deadline=$5,
			cancelled_at=$6,
			cancel_reason=$7,
			closed_at=$8,
			approved=$9,
			rejection_reason=$10,
			response=$11,
			auto_closed=$12,
			auto_closed_at=$13,
			update_counter=$14,
			updated_at=now()
		WHERE id=$1`,
		pgUUID(request.ID()),
		payload,
		string(request.State()),
		pgTimestamptz(request.NotifiedAt()),
		pgTimestamptz(request.Deadline()),
		pgTimestamptz(request.CancelledAt()),
		request.CancelReason(),
		pgTimestamptz(request.ClosedAt()),
		pgBoolPtr(request.Approved()),
		request.RejectionReason(),
		request.Response(),
		request.AutoClosed(),
		pgTimestamptz(request.AutoClosedAt()),
		request.UpdateCounter(),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return validationrequest.ErrNotFound
	}
	return nil
}

func (r *ValidationRequestRepository) List(ctx context.Context, params *validationrequest.FindParams) ([]*validationrequest.ValidationRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + validationRequestColumns + ` FROM validation_requests WHERE case_record_id=$1`
	args := []any{pgUUID(params.CaseRecordID)}

	if params.Kind != nil {
		args = append(args, string(*params.Kind))
		query += ` AND kind=$2`
	}
	if len(params.States) > 0 {
		states := make([]string, 0, len(params.States))
		for _, s := range params.States {
			states = append(states, string(s))
		}
		args = append(args, states)
		query += ` AND state=ANY($` + strconv.Itoa(len(args)) + `)`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanValidationRequests(rows)
}

func (r *ValidationRequestRepository) FamilyMembers(ctx context.Context, caseRecordID uuid.UUID, kind validationrequest.Kind, familyKey string) ([]*validationrequest.ValidationRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx,
		`SELECT `+validationRequestColumns+`
		FROM validation_requests
		WHERE case_record_id=$1 AND kind=$2 AND family_key=$3
		ORDER BY created_at DESC, id DESC`,
		pgUUID(caseRecordID), string(kind), familyKey,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanValidationRequests(rows)
}

func (r *ValidationRequestRepository) Overdue(ctx context.Context, asOf time.Time, kinds []validationrequest.Kind, limit int) ([]uuid.UUID, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		names = append(names, string(k))
	}

	rows, err := tx.Query(ctx, `
		SELECT id
		FROM validation_requests
		WHERE state='open' AND deadline IS NOT NULL AND deadline <= $1 AND kind=ANY($2)
		ORDER BY deadline
		LIMIT $3`,
		asOf.UTC(), names, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id pgtype.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, asUUID(id))
	}
	return ids, rows.Err()
}

func (r *ValidationRequestRepository) SetFamilyCounter(ctx context.Context, caseRecordID uuid.UUID, kind validationrequest.Kind, familyKey string, holderID uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	// A single statement keeps the at-most-one-holder invariant: every family
	// member is recomputed against the holder id, and uuid.Nil matches none.
	_, err = tx.Exec(ctx, `
		UPDATE validation_requests
		SET update_counter = (id = $4), updated_at = now()
		WHERE case_record_id=$1 AND kind=$2 AND family_key=$3 AND update_counter != (id = $4)`,
		pgUUID(caseRecordID), string(kind), familyKey, pgUUID(holderID),
	)
	return err
}

func scanValidationRequests(rows pgx.Rows) ([]*validationrequest.ValidationRequest, error) {
	var out []*validationrequest.ValidationRequest
	for rows.Next() {
		request, err := scanValidationRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, request)
	}
	return out, rows.Err()
}

func scanValidationRequest(row pgx.Row) (*validationrequest.ValidationRequest, error) {
	var (
		id              pgtype.UUID
		caseRecordID    pgtype.UUID
		kind            string
		payload         []byte
		state           string
		notifiedAt      pgtype.Timestamptz
		deadline        pgtype.Timestamptz
		cancelledAt     pgtype.Timestamptz
		cancelReason    string
		closedAt        pgtype.Timestamptz
		approved        pgtype.Bool
		rejectionReason string
		response        string
		autoClosed      bool
		autoClosedAt    pgtype.Timestamptz
		updateCounter   bool
		createdByID     pgtype.UUID
		createdByName   string
		createdByRole   string
		createdAt       time.Time
		updatedAt       time.Time
	)

	if err := row.Scan(
		&id,
		&caseRecordID,
		&kind,
		&payload,
		&state,
		&notifiedAt,
		&deadline,
		&cancelledAt,
		&cancelReason,
		&closedAt,
		&approved,
		&rejectionReason,
		&response,
		&autoClosed,
		&autoClosedAt,
		&updateCounter,
		&createdByID,
		&createdByName,
		&createdByRole,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	variant, err := validationrequest.DecodeVariant(validationrequest.Kind(kind), payload)
	if err != nil {
		return nil, err
	}

	return validationrequest.Hydrate(
		asUUID(id),
		asUUID(caseRecordID),
		variant,
		validationrequest.State(state),
		asTimePtr(notifiedAt),
		asTimePtr(deadline),
		asTimePtr(cancelledAt),
		cancelReason,
		asTimePtr(closedAt),
		asBoolPtr(approved),
		rejectionReason,
		response,
		autoClosed,
		asTimePtr(autoClosedAt),
		updateCounter,
		auditentry.Actor{ID: asUUID(createdByID), Name: createdByName, Role: createdByRole},
		createdAt,
		updatedAt,
	), nil
}
