package persistence

import (
	"context"
	"encoding/json"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/unboxed/bops-go/modules/planning/domain/aggregates/caserecord"
	"github.com/unboxed/bops-go/pkg/composables"
)

const caseRecordColumns = `
	id,
	reference,
	description,
	boundary,
	expiry_date,
	status,
	valid_fee,
	valid_boundary,
	documents,
	conditions,
	terms,
	certificate,
	responses,
	created_at,
	updated_at`

type CaseRecordRepository struct{}

func NewCaseRecordRepository() *CaseRecordRepository {
	return &CaseRecordRepository{}
}

func (r *CaseRecordRepository) Create(ctx context.Context, record *caserecord.CaseRecord) (*caserecord.CaseRecord, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	documents, conditions, terms, certificate, responses, err := marshalCaseCollections(record)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO case_records (
			reference,
			description,
			boundary,
			expiry_date,
			status,
			valid_fee,
			valid_boundary,
			documents,
			conditions,
			terms,
			certificate,
			responses
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8::jsonb,$9::jsonb,$10::jsonb,$11::jsonb,$12::jsonb)
		RETURNING `+caseRecordColumns,
		record.Reference(),
		record.Description(),
		record.Boundary(),
		pgDate(record.ExpiryDate()),
		string(record.Status()),
		pgBoolPtr(record.ValidFee()),
		pgBoolPtr(record.ValidBoundary()),
		documents,
		conditions,
		terms,
		certificate,
		responses,
	)
	return scanCaseRecord(row)
}

func (r *CaseRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*caserecord.CaseRecord, error) {
	return r.getByID(ctx, id, "")
}

func (r *CaseRecordRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*caserecord.CaseRecord, error) {
	return r.getByID(ctx, id, " FOR UPDATE")
}

func (r *CaseRecordRepository) getByID(ctx context.Context, id uuid.UUID, suffix string) (*caserecord.CaseRecord, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx,
		`SELECT `+caseRecordColumns+` FROM case_records WHERE id=$1`+suffix,
		pgUUID(id),
	)
	record, err := scanCaseRecord(row)
	if gerrors.Is(err, pgx.ErrNoRows) {
		return nil, caserecord.ErrNotFound
	}
	return record, err
}

func (r *CaseRecordRepository) Update(ctx context.Context, record *caserecord.CaseRecord) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	documents, conditions, terms, certificate, responses, err := marshalCaseCollections(record)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE case_records SET
			description=$2,
			boundary=$3,
			expiry_date=$4,
			status=$5,
			valid_fee=$6,
			valid_boundary=$7,
			documents=$8::jsonb,
			conditions=$9::jsonb,
			terms=$10::jsonb,
			certificate=$11::jsonb,
			responses=$12::jsonb,
			updated_at=now()
		WHERE id=$1`,
		pgUUID(record.ID()),
		record.Description(),
		record.Boundary(),
		pgDate(record.ExpiryDate()),
		string(record.Status()),
		pgBoolPtr(record.ValidFee()),
		pgBoolPtr(record.ValidBoundary()),
		documents,
		conditions,
		terms,
		certificate,
		responses,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return caserecord.ErrNotFound
	}
	return nil
}

func (r *CaseRecordRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status caserecord.Status) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx,
		`UPDATE case_records SET status=$2, updated_at=now() WHERE id=$1`,
		pgUUID(id), string(status),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return caserecord.ErrNotFound
	}
	return nil
}

func marshalCaseCollections(record *caserecord.CaseRecord) (documents, conditions, terms, certificate, responses []byte, err error) {
	if documents, err = json.Marshal(orEmpty(record.Documents())); err != nil {
		return nil, nil, nil, nil, nil, err
	}
	if conditions, err = json.Marshal(orEmpty(record.Conditions())); err != nil {
		return nil, nil, nil, nil, nil, err
	}
	if terms, err = json.Marshal(orEmpty(record.Terms())); err != nil {
		return nil, nil, nil, nil, nil, err
	}
	if record.Certificate() != nil {
		if certificate, err = json.Marshal(record.Certificate()); err != nil {
			return nil, nil, nil, nil, nil, err
		}
	}
	if responses, err = json.Marshal(orEmpty(record.Responses())); err != nil {
		return nil, nil, nil, nil, nil, err
	}
	return documents, conditions, terms, certificate, responses, nil
}

func orEmpty[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

func scanCaseRecord(row pgx.Row) (*caserecord.CaseRecord, error) {
	var (
		id            pgtype.UUID
		reference     string
		description   string
		boundary      []byte
		expiryDate    pgtype.Date
		status        string
		validFee      pgtype.Bool
		validBoundary pgtype.Bool
		documentsRaw  []byte
		conditionsRaw []byte
		termsRaw      []byte
		certRaw       []byte
		responsesRaw  []byte
		createdAt     time.Time
		updatedAt     time.Time
	)

	if err := row.Scan(
		&id,
		&reference,
		&description,
		&boundary,
		&expiryDate,
		&status,
		&validFee,
		&validBoundary,
		&documentsRaw,
		&conditionsRaw,
		&termsRaw,
		&certRaw,
		&responsesRaw,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	var documents []caserecord.Document
	if err := json.Unmarshal(documentsRaw, &documents); err != nil {
		return nil, gerrors.Wrap(err, "decode case record documents")
	}
	var conditions []caserecord.Condition
	if err := json.Unmarshal(conditionsRaw, &conditions); err != nil {
		return nil, gerrors.Wrap(err, "decode case record conditions")
	}
	var terms []caserecord.Term
	if err := json.Unmarshal(termsRaw, &terms); err != nil {
		return nil, gerrors.Wrap(err, "decode case record terms")
	}
	var certificate *caserecord.OwnershipCertificate
	if len(certRaw) > 0 {
		certificate = &caserecord.OwnershipCertificate{}
		if err := json.Unmarshal(certRaw, certificate); err != nil {
			return nil, gerrors.Wrap(err, "decode case record certificate")
		}
	}
	var responses []string
	if err := json.Unmarshal(responsesRaw, &responses); err != nil {
		return nil, gerrors.Wrap(err, "decode case record responses")
	}

	return caserecord.Hydrate(
		asUUID(id),
		reference,
		description,
		boundary,
		asDatePtr(expiryDate),
		caserecord.Status(status),
		asBoolPtr(validFee),
		asBoolPtr(validBoundary),
		documents,
		conditions,
		terms,
		certificate,
		responses,
		createdAt,
		updatedAt,
	), nil
}
