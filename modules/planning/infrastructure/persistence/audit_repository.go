package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/unboxed/bops-go/modules/planning/domain/entities/auditentry"
	"github.com/unboxed/bops-go/pkg/composables"
)

type AuditRepository struct{}

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

func (r *AuditRepository) Record(ctx context.Context, entry auditentry.AuditEntry) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO audit_entries (
			case_record_id,
			actor_id,
			actor_name,
			actor_role,
			activity_type,
			comment,
			target_type,
			target_id
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		pgUUID(entry.CaseRecordID),
		pgNullableUUID(entry.Actor.ID),
		entry.Actor.Name,
		entry.Actor.Role,
		entry.ActivityType,
		entry.Comment,
		entry.TargetType,
		pgNullableUUID(entry.TargetID),
	)
	return err
}

func (r *AuditRepository) ListByCase(ctx context.Context, caseRecordID uuid.UUID) ([]auditentry.AuditEntry, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT
			id,
			case_record_id,
			actor_id,
			actor_name,
			actor_role,
			activity_type,
			comment,
			target_type,
			target_id,
			created_at
		FROM audit_entries
		WHERE case_record_id=$1
		ORDER BY created_at, id`,
		pgUUID(caseRecordID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []auditentry.AuditEntry
	for rows.Next() {
		var (
			id        pgtype.UUID
			caseID    pgtype.UUID
			actorID   pgtype.UUID
			actorName string
			actorRole string
			activity  string
			comment   string
			targetTyp string
			targetID  pgtype.UUID
			createdAt time.Time
		)
		if err := rows.Scan(&id, &caseID, &actorID, &actorName, &actorRole, &activity, &comment, &targetTyp, &targetID, &createdAt); err != nil {
			return nil, err
		}
		entries = append(entries, auditentry.AuditEntry{
			ID:           asUUID(id),
			CaseRecordID: asUUID(caseID),
			Actor:        auditentry.Actor{ID: asUUID(actorID), Name: actorName, Role: actorRole},
			ActivityType: activity,
			Comment:      comment,
			TargetType:   targetTyp,
			TargetID:     asUUID(targetID),
			CreatedAt:    createdAt,
		})
	}
	return entries, rows.Err()
}
