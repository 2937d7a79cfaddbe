package mappers

import (
	"encoding/json"

	"github.com/unboxed/bops-go/modules/planning/domain/aggregates/caserecord"
	"github.com/unboxed/bops-go/modules/planning/domain/aggregates/validationrequest"
	"github.com/unboxed/bops-go/modules/planning/domain/entities/auditentry"
)

func ValidationRequestToJSON(r *validationrequest.ValidationRequest) map[string]any {
	payload, _ := validationrequest.EncodeVariant(r.Variant())

	out := map[string]any{
		"id":             r.ID(),
		"case_record_id": r.CaseRecordID(),
		"kind":           r.Kind(),
		"state":          r.State(),
		"payload":        json.RawMessage(payload),
		"update_counter": r.UpdateCounter(),
		"auto_closed":    r.AutoClosed(),
		"created_by": map[string]any{
			"id":   r.CreatedBy().ID,
			"name": r.CreatedBy().Name,
			"role": r.CreatedBy().Role,
		},
		"created_at": r.CreatedAt(),
		"updated_at": r.UpdatedAt(),
	}
	if v := r.NotifiedAt(); v != nil {
		out["notified_at"] = v
	}
	if v := r.Deadline(); v != nil {
		out["deadline"] = v
	}
	if v := r.CancelledAt(); v != nil {
		out["cancelled_at"] = v
		out["cancel_reason"] = r.CancelReason()
	}
	if v := r.ClosedAt(); v != nil {
		out["closed_at"] = v
		out["approved"] = r.Approved()
		out["rejection_reason"] = r.RejectionReason()
		out["response"] = r.Response()
	}
	if v := r.AutoClosedAt(); v != nil {
		out["auto_closed_at"] = v
	}
	return out
}

func CaseRecordToJSON(rec *caserecord.CaseRecord) map[string]any {
	out := map[string]any{
		"id":          rec.ID(),
		"reference":   rec.Reference(),
		"description": rec.Description(),
		"status":      rec.Status(),
		"documents":   rec.Documents(),
		"conditions":  rec.Conditions(),
		"terms":       rec.Terms(),
		"responses":   rec.Responses(),
		"created_at":  rec.CreatedAt(),
		"updated_at":  rec.UpdatedAt(),
	}
	if v := rec.Boundary(); len(v) > 0 {
		out["boundary"] = json.RawMessage(v)
	}
	if v := rec.ExpiryDate(); v != nil {
		out["expiry_date"] = v
	}
	out["valid_fee"] = rec.ValidFee()
	out["valid_boundary"] = rec.ValidBoundary()
	if v := rec.Certificate(); v != nil {
		out["certificate"] = v
	}
	return out
}

func AuditEntryToJSON(entry auditentry.AuditEntry) map[string]any {
	return map[string]any{
		"id":             entry.ID,
		"case_record_id": entry.CaseRecordID,
		"actor": map[string]any{
			"id":   entry.Actor.ID,
			"name": entry.Actor.Name,
			"role": entry.Actor.Role,
		},
		"activity_type": entry.ActivityType,
		"comment":       entry.Comment,
		"target_type":   entry.TargetType,
		"target_id":     entry.TargetID,
		"created_at":    entry.CreatedAt,
	}
}
