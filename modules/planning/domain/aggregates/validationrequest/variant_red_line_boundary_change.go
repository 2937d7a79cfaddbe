package validationrequest

import (
	"encoding/json"
	"time"

	"github.com/unboxed/bops-go/modules/planning/domain/aggregates/caserecord"
	"github.com/unboxed/bops-go/pkg/serrors"
)

// RedLineBoundaryChange proposes a corrected site boundary. The case's
// boundary validity is held down while the request is in flight, and silence
// past five business days is taken as agreement with the proposed geometry.
type RedLineBoundaryChange struct {
	ProposedGeometry json.RawMessage `json:"proposed_geometry"`
	OriginalGeometry json.RawMessage `json:"original_geometry,omitempty"`
	Reason           string          `json:"reason"`
}

func (v *RedLineBoundaryChange) Kind() Kind {
	return KindRedLineBoundaryChange
}

func (v *RedLineBoundaryChange) ValidateCreate() error {
	if len(v.ProposedGeometry) == 0 {
		return serrors.NewFieldRequiredError("proposed_geometry", "Planning.ValidationRequests.Fields.proposed_geometry")
	}
	if isBlank(v.Reason) {
		return serrors.NewFieldRequiredError("reason", "Planning.ValidationRequests.Fields.reason")
	}
	return nil
}

func (v *RedLineBoundaryChange) ValidateClose(o Outcome) error {
	if !o.Approved() && isBlank(o.Reason) {
		return serrors.NewFieldRequiredError("reason", "Planning.ValidationRequests.Fields.reason")
	}
	return nil
}

func (v *RedLineBoundaryChange) ExclusivityKey() (string, bool) {
	return "red_line_boundary", true
}

func (v *RedLineBoundaryChange) DeadlineOffset() (int, bool) {
	return 5, true
}

func (v *RedLineBoundaryChange) DefaultOutcome() (Outcome, bool) {
	return Outcome{Decision: DecisionApproved}, true
}

func (v *RedLineBoundaryChange) CarriesCounter() bool {
	return true
}

func (v *RedLineBoundaryChange) ApplyCloseEffect(rec *caserecord.CaseRecord, o Outcome, at time.Time) error {
	if o.Approved() {
		rec.ApplyBoundary(v.ProposedGeometry)
	}
	return nil
}

func (v *RedLineBoundaryChange) ApplyHold(rec *caserecord.CaseRecord) {
	rec.MarkBoundaryInvalid()
}

func (v *RedLineBoundaryChange) ReleaseHold(rec *caserecord.CaseRecord) {
	rec.ResetBoundaryValidity()
}
