package validationrequest

import (
	"time"

	"github.com/unboxed/bops-go/modules/planning/domain/aggregates/caserecord"
	"github.com/unboxed/bops-go/pkg/serrors"
)

// PreCommencementCondition asks the applicant to agree a condition before a
// decision is issued. Silence is agreement: after ten business days the sweep
// closes the request as approved.
type PreCommencementCondition struct {
	ConditionRef  string `json:"condition_ref"`
	ConditionText string `json:"condition_text"`
}

func (v *PreCommencementCondition) Kind() Kind {
	return KindPreCommencementCondition
}

func (v *PreCommencementCondition) ValidateCreate() error {
	if isBlank(v.ConditionRef) {
		return serrors.NewFieldRequiredError("condition_ref", "Planning.ValidationRequests.Fields.condition_ref")
	}
	if isBlank(v.ConditionText) {
		return serrors.NewFieldRequiredError("condition_text", "Planning.ValidationRequests.Fields.condition_text")
	}
	return nil
}

func (v *PreCommencementCondition) ValidateClose(o Outcome) error {
	if !o.Approved() && isBlank(o.Reason) {
		return serrors.NewFieldRequiredError("reason", "Planning.ValidationRequests.Fields.reason")
	}
	return nil
}

func (v *PreCommencementCondition) ExclusivityKey() (string, bool) {
	return v.ConditionRef, true
}

func (v *PreCommencementCondition) DeadlineOffset() (int, bool) {
	return 10, true
}

func (v *PreCommencementCondition) DefaultOutcome() (Outcome, bool) {
	return Outcome{Decision: DecisionApproved}, true
}

func (v *PreCommencementCondition) CarriesCounter() bool {
	return true
}

func (v *PreCommencementCondition) ApplyCloseEffect(rec *caserecord.CaseRecord, o Outcome, at time.Time) error {
	if o.Approved() {
		rec.ApproveCondition(v.ConditionRef)
	}
	return nil
}

func (v *PreCommencementCondition) ApplyHold(rec *caserecord.CaseRecord)   {}
func (v *PreCommencementCondition) ReleaseHold(rec *caserecord.CaseRecord) {}
