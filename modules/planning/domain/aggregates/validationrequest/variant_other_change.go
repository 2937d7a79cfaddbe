package validationrequest

import (
	"time"

	"github.com/unboxed/bops-go/modules/planning/domain/aggregates/caserecord"
	"github.com/unboxed/bops-go/pkg/serrors"
)

// OtherChange is the catch-all for corrections no structured kind covers.
// Exclusivity is keyed on the summary so unrelated corrections can run in
// parallel. A fee-related correction additionally behaves like a fee hold.
type OtherChange struct {
	Summary    string `json:"summary"`
	Suggestion string `json:"suggestion,omitempty"`
	FeeItem    bool   `json:"fee_item,omitempty"`
}

func (v *OtherChange) Kind() Kind {
	return KindOtherChange
}

func (v *OtherChange) ValidateCreate() error {
	if isBlank(v.Summary) {
		return serrors.NewFieldRequiredError("summary", "Planning.ValidationRequests.Fields.summary")
	}
	return nil
}

func (v *OtherChange) ValidateClose(o Outcome) error {
	if isBlank(o.Response) {
		return serrors.NewFieldRequiredError("response", "Planning.ValidationRequests.Fields.response")
	}
	return nil
}

func (v *OtherChange) ExclusivityKey() (string, bool) {
	return v.Summary, true
}

func (v *OtherChange) DeadlineOffset() (int, bool) {
	return 0, false
}

func (v *OtherChange) DefaultOutcome() (Outcome, bool) {
	return Outcome{}, false
}

func (v *OtherChange) CarriesCounter() bool {
	return true
}

func (v *OtherChange) ApplyCloseEffect(rec *caserecord.CaseRecord, o Outcome, at time.Time) error {
	rec.RecordResponse(o.Response)
	if o.Approved() && v.FeeItem {
		rec.ClearFeeInvalid()
	}
	return nil
}

func (v *OtherChange) ApplyHold(rec *caserecord.CaseRecord) {
	if v.FeeItem {
		rec.MarkFeeInvalid()
	}
}

func (v *OtherChange) ReleaseHold(rec *caserecord.CaseRecord) {
	if v.FeeItem {
		rec.ResetFeeValidity()
	}
}
