package validationrequest

import (
	"time"

	"github.com/unboxed/bops-go/modules/planning/domain/aggregates/caserecord"
	"github.com/unboxed/bops-go/pkg/serrors"
)

// FeeChange tells the applicant the submitted fee was wrong. While one is
// outstanding the case carries a fee hold, and closing it requires the
// applicant's response so the officer has something on record before the hold
// is lifted.
type FeeChange struct {
	Reason        string `json:"reason"`
	SuggestedFee  string `json:"suggested_fee,omitempty"`
	PaymentAdvice string `json:"payment_advice,omitempty"`
}

func (v *FeeChange) Kind() Kind {
	return KindFeeChange
}

func (v *FeeChange) ValidateCreate() error {
	if isBlank(v.Reason) {
		return serrors.NewFieldRequiredError("reason", "Planning.ValidationRequests.Fields.reason")
	}
	return nil
}

func (v *FeeChange) ValidateClose(o Outcome) error {
	if isBlank(o.Response) {
		return serrors.NewFieldRequiredError("response", "Planning.ValidationRequests.Fields.response")
	}
	return nil
}

func (v *FeeChange) ExclusivityKey() (string, bool) {
	return "fee", true
}

func (v *FeeChange) DeadlineOffset() (int, bool) {
	return 0, false
}

func (v *FeeChange) DefaultOutcome() (Outcome, bool) {
	return Outcome{}, false
}

func (v *FeeChange) CarriesCounter() bool {
	return true
}

func (v *FeeChange) ApplyCloseEffect(rec *caserecord.CaseRecord, o Outcome, at time.Time) error {
	rec.RecordResponse(o.Response)
	if o.Approved() {
		rec.ClearFeeInvalid()
	}
	return nil
}

func (v *FeeChange) ApplyHold(rec *caserecord.CaseRecord) {
	rec.MarkFeeInvalid()
}

func (v *FeeChange) ReleaseHold(rec *caserecord.CaseRecord) {
	rec.ResetFeeValidity()
}
