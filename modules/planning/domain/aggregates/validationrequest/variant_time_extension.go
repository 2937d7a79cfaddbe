package validationrequest

import (
	"time"

	"github.com/unboxed/bops-go/modules/planning/domain/aggregates/caserecord"
	"github.com/unboxed/bops-go/pkg/serrors"
)

// TimeExtension proposes a later statutory determination date. Approval moves
// the case's expiry date to the proposed one.
type TimeExtension struct {
	ProposedExpiryDate time.Time  `json:"proposed_expiry_date"`
	CurrentExpiryDate  *time.Time `json:"current_expiry_date,omitempty"`
	Reason             string     `json:"reason"`
}

func (v *TimeExtension) Kind() Kind {
	return KindTimeExtension
}

func (v *TimeExtension) ValidateCreate() error {
	if v.ProposedExpiryDate.IsZero() {
		return serrors.NewFieldRequiredError("proposed_expiry_date", "Planning.ValidationRequests.Fields.proposed_expiry_date")
	}
	if isBlank(v.Reason) {
		return serrors.NewFieldRequiredError("reason", "Planning.ValidationRequests.Fields.reason")
	}
	return nil
}

func (v *TimeExtension) ValidateClose(o Outcome) error {
	if !o.Approved() && isBlank(o.Reason) {
		return serrors.NewFieldRequiredError("reason", "Planning.ValidationRequests.Fields.reason")
	}
	return nil
}

func (v *TimeExtension) ExclusivityKey() (string, bool) {
	return "time_extension", true
}

func (v *TimeExtension) DeadlineOffset() (int, bool) {
	return 0, false
}

func (v *TimeExtension) DefaultOutcome() (Outcome, bool) {
	return Outcome{}, false
}

func (v *TimeExtension) CarriesCounter() bool {
	return true
}

func (v *TimeExtension) ApplyCloseEffect(rec *caserecord.CaseRecord, o Outcome, at time.Time) error {
	if o.Approved() {
		rec.ApplyExpiryDate(v.ProposedExpiryDate)
	}
	return nil
}

func (v *TimeExtension) ApplyHold(rec *caserecord.CaseRecord)   {}
func (v *TimeExtension) ReleaseHold(rec *caserecord.CaseRecord) {}
