package validationrequest

import (
	"time"

	"github.com/unboxed/bops-go/modules/planning/domain/aggregates/caserecord"
	"github.com/unboxed/bops-go/pkg/serrors"
)

// HeadsOfTerms covers agreement of a single section 106 term. Exclusivity is
// per term, so two different terms can be under negotiation at the same time.
type HeadsOfTerms struct {
	TermRef  string `json:"term_ref"`
	TermText string `json:"term_text"`
}

func (v *HeadsOfTerms) Kind() Kind {
	return KindHeadsOfTerms
}

func (v *HeadsOfTerms) ValidateCreate() error {
	if isBlank(v.TermRef) {
		return serrors.NewFieldRequiredError("term_ref", "Planning.ValidationRequests.Fields.term_ref")
	}
	if isBlank(v.TermText) {
		return serrors.NewFieldRequiredError("term_text", "Planning.ValidationRequests.Fields.term_text")
	}
	return nil
}

func (v *HeadsOfTerms) ValidateClose(o Outcome) error {
	if !o.Approved() && isBlank(o.Reason) {
		return serrors.NewFieldRequiredError("reason", "Planning.ValidationRequests.Fields.reason")
	}
	return nil
}

func (v *HeadsOfTerms) ExclusivityKey() (string, bool) {
	return v.TermRef, true
}

func (v *HeadsOfTerms) DeadlineOffset() (int, bool) {
	return 0, false
}

func (v *HeadsOfTerms) DefaultOutcome() (Outcome, bool) {
	return Outcome{}, false
}

func (v *HeadsOfTerms) CarriesCounter() bool {
	return true
}

func (v *HeadsOfTerms) ApplyCloseEffect(rec *caserecord.CaseRecord, o Outcome, at time.Time) error {
	if o.Approved() {
		rec.ApproveTerm(v.TermRef)
		return nil
	}
	rec.RejectTerm(v.TermRef)
	return nil
}

func (v *HeadsOfTerms) ApplyHold(rec *caserecord.CaseRecord)   {}
func (v *HeadsOfTerms) ReleaseHold(rec *caserecord.CaseRecord) {}
