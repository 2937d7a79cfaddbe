package validationrequest

import (
	"time"

	"github.com/unboxed/bops-go/modules/planning/domain/aggregates/caserecord"
	"github.com/unboxed/bops-go/pkg/serrors"
)

// DescriptionChange proposes new wording for the development description. The
// applicant has a deadline to object, but failing to respond is treated as
// tacit agreement by the officer rather than by the sweep, so the kind carries
// a deadline without an auto-close default. It also never flips the update
// counter: a description change does not invalidate the application.
type DescriptionChange struct {
	ProposedDescription string `json:"proposed_description"`
	PreviousDescription string `json:"previous_description,omitempty"`
}

func (v *DescriptionChange) Kind() Kind {
	return KindDescriptionChange
}

func (v *DescriptionChange) ValidateCreate() error {
	if isBlank(v.ProposedDescription) {
		return serrors.NewFieldRequiredError("proposed_description", "Planning.ValidationRequests.Fields.proposed_description")
	}
	return nil
}

func (v *DescriptionChange) ValidateClose(o Outcome) error {
	if !o.Approved() && isBlank(o.Reason) {
		return serrors.NewFieldRequiredError("reason", "Planning.ValidationRequests.Fields.reason")
	}
	return nil
}

func (v *DescriptionChange) ExclusivityKey() (string, bool) {
	return "description", true
}

func (v *DescriptionChange) DeadlineOffset() (int, bool) {
	return 6, true
}

func (v *DescriptionChange) DefaultOutcome() (Outcome, bool) {
	return Outcome{}, false
}

func (v *DescriptionChange) CarriesCounter() bool {
	return false
}

func (v *DescriptionChange) ApplyCloseEffect(rec *caserecord.CaseRecord, o Outcome, at time.Time) error {
	if o.Approved() {
		rec.ApplyDescription(v.ProposedDescription)
	}
	return nil
}

func (v *DescriptionChange) ApplyHold(rec *caserecord.CaseRecord)   {}
func (v *DescriptionChange) ReleaseHold(rec *caserecord.CaseRecord) {}
