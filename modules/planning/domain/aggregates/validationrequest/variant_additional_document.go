package validationrequest

import (
	"time"

	"github.com/unboxed/bops-go/modules/planning/domain/aggregates/caserecord"
	"github.com/unboxed/bops-go/pkg/serrors"
)

// AdditionalDocument asks the applicant to supply documents that were missing
// from the submission. Several of these can be open at once, so the kind sits
// outside the family-exclusivity rule, and it never carries the update
// counter.
type AdditionalDocument struct {
	DocumentRequestType string `json:"document_request_type"`
	Reason              string `json:"reason,omitempty"`
}

func (v *AdditionalDocument) Kind() Kind {
	return KindAdditionalDocument
}

func (v *AdditionalDocument) ValidateCreate() error {
	if isBlank(v.DocumentRequestType) {
		return serrors.NewFieldRequiredError("document_request_type", "Planning.ValidationRequests.Fields.document_request_type")
	}
	return nil
}

func (v *AdditionalDocument) ValidateClose(o Outcome) error {
	if o.Approved() && len(o.Documents) == 0 {
		return serrors.NewFieldRequiredError("documents", "Planning.ValidationRequests.Fields.documents")
	}
	if !o.Approved() && isBlank(o.Reason) {
		return serrors.NewFieldRequiredError("reason", "Planning.ValidationRequests.Fields.reason")
	}
	return nil
}

func (v *AdditionalDocument) ExclusivityKey() (string, bool) {
	return "", false
}

func (v *AdditionalDocument) DeadlineOffset() (int, bool) {
	return 0, false
}

func (v *AdditionalDocument) DefaultOutcome() (Outcome, bool) {
	return Outcome{}, false
}

func (v *AdditionalDocument) CarriesCounter() bool {
	return false
}

func (v *AdditionalDocument) ApplyCloseEffect(rec *caserecord.CaseRecord, o Outcome, at time.Time) error {
	if !o.Approved() {
		return nil
	}
	for _, doc := range o.Documents {
		doc.Tag = v.DocumentRequestType
		rec.AttachDocument(doc)
	}
	return nil
}

func (v *AdditionalDocument) ApplyHold(rec *caserecord.CaseRecord)   {}
func (v *AdditionalDocument) ReleaseHold(rec *caserecord.CaseRecord) {}
