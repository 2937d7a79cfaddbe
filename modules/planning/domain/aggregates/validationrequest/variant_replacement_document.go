package validationrequest

import (
	"time"

	"github.com/google/uuid"
	"github.com/unboxed/bops-go/modules/planning/domain/aggregates/caserecord"
	"github.com/unboxed/bops-go/pkg/serrors"
)

// ReplacementDocument asks for a fresh copy of a document that is illegible or
// otherwise unusable. Exclusivity is per replaced document. On approval the
// old document is archived and the supplied ones attached in its place.
type ReplacementDocument struct {
	OldDocumentID   uuid.UUID `json:"old_document_id"`
	OldDocumentName string    `json:"old_document_name,omitempty"`
	Reason          string    `json:"reason"`
}

func (v *ReplacementDocument) Kind() Kind {
	return KindReplacementDocument
}

func (v *ReplacementDocument) ValidateCreate() error {
	if v.OldDocumentID == uuid.Nil {
		return serrors.NewFieldRequiredError("old_document_id", "Planning.ValidationRequests.Fields.old_document_id")
	}
	if isBlank(v.Reason) {
		return serrors.NewFieldRequiredError("reason", "Planning.ValidationRequests.Fields.reason")
	}
	return nil
}

func (v *ReplacementDocument) ValidateClose(o Outcome) error {
	if o.Approved() && len(o.Documents) == 0 {
		return serrors.NewFieldRequiredError("documents", "Planning.ValidationRequests.Fields.documents")
	}
	if !o.Approved() && isBlank(o.Reason) {
		return serrors.NewFieldRequiredError("reason", "Planning.ValidationRequests.Fields.reason")
	}
	return nil
}

func (v *ReplacementDocument) ExclusivityKey() (string, bool) {
	return v.OldDocumentID.String(), true
}

func (v *ReplacementDocument) DeadlineOffset() (int, bool) {
	return 0, false
}

func (v *ReplacementDocument) DefaultOutcome() (Outcome, bool) {
	return Outcome{}, false
}

func (v *ReplacementDocument) CarriesCounter() bool {
	return true
}

func (v *ReplacementDocument) ApplyCloseEffect(rec *caserecord.CaseRecord, o Outcome, at time.Time) error {
	if !o.Approved() {
		return nil
	}
	rec.ArchiveDocument(v.OldDocumentID, at)
	for _, doc := range o.Documents {
		rec.AttachDocument(doc)
	}
	return nil
}

func (v *ReplacementDocument) ApplyHold(rec *caserecord.CaseRecord)   {}
func (v *ReplacementDocument) ReleaseHold(rec *caserecord.CaseRecord) {}
