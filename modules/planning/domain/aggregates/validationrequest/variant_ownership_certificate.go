package validationrequest

import (
	"time"

	"github.com/unboxed/bops-go/modules/planning/domain/aggregates/caserecord"
	"github.com/unboxed/bops-go/pkg/serrors"
)

// OwnershipCertificate challenges the certificate of ownership submitted with
// the application. An approving outcome must carry the replacement
// certificate's attributes, which become a new certificate on the record.
type OwnershipCertificate struct {
	Reason string `json:"reason"`
}

func (v *OwnershipCertificate) Kind() Kind {
	return KindOwnershipCertificate
}

func (v *OwnershipCertificate) ValidateCreate() error {
	if isBlank(v.Reason) {
		return serrors.NewFieldRequiredError("reason", "Planning.ValidationRequests.Fields.reason")
	}
	return nil
}

func (v *OwnershipCertificate) ValidateClose(o Outcome) error {
	if o.Approved() {
		if o.Certificate == nil || isBlank(o.Certificate.CertificateType) {
			return serrors.NewFieldRequiredError("certificate", "Planning.ValidationRequests.Fields.certificate")
		}
		return nil
	}
	if isBlank(o.Reason) {
		return serrors.NewFieldRequiredError("reason", "Planning.ValidationRequests.Fields.reason")
	}
	return nil
}

func (v *OwnershipCertificate) ExclusivityKey() (string, bool) {
	return "ownership_certificate", true
}

func (v *OwnershipCertificate) DeadlineOffset() (int, bool) {
	return 0, false
}

func (v *OwnershipCertificate) DefaultOutcome() (Outcome, bool) {
	return Outcome{}, false
}

func (v *OwnershipCertificate) CarriesCounter() bool {
	return true
}

func (v *OwnershipCertificate) ApplyCloseEffect(rec *caserecord.CaseRecord, o Outcome, at time.Time) error {
	if o.Approved() {
		rec.BuildCertificate(*o.Certificate, at)
	}
	return nil
}

func (v *OwnershipCertificate) ApplyHold(rec *caserecord.CaseRecord)   {}
func (v *OwnershipCertificate) ReleaseHold(rec *caserecord.CaseRecord) {}
