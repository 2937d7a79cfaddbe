package validationrequest

import (
	"github.com/google/uuid"

	"github.com/unboxed/bops-go/modules/planning/domain/aggregates/caserecord"
)

type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// Outcome carries the close-time input. Which fields matter depends on the
// variant: a rejection needs a reason, a fee response needs text, a
// replacement document needs the uploaded document.
type Outcome struct {
	Decision    Decision                     `json:"decision"`
	Reason      string                       `json:"reason,omitempty"`
	Response    string                       `json:"response,omitempty"`
	Documents   []caserecord.Document        `json:"documents,omitempty"`
	Certificate *caserecord.CertificateAttrs `json:"certificate,omitempty"`
}

func (o Outcome) Approved() bool {
	return o.Decision == DecisionApproved
}

// DocumentIDs is a convenience for audit comments.
func (o Outcome) DocumentIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(o.Documents))
	for _, d := range o.Documents {
		ids = append(ids, d.ID)
	}
	return ids
}
