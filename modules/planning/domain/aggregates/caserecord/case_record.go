package caserecord

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusNotStarted            Status = "not_started"
	StatusInvalidated           Status = "invalidated"
	StatusInAssessment          Status = "in_assessment"
	StatusAwaitingDetermination Status = "awaiting_determination"
	StatusDetermined            Status = "determined"
	StatusWithdrawn             Status = "withdrawn"
	StatusReturned              Status = "returned"
)

// PostValidation reports whether the application has passed validation: from
// assessment onwards new validation requests are restricted to boundary and
// description changes.
func (s Status) PostValidation() bool {
	switch s {
	case StatusInAssessment, StatusAwaitingDetermination, StatusDetermined:
		return true
	}
	return false
}

// Document is a file attached to the application. Archived documents stay on
// the record for the audit trail but are no longer current.
type Document struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Tag        string     `json:"tag,omitempty"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`
}

// Condition is a pre-commencement condition attached to a proposed decision.
type Condition struct {
	Ref      string `json:"ref"`
	Text     string `json:"text"`
	Approved *bool  `json:"approved,omitempty"`
}

// Term is a single heads-of-terms item on a planning obligation.
type Term struct {
	Ref      string `json:"ref"`
	Text     string `json:"text"`
	Approved *bool  `json:"approved,omitempty"`
}

type LandOwner struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	NoticeGiven bool   `json:"notice_given"`
}

// CertificateAttrs is the officer/applicant input an ownership certificate is
// built from.
type CertificateAttrs struct {
	CertificateType string      `json:"certificate_type"`
	LandOwners      []LandOwner `json:"land_owners,omitempty"`
}

type OwnershipCertificate struct {
	CertificateType string      `json:"certificate_type"`
	LandOwners      []LandOwner `json:"land_owners,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
}

// CaseRecord is the planning application aggregate. Validation requests
// mutate it only through the narrow surface below, and only when a request
// closes with an approving outcome.
type CaseRecord struct {
	id          uuid.UUID
	reference   string
	description string
	boundary    json.RawMessage
	expiryDate  *time.Time
	status      Status

	// validFee / validBoundary are tri-state: nil means undetermined, false
	// means an open validation request has flagged them invalid.
	validFee      *bool
	validBoundary *bool

	documents   []Document
	conditions  []Condition
	terms       []Term
	certificate *OwnershipCertificate

	responses []string

	createdAt time.Time
	updatedAt time.Time
}

func New(reference, description string) *CaseRecord {
	return &CaseRecord{
		reference:   strings.TrimSpace(reference),
		description: strings.TrimSpace(description),
		status:      StatusNotStarted,
	}
}

func Hydrate(
	id uuid.UUID,
	reference string,
	description string,
	boundary json.RawMessage,
	expiryDate *time.Time,
	status Status,
	validFee *bool,
	validBoundary *bool,
	documents []Document,
	conditions []Condition,
	terms []Term,
	certificate *OwnershipCertificate,
	responses []string,
	createdAt time.Time,
	updatedAt time.Time,
) *CaseRecord {
	return &CaseRecord{
		id:            id,
		reference:     reference,
		description:   description,
		boundary:      boundary,
		expiryDate:    expiryDate,
		status:        status,
		validFee:      validFee,
		validBoundary: validBoundary,
		documents:     documents,
		conditions:    conditions,
		terms:         terms,
		certificate:   certificate,
		responses:     responses,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

func (c *CaseRecord) ID() uuid.UUID                        { return c.id }
func (c *CaseRecord) Reference() string                    { return c.reference }
func (c *CaseRecord) Description() string                  { return c.description }
func (c *CaseRecord) Boundary() json.RawMessage            { return c.boundary }
func (c *CaseRecord) ExpiryDate() *time.Time               { return c.expiryDate }
func (c *CaseRecord) Status() Status                       { return c.status }
func (c *CaseRecord) ValidFee() *bool                      { return c.validFee }
func (c *CaseRecord) ValidBoundary() *bool                 { return c.validBoundary }
func (c *CaseRecord) Documents() []Document                { return c.documents }
func (c *CaseRecord) Conditions() []Condition              { return c.conditions }
func (c *CaseRecord) Terms() []Term                        { return c.terms }
func (c *CaseRecord) Certificate() *OwnershipCertificate   { return c.certificate }
func (c *CaseRecord) Responses() []string                  { return c.responses }
func (c *CaseRecord) CreatedAt() time.Time                 { return c.createdAt }
func (c *CaseRecord) UpdatedAt() time.Time                 { return c.updatedAt }

func (c *CaseRecord) SetStatus(status Status) Status {
	previous := c.status
	c.status = status
	return previous
}

func (c *CaseRecord) ApplyDescription(text string) {
	c.description = strings.TrimSpace(text)
}

func (c *CaseRecord) ApplyBoundary(geometry json.RawMessage) {
	c.boundary = geometry
	valid := true
	c.validBoundary = &valid
}

func (c *CaseRecord) ApplyExpiryDate(date time.Time) {
	d := date
	c.expiryDate = &d
}

func (c *CaseRecord) MarkFeeInvalid() {
	invalid := false
	c.validFee = &invalid
}

func (c *CaseRecord) ClearFeeInvalid() {
	valid := true
	c.validFee = &valid
}

func (c *CaseRecord) ResetFeeValidity() {
	c.validFee = nil
}

func (c *CaseRecord) MarkBoundaryInvalid() {
	invalid := false
	c.validBoundary = &invalid
}

func (c *CaseRecord) ResetBoundaryValidity() {
	c.validBoundary = nil
}

func (c *CaseRecord) AttachDocument(doc Document) {
	c.documents = append(c.documents, doc)
}

// ArchiveDocument marks the document superseded. Archiving an already
// archived or unknown document is a no-op so close-effects stay idempotent.
func (c *CaseRecord) ArchiveDocument(id uuid.UUID, at time.Time) {
	for i := range c.documents {
		if c.documents[i].ID == id && c.documents[i].ArchivedAt == nil {
			t := at
			c.documents[i].ArchivedAt = &t
			return
		}
	}
}

func (c *CaseRecord) BuildCertificate(attrs CertificateAttrs, at time.Time) {
	c.certificate = &OwnershipCertificate{
		CertificateType: attrs.CertificateType,
		LandOwners:      attrs.LandOwners,
		CreatedAt:       at,
	}
}

func (c *CaseRecord) ApproveCondition(ref string) {
	for i := range c.conditions {
		if c.conditions[i].Ref == ref {
			approved := true
			c.conditions[i].Approved = &approved
			return
		}
	}
	approved := true
	c.conditions = append(c.conditions, Condition{Ref: ref, Approved: &approved})
}

func (c *CaseRecord) ApproveTerm(ref string) {
	c.setTermApproval(ref, true)
}

func (c *CaseRecord) RejectTerm(ref string) {
	c.setTermApproval(ref, false)
}

func (c *CaseRecord) setTermApproval(ref string, approved bool) {
	for i := range c.terms {
		if c.terms[i].Ref == ref {
			c.terms[i].Approved = &approved
			return
		}
	}
	c.terms = append(c.terms, Term{Ref: ref, Approved: &approved})
}

// RecordResponse keeps free-text applicant responses that have no structured
// home on the record.
func (c *CaseRecord) RecordResponse(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	c.responses = append(c.responses, text)
}
