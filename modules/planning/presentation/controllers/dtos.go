package controllers

import (
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/unboxed/bops-go/modules/planning/domain/aggregates/caserecord"
	"github.com/unboxed/bops-go/modules/planning/domain/aggregates/validationrequest"
	"github.com/unboxed/bops-go/modules/planning/domain/entities/auditentry"
	"github.com/unboxed/bops-go/pkg/constants"
	"github.com/unboxed/bops-go/pkg/serrors"
)

// ActorDTO attributes a mutation. There is no ambient current user; every
// call names who is acting.
type ActorDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name" validate:"required"`
	Role string    `json:"role" validate:"required,oneof=officer applicant system"`
}

func (d ActorDTO) ToActor() auditentry.Actor {
	return auditentry.Actor{ID: d.ID, Name: strings.TrimSpace(d.Name), Role: d.Role}
}

type CreateCaseRecordDTO struct {
	Reference   string `json:"reference" validate:"required"`
	Description string `json:"description" validate:"required"`
}

func (d *CreateCaseRecordDTO) Ok() (map[string]string, bool) {
	return validateDTO(d)
}

type SetCaseStatusDTO struct {
	Status string   `json:"status" validate:"required,oneof=not_started invalidated in_assessment awaiting_determination determined withdrawn returned"`
	Actor  ActorDTO `json:"actor"`
}

func (d *SetCaseStatusDTO) Ok() (map[string]string, bool) {
	return validateDTO(d)
}

type CreateValidationRequestDTO struct {
	Kind    string          `json:"kind" validate:"required"`
	Payload json.RawMessage `json:"payload" validate:"required"`
	Actor   ActorDTO        `json:"actor"`
}

func (d *CreateValidationRequestDTO) Ok() (map[string]string, bool) {
	return validateDTO(d)
}

type SendValidationRequestDTO struct {
	Actor ActorDTO `json:"actor"`
}

func (d *SendValidationRequestDTO) Ok() (map[string]string, bool) {
	return validateDTO(d)
}

type CancelValidationRequestDTO struct {
	Reason string   `json:"reason" validate:"required"`
	Actor  ActorDTO `json:"actor"`
}

func (d *CancelValidationRequestDTO) Ok() (map[string]string, bool) {
	return validateDTO(d)
}

type CloseValidationRequestDTO struct {
	Decision    string                       `json:"decision" validate:"required,oneof=approved rejected"`
	Reason      string                       `json:"reason"`
	Response    string                       `json:"response"`
	Documents   []caserecord.Document        `json:"documents"`
	Certificate *caserecord.CertificateAttrs `json:"certificate"`
	Actor       ActorDTO                     `json:"actor"`
}

func (d *CloseValidationRequestDTO) Ok() (map[string]string, bool) {
	return validateDTO(d)
}

func (d *CloseValidationRequestDTO) ToOutcome() validationrequest.Outcome {
	return validationrequest.Outcome{
		Decision:    validationrequest.Decision(d.Decision),
		Reason:      strings.TrimSpace(d.Reason),
		Response:    strings.TrimSpace(d.Response),
		Documents:   d.Documents,
		Certificate: d.Certificate,
	}
}

func validateDTO(d any) (map[string]string, bool) {
	err := constants.Validate.Struct(d)
	if err == nil {
		return map[string]string{}, true
	}

	out := make(serrors.ValidationErrors)
	for _, fieldErr := range err.(validator.ValidationErrors) {
		out[fieldErr.Field()] = serrors.NewFieldRequiredError(fieldErr.Field(), "Planning.Fields."+fieldErr.Field())
	}
	return out.Messages(), false
}
