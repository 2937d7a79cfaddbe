package validationrequest

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/unboxed/bops-go/modules/planning/domain/aggregates/caserecord"
)

type Kind string

const (
	KindAdditionalDocument       Kind = "additional_document"
	KindDescriptionChange        Kind = "description_change"
	KindFeeChange                Kind = "fee_change"
	KindHeadsOfTerms             Kind = "heads_of_terms"
	KindOwnershipCertificate     Kind = "ownership_certificate"
	KindPreCommencementCondition Kind = "pre_commencement_condition"
	KindRedLineBoundaryChange    Kind = "red_line_boundary_change"
	KindReplacementDocument      Kind = "replacement_document"
	KindTimeExtension            Kind = "time_extension"
	KindOtherChange              Kind = "other_change"
)

// Kinds lists every variant in a stable order.
func Kinds() []Kind {
	return []Kind{
		KindAdditionalDocument,
		KindDescriptionChange,
		KindFeeChange,
		KindHeadsOfTerms,
		KindOwnershipCertificate,
		KindPreCommencementCondition,
		KindRedLineBoundaryChange,
		KindReplacementDocument,
		KindTimeExtension,
		KindOtherChange,
	}
}

// Variant is the capability surface a request kind exposes to the lifecycle
// core. The core never depends on a concrete variant type.
type Variant interface {
	Kind() Kind

	// ValidateCreate gates the create transition on kind-specific required
	// fields.
	ValidateCreate() error

	// ValidateClose gates the close transition, e.g. a rejection always
	// requires a reason.
	ValidateClose(o Outcome) error

	// ExclusivityKey names the family target. Kinds returning false do not
	// participate in the one-open-request-per-target rule.
	ExclusivityKey() (string, bool)

	// DeadlineOffset returns the response deadline in business days from the
	// notification date. Kinds returning false carry no deadline.
	DeadlineOffset() (int, bool)

	// DefaultOutcome is the outcome applied by the scheduled sweep when the
	// deadline passes. Kinds returning false are never auto-closed.
	DefaultOutcome() (Outcome, bool)

	// CarriesCounter reports whether the family participates in the
	// update-counter bookkeeping.
	CarriesCounter() bool

	// ApplyCloseEffect mutates the case record when the request closes. It
	// sees every outcome; most kinds only act on an approving one.
	ApplyCloseEffect(rec *caserecord.CaseRecord, o Outcome, at time.Time) error

	// ApplyHold / ReleaseHold manage validity flags on the case record that
	// are held down while a request of this kind is in flight.
	ApplyHold(rec *caserecord.CaseRecord)
	ReleaseHold(rec *caserecord.CaseRecord)
}

var variantFactories = map[Kind]func() Variant{
	KindAdditionalDocument:       func() Variant { return &AdditionalDocument{} },
	KindDescriptionChange:        func() Variant { return &DescriptionChange{} },
	KindFeeChange:                func() Variant { return &FeeChange{} },
	KindHeadsOfTerms:             func() Variant { return &HeadsOfTerms{} },
	KindOwnershipCertificate:     func() Variant { return &OwnershipCertificate{} },
	KindPreCommencementCondition: func() Variant { return &PreCommencementCondition{} },
	KindRedLineBoundaryChange:    func() Variant { return &RedLineBoundaryChange{} },
	KindReplacementDocument:      func() Variant { return &ReplacementDocument{} },
	KindTimeExtension:            func() Variant { return &TimeExtension{} },
	KindOtherChange:              func() Variant { return &OtherChange{} },
}

func (k Kind) Valid() bool {
	_, ok := variantFactories[k]
	return ok
}

// ParseKind converts external input into a Kind.
func ParseKind(raw string) (Kind, error) {
	k := Kind(strings.TrimSpace(raw))
	if !k.Valid() {
		return "", fmt.Errorf("unknown validation request kind %q", raw)
	}
	return k, nil
}

// DecodeVariant builds a variant of the given kind from its stored payload.
func DecodeVariant(kind Kind, payload []byte) (Variant, error) {
	factory, ok := variantFactories[kind]
	if !ok {
		return nil, fmt.Errorf("unknown validation request kind %q", kind)
	}
	v := factory()
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, v); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", kind, err)
		}
	}
	return v, nil
}

// EncodeVariant serializes a variant payload for storage.
func EncodeVariant(v Variant) ([]byte, error) {
	return json.Marshal(v)
}

// AutoClosableKinds lists the kinds a deadline sweep may close. Which kinds
// auto-close is deliberate product policy carried by each variant's
// DefaultOutcome, not inferred from deadlines.
func AutoClosableKinds() []Kind {
	var out []Kind
	for _, k := range Kinds() {
		if _, ok := variantFactories[k]().DefaultOutcome(); ok {
			out = append(out, k)
		}
	}
	return out
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
