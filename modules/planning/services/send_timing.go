package services

import (
	"github.com/unboxed/bops-go/modules/planning/domain/aggregates/caserecord"
	"github.com/unboxed/bops-go/modules/planning/domain/aggregates/validationrequest"
)

// Send timing is driven by the case status, not the request kind alone.
// Before the case has been looked at, most requests queue up so the applicant
// receives one consolidated invalidation notice; once the case is invalidated
// every request goes out as it is raised. After validation only the two kinds
// that remain meaningful can be raised at all, and they go out straight away.

func creatable(status caserecord.Status, kind validationrequest.Kind) bool {
	switch status {
	case caserecord.StatusWithdrawn, caserecord.StatusReturned:
		return false
	}
	if status.PostValidation() {
		return kind == validationrequest.KindRedLineBoundaryChange ||
			kind == validationrequest.KindDescriptionChange
	}
	return true
}

func sendsImmediately(status caserecord.Status, kind validationrequest.Kind) bool {
	switch {
	case status == caserecord.StatusInvalidated:
		return true
	case status.PostValidation():
		// Requests left pending from before validation stay queued; only
		// the kinds still creatable in this phase go out.
		return kind == validationrequest.KindRedLineBoundaryChange ||
			kind == validationrequest.KindDescriptionChange
	case status == caserecord.StatusNotStarted:
		// These two do not block validation, so there is nothing to batch
		// into an invalidation notice.
		return kind == validationrequest.KindDescriptionChange ||
			kind == validationrequest.KindTimeExtension
	}
	return false
}
