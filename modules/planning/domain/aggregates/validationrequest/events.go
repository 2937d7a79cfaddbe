package validationrequest

import (
	"time"

	"github.com/unboxed/bops-go/modules/planning/domain/entities/auditentry"
)

type CreatedEvent struct {
	Request *ValidationRequest
	Actor   auditentry.Actor
}

type SentEvent struct {
	Request    *ValidationRequest
	Actor      auditentry.Actor
	NotifiedAt time.Time
}

type CancelledEvent struct {
	Request *ValidationRequest
	Actor   auditentry.Actor
	Reason  string
}

type ClosedEvent struct {
	Request    *ValidationRequest
	Actor      auditentry.Actor
	Outcome    Outcome
	AutoClosed bool
}
