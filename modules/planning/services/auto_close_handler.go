package services

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AutoCloseHandler adapts the lifecycle service to the sweep runner. Each due
// item is one overdue request; processing it is a single short transaction,
// so one stuck request never wedges the batch.
type AutoCloseHandler struct {
	service *ValidationRequestService
	now     func() time.Time
}

func NewAutoCloseHandler(service *ValidationRequestService) *AutoCloseHandler {
	return &AutoCloseHandler{service: service, now: service.now}
}

func (h *AutoCloseHandler) Name() string {
	return "validation_request_auto_close"
}

func (h *AutoCloseHandler) Due(ctx context.Context, limit int) ([]uuid.UUID, error) {
	return h.service.OverdueRequests(ctx, h.now(), limit)
}

func (h *AutoCloseHandler) Process(ctx context.Context, id uuid.UUID) error {
	return h.service.AutoClose(ctx, id)
}
