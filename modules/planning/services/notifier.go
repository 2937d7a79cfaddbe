package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/unboxed/bops-go/modules/planning/domain/aggregates/validationrequest"
)

// Notifier tells the applicant a request has gone out or been resolved for
// them. Delivery is best-effort: the lifecycle transition has already
// committed by the time the notifier runs.
type Notifier interface {
	RequestSent(ctx context.Context, request *validationrequest.ValidationRequest) error
	RequestAutoClosed(ctx context.Context, request *validationrequest.ValidationRequest) error
}

// LogNotifier stands in when GOV.UK Notify is not configured.
type LogNotifier struct {
	Logger *logrus.Logger
}

func (n *LogNotifier) RequestSent(ctx context.Context, request *validationrequest.ValidationRequest) error {
	n.Logger.WithFields(logrus.Fields{
		"request_id": request.ID(),
		"kind":       request.Kind(),
	}).Info("validation request notification sent")
	return nil
}

func (n *LogNotifier) RequestAutoClosed(ctx context.Context, request *validationrequest.ValidationRequest) error {
	n.Logger.WithFields(logrus.Fields{
		"request_id": request.ID(),
		"kind":       request.Kind(),
	}).Info("validation request auto-close notification sent")
	return nil
}
