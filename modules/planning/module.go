package planning

import (
	"context"
	"embed"

	"github.com/unboxed/bops-go/modules/planning/domain/aggregates/caserecord"
	"github.com/unboxed/bops-go/modules/planning/domain/entities/auditentry"
	"github.com/unboxed/bops-go/modules/planning/infrastructure/persistence"
	"github.com/unboxed/bops-go/modules/planning/presentation/controllers"
	"github.com/unboxed/bops-go/modules/planning/services"
	"github.com/unboxed/bops-go/pkg/application"
	"github.com/unboxed/bops-go/pkg/bdays"
	"github.com/unboxed/bops-go/pkg/composables"
	"github.com/unboxed/bops-go/pkg/configuration"
)

//go:embed infrastructure/persistence/schema/planning-schema.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema(&migrationFiles)

	conf := configuration.Use()
	holidays, err := bdays.ParseHolidays(conf.BankHolidays)
	if err != nil {
		return err
	}

	requests := persistence.NewValidationRequestRepository()
	cases := persistence.NewCaseRecordRepository()
	audit := persistence.NewAuditRepository()

	requestService := services.NewValidationRequestService(services.ValidationRequestServiceParams{
		Requests:  requests,
		Cases:     cases,
		Audit:     audit,
		Calendar:  bdays.EnglandAndWales(holidays),
		Publisher: app.EventPublisher(),
		Notifier:  &services.LogNotifier{Logger: app.Logger()},
	})
	caseService := services.NewCaseRecordService(cases, audit, app.EventPublisher())

	app.RegisterServices(
		requestService,
		caseService,
	)

	// Requests raised before invalidation queue up; when the status flips
	// they go out with the invalidation notice.
	app.EventPublisher().Subscribe(func(event *caserecord.StatusChangedEvent) {
		ctx := composables.WithPool(context.Background(), app.DB())
		if err := requestService.DispatchPending(ctx, event.CaseRecordID, event.Next, auditentry.System()); err != nil {
			app.Logger().WithError(err).Error("planning: failed to dispatch pending validation requests")
		}
	})

	app.RegisterControllers(
		controllers.NewValidationRequestAPIController(app),
	)

	return nil
}

func (m *Module) Name() string {
	return "planning"
}
