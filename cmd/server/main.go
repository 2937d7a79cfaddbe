package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"runtime/debug"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/unboxed/bops-go/modules"
	planningservices "github.com/unboxed/bops-go/modules/planning/services"
	"github.com/unboxed/bops-go/pkg/application"
	"github.com/unboxed/bops-go/pkg/composables"
	"github.com/unboxed/bops-go/pkg/configuration"
	"github.com/unboxed/bops-go/pkg/eventbus"
	"github.com/unboxed/bops-go/pkg/metrics"
	"github.com/unboxed/bops-go/pkg/middleware"
	"github.com/unboxed/bops-go/pkg/server"
	"github.com/unboxed/bops-go/pkg/sweep"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		panic(err)
	}

	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	if err := modules.Load(app, modules.BuiltInModules...); err != nil {
		log.Fatalf("failed to load modules: %v", err)
	}

	if err := app.Migrations().Apply(context.Background()); err != nil {
		log.Fatalf("failed to apply migrations: %v", err)
	}

	startSweepBackground(conf, pool, logger, app)

	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path))
	}

	app.RegisterMiddleware(
		middleware.WithLogger(logger),
		middleware.ProvidePool(pool),
		middleware.RequestParams(),
	)

	serverInstance := server.NewHTTPServer(
		app,
		http.NotFoundHandler(),
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		}),
	)
	log.Printf("Listening on: %s\n", conf.SocketAddress)
	if err := serverInstance.Start(conf.SocketAddress); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

// startSweepBackground runs the auto-close sweep alongside the server. With
// single-active enabled only one instance in a deployment holds the loop.
func startSweepBackground(
	conf *configuration.Configuration,
	pool *pgxpool.Pool,
	logger *logrus.Logger,
	app application.Application,
) {
	if !conf.Sweep.Enabled {
		return
	}

	requestService := app.Service(planningservices.ValidationRequestService{}).(*planningservices.ValidationRequestService)
	sweeper, err := sweep.New(pool, planningservices.NewAutoCloseHandler(requestService), sweep.Options{
		PollInterval: conf.Sweep.PollInterval,
		BatchSize:    conf.Sweep.BatchSize,
		SingleActive: conf.Sweep.SingleActive,
		Logger:       logger.WithField("component", "sweep"),
	})
	if err != nil {
		log.Fatalf("failed to configure sweep: %v", err)
	}

	go func() {
		ctx := composables.WithPool(context.Background(), pool)
		if err := sweeper.Run(ctx); err != nil && ctx.Err() == nil {
			logger.WithError(err).Error("sweep stopped")
		}
	}()
}
