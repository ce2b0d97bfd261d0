package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/party-venue-reservation/internal/config"
	"github.com/iliyamo/party-venue-reservation/internal/database"
	"github.com/iliyamo/party-venue-reservation/internal/handler"
	"github.com/iliyamo/party-venue-reservation/internal/jobs"
	"github.com/iliyamo/party-venue-reservation/internal/lock"
	"github.com/iliyamo/party-venue-reservation/internal/logger"
	"github.com/iliyamo/party-venue-reservation/internal/metrics"
	mw "github.com/iliyamo/party-venue-reservation/internal/middleware"
	"github.com/iliyamo/party-venue-reservation/internal/notify"
	"github.com/iliyamo/party-venue-reservation/internal/payment"
	"github.com/iliyamo/party-venue-reservation/internal/queue"
	"github.com/iliyamo/party-venue-reservation/internal/repository"
	"github.com/iliyamo/party-venue-reservation/internal/router"
	"github.com/iliyamo/party-venue-reservation/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	decimal.MarshalJSONWithoutQuotes = true

	db, err := database.Open(database.Options{
		User:         cfg.DBUser,
		Password:     cfg.DBPass,
		Host:         cfg.DBHost,
		Port:         cfg.DBPort,
		Name:         cfg.DBName,
		MaxOpenConns: cfg.DBMaxOpenConns,
	})
	if err != nil {
		logger.Fatal("database connection failed", "error", err)
	}
	defer db.Close()

	if cfg.MigrateOnBoot {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err := database.RunMigrations(ctx, db)
		cancel()
		if err != nil {
			logger.Fatal("migrations failed", "error", err)
		}
	}

	rdb := config.NewRedisClient(cfg.Redis) // nil when Redis is unreachable
	if rdb != nil {
		defer rdb.Close()
	}

	m := metrics.New()
	app := build(cfg, db, rdb, m)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Queue.Enabled {
		consumer := queue.NewConsumer(cfg.Queue.URL, cfg.Queue.EventLogDir, notify.NewMailer(cfg.Mail), app.users)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("event consumer stopped", "error", err)
			}
		}()
	}

	app.scheduler.Start()

	addr := ":" + cfg.Port
	go func() {
		slog.Info("listening", "addr", addr, "env", cfg.Env)
		if err := app.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", "error", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.echo.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown failed", "error", err)
	}
	if err := app.scheduler.Shutdown(); err != nil {
		slog.Error("scheduler shutdown failed", "error", err)
	}
}

type application struct {
	echo      *echo.Echo
	scheduler *jobs.Scheduler
	users     *repository.UserRepo
}

// build wires repositories, workflows, handlers and routes.
func build(cfg config.Config, db *sql.DB, rdb *redis.Client, m *metrics.Metrics) application {
	// repositories
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	audit := repository.NewAuditRepo(db)
	reservationRepo := repository.NewReservationRepo(db)
	quotationRepo := repository.NewQuotationRepo(db)
	paymentRepo := repository.NewPaymentRepo(db)
	financeRepo := repository.NewFinanceRepo(db)
	inventoryRepo := repository.NewInventoryRepo(db)
	alertRepo := repository.NewAlertRepo(db)

	catalog := service.Catalog{
		Packages:    repository.NewPackageStore(db),
		Themes:      repository.NewThemeStore(db),
		Decors:      repository.NewDecorStore(db),
		FoodOptions: repository.NewFoodOptionStore(db),
		Extras:      repository.NewExtraStore(db),
		Materials:   repository.NewRawMaterialStore(db),
	}
	adjustments := repository.NewAdjustmentTypeStore(db)
	categories := repository.NewCategoryStore(db)

	// events and side services
	var events service.EventPublisher = queue.Nop{}
	if cfg.Queue.Enabled {
		events = queue.NewPublisher(cfg.Queue.URL).Observe(m.ObservePublish)
	}
	locker := lock.New(rdb, "lock")
	gateway := payment.New(cfg.Payment.StripeSecretKey, cfg.Payment.Currency)

	// workflows
	avail := service.NewAvailability(reservationRepo, catalog)
	reservations := service.NewReservations(reservationRepo, avail, catalog, locker, events)
	quotations := service.NewQuotations(quotationRepo, reservationRepo, avail, catalog, locker, events)
	payments := service.NewPayments(paymentRepo, reservationRepo, financeRepo, avail, catalog, gateway, locker, events,
		service.PaymentsConfig{Hold: time.Duration(cfg.PreReservationHoldMin) * time.Minute, Currency: cfg.Payment.Currency})
	inventory := service.NewInventory(catalog.Materials, adjustments, inventoryRepo, alertRepo, events)
	finance := service.NewFinance(financeRepo, categories)

	// HTTP
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = mw.HTTPErrorHandler(cfg.IsProduction())

	e.Use(echomw.RequestID())
	e.Use(mw.Metrics(m))
	e.Use(mw.RequestLogger())
	e.Use(mw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowCredentials: true,
	}))
	e.Use(echomw.BodyLimit("1M"))
	e.Use(mw.NewTokenBucket(cfg.RateLimit, rdb, m))

	guards := router.Guards{
		JWTSecret:  cfg.JWTSecret,
		CookieName: cfg.CookieName,
		Cache:      mw.NewRedisCache(cfg.Cache, rdb, m),
		Invalidate: mw.InvalidateCache(cfg.Cache, rdb, m),
		AuthLimit:  mw.NewTokenBucket(cfg.AuthRateLimit, rdb, m),
	}

	router.RegisterRoutes(e, handler.NewHealthHandler(db, rdb), echo.WrapHandler(m.Handler()))

	api := e.Group("/api", mw.Audit(audit))
	router.RegisterAuth(api, handler.NewAuthHandler(cfg, users, tokens), guards)
	router.RegisterUsers(api, handler.NewUserHandler(cfg, users, tokens), guards)
	router.RegisterCatalog(api, router.Catalog{
		Packages:        handler.NewCatalogHandler(catalog.Packages, handler.CheckPackage),
		Themes:          handler.NewCatalogHandler(catalog.Themes, handler.CheckTheme),
		Decors:          handler.NewCatalogHandler(catalog.Decors, handler.CheckDecor),
		FoodOptions:     handler.NewCatalogHandler(catalog.FoodOptions, handler.CheckFoodOption),
		Extras:          handler.NewCatalogHandler(catalog.Extras, handler.CheckExtra),
		AdjustmentTypes: handler.NewCatalogHandler(adjustments, handler.CheckAdjustmentType),
		Categories:      handler.NewCatalogHandler(categories, service.ValidateCategory),
		Materials: handler.NewCatalogHandler(catalog.Materials, nil).
			WithWriters(inventory.CreateMaterial, inventory.UpdateMaterial),
	}, guards)

	paymentHandler := handler.NewPaymentHandler(payments)
	router.RegisterReservations(api, handler.NewReservationHandler(reservations, avail), paymentHandler, guards)
	router.RegisterQuotations(api, handler.NewQuotationHandler(quotations, avail), guards)
	router.RegisterPayments(api, paymentHandler, guards)
	router.RegisterInventory(api, handler.NewInventoryHandler(inventory), guards)
	router.RegisterFinance(api, handler.NewFinanceHandler(finance), guards)
	router.RegisterAudit(api, handler.NewAuditHandler(audit), guards)

	// background sweeps
	sched, err := jobs.New(m)
	if err != nil {
		logger.Fatal("scheduler init failed", "error", err)
	}
	if err := jobs.Register(sched, jobs.Intervals{}, jobs.Sweeps{
		Quotations: quotations,
		Holds:      payments,
		Inventory:  inventory,
		Sessions:   tokens,
	}); err != nil {
		logger.Fatal("scheduler registration failed", "error", err)
	}

	return application{echo: e, scheduler: sched, users: users}
}
