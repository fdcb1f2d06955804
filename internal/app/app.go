// Package app assembles the server: store, caches, broker, services and
// HTTP routes, and runs the background workers next to the HTTP server.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/winery-visit-booking/internal/config"
	"github.com/iliyamo/winery-visit-booking/internal/database"
	"github.com/iliyamo/winery-visit-booking/internal/handler"
	"github.com/iliyamo/winery-visit-booking/internal/metrics"
	"github.com/iliyamo/winery-visit-booking/internal/middleware"
	"github.com/iliyamo/winery-visit-booking/internal/queue"
	"github.com/iliyamo/winery-visit-booking/internal/realtime"
	"github.com/iliyamo/winery-visit-booking/internal/repository"
	"github.com/iliyamo/winery-visit-booking/internal/router"
	"github.com/iliyamo/winery-visit-booking/internal/service"
)

// outboxSize bounds the confirmations waiting for the broker.
const outboxSize = 512

// App is a fully wired server.
type App struct {
	Cfg         config.Config
	Log         *zerolog.Logger
	DB          *sql.DB
	Redis       *redis.Client // nil without Redis
	Hub         *realtime.Hub
	Publisher   *queue.Publisher     // nil without RabbitMQ
	Outbox      *queue.Outbox        // nil without RabbitMQ
	Provisioner *service.Provisioner // nil in demo mode
	Echo        *echo.Echo
}

// New opens the store and wires everything.  rdb may be nil.  In demo
// mode the store is a seeded in-memory SQLite database, the broker is not
// used and every write route answers 503.
func New(ctx context.Context, cfg config.Config, log *zerolog.Logger, rdb *redis.Client) (*App, error) {
	metrics.Register()

	db, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	a := &App{Cfg: cfg, Log: log, DB: db, Redis: rdb, Hub: realtime.NewHub(log)}

	users := repository.NewUserRepo(db)
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		created, err := users.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.BcryptCost)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("bootstrap admin: %w", err)
		}
		if created {
			log.Info().Str("email", cfg.AdminEmail).Msg("bootstrap admin created")
		}
	}

	var confirmations service.ConfirmationPublisher
	if cfg.RabbitURL != "" && !cfg.DemoMode {
		a.Publisher = queue.NewPublisher(cfg.RabbitURL, log)
		a.Outbox = queue.NewOutbox(a.Publisher, outboxSize, log)
		a.Hub.SetForwarder(a.Publisher)
		confirmations = a.Outbox
	}

	loc := cfg.Booking.Location
	slots := repository.NewSlotRepo(db)
	visits := repository.NewReservationRepo(db)
	templates := cfg.Booking.Schedule.DefaultSlots
	if !cfg.DemoMode {
		a.Provisioner = service.NewProvisioner(db, slots, repository.NewProvisionRepo(db), templates, rdb, a.Hub, loc, log)
	}
	availability := service.NewAvailabilityService(slots, a.Provisioner, cfg.Booking.HorizonDays, loc, log)
	booking := service.NewBookingService(db, slots, visits, cfg.Booking.Schedule, a.Hub, confirmations, log)
	adminSvc := service.NewAdminService(slots, visits, templates, a.Hub, log)
	stats := service.NewStatsService(slots, visits)

	authH := handler.NewAuthHandler(cfg, users, repository.NewTokenRepo(db), a.Hub)
	adminH := &handler.AdminHandler{Admin: adminSvc, Stats: stats, Availability: availability, Slots: slots}
	rt := handler.NewRealtimeHandler(a.Hub, adminH, cfg.AllowedOrigins)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: origins}))

	demo := middleware.DemoGuard(cfg.DemoMode)
	router.RegisterRoutes(e, db, cfg.DemoMode)
	router.RegisterAuth(e, authH, &handler.GateHandler{Admins: users}, cfg.JWTSecret)
	router.RegisterPublic(e,
		&handler.AvailabilityHandler{Availability: availability},
		&handler.BookingHandler{Booking: booking, Schedule: cfg.Booking.Schedule},
		rt,
		middleware.NewRedisCache(cfg.Cache, rdb),
		middleware.NewTokenBucket(cfg.RateLimit, rdb, log),
		demo,
		cfg.JWTSecret,
	)
	router.RegisterAdmin(e, adminH, authH, rt, users, demo, cfg.JWTSecret, log)
	a.Echo = e
	return a, nil
}

func openStore(ctx context.Context, cfg config.Config, log *zerolog.Logger) (*sql.DB, error) {
	var (
		db      *sql.DB
		dialect database.Dialect
		err     error
	)
	switch {
	case cfg.DemoMode:
		log.Warn().Msg("demo mode: in-memory store with sample data, writes disabled")
		db, err = database.OpenSQLite(":memory:")
		dialect = database.SQLite
	case cfg.DBDriver == config.DriverSQLite:
		db, err = database.OpenSQLite(cfg.DBPath)
		dialect = database.SQLite
	default:
		db, err = database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		dialect = database.MySQL
	}
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db, dialect); err != nil {
		db.Close()
		return nil, err
	}
	if cfg.DemoMode {
		if err := database.SeedDemo(ctx, db, time.Now().In(cfg.Booking.Location)); err != nil {
			db.Close()
			return nil, fmt.Errorf("seed demo data: %w", err)
		}
	}
	return db, nil
}

// Run serves HTTP on cfg.Port and runs the background workers until ctx
// ends, then shuts the server down gracefully.
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	a.startWorkers(ctx, &wg)

	srv := &http.Server{
		Addr:              ":" + a.Cfg.Port,
		Handler:           a.Echo,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		a.Log.Info().Str("addr", srv.Addr).Bool("demo", a.Cfg.DemoMode).Msg("listening")
		errc <- srv.ListenAndServe()
	}()

	var err error
	select {
	case <-ctx.Done():
	case err = <-errc:
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		a.Log.Error().Err(serr).Msg("shutdown")
	}
	wg.Wait()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) startWorkers(ctx context.Context, wg *sync.WaitGroup) {
	spawn := func(name string, fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
			a.Log.Debug().Str("worker", name).Msg("worker stopped")
		}()
	}

	if a.Publisher != nil {
		spawn("change-forwarder", func() { a.Hub.RunForwarder(ctx) })
		spawn("confirmation-outbox", func() { a.Outbox.Run(ctx) })
		spawn("reservation-consumer", func() {
			_ = queue.StartReservationConsumer(ctx, a.Cfg.RabbitURL, a.Cfg.LogDir, a.Log)
		})
		spawn("change-bridge", func() {
			_ = queue.StartChangeBridge(ctx, a.Cfg.RabbitURL, a.Hub, a.Log)
		})
	}
	if a.Redis != nil && a.Cfg.Cache.Enabled {
		sub := a.Hub.Subscribe(realtime.TableSlots, realtime.TableVisits)
		spawn("cache-purge", func() {
			middleware.PurgeOnChange(ctx, a.Redis, a.Cfg.Cache.Prefix, sub, a.Log)
		})
	}
	if a.Provisioner != nil {
		spawn("provisioner", func() {
			if n, err := a.Provisioner.EnsureFutureAvailability(ctx, a.Cfg.Booking.HorizonDays); err != nil {
				a.Log.Warn().Err(err).Msg("initial provisioning failed")
			} else if n > 0 {
				a.Log.Info().Int("slots", n).Msg("provisioned future availability")
			}
		})
	}
}

// Close releases the store, the broker connection and Redis.
func (a *App) Close() error {
	var errs []error
	if a.Publisher != nil {
		errs = append(errs, a.Publisher.Close())
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	errs = append(errs, a.DB.Close())
	return errors.Join(errs...)
}
