package initialize

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"apnaghar/backend/app/controllers"
	"apnaghar/backend/app/db"
	"apnaghar/backend/app/events"
	jwtutil "apnaghar/backend/app/jwt"
	"apnaghar/backend/app/media"
	"apnaghar/backend/app/middleware"
	"apnaghar/backend/app/repo"
	"apnaghar/backend/app/services"
	"apnaghar/backend/app/session"
	"apnaghar/backend/app/socket"
	"apnaghar/backend/app/views"
	"apnaghar/backend/config"
	"apnaghar/backend/global"
	"apnaghar/backend/router"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

type App struct {
	Cfg      *config.Config
	DB       *gorm.DB
	Redis    *redis.Client
	Router   http.Handler
	Hub      *socket.Hub
	Views    *views.Renderer
	Auth     *services.AuthService
	Listings *services.ListingService

	closers []func() error
}

// Close releases what Build opened, last opened first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// Build wires the application from cfg. On error everything opened so far
// is closed again.
func Build(ctx context.Context, cfg *config.Config) (app *App, err error) {
	SetupLogger(cfg.Log)
	app = &App{Cfg: cfg}
	defer func() {
		if err != nil {
			_ = app.Close()
			app = nil
		}
	}()

	// Database
	gdb, err := db.Connect(db.Config{
		Driver:   cfg.DB.Driver,
		Path:     cfg.DB.Path,
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Pass,
		DBName:   cfg.DB.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	app.DB = gdb
	app.closers = append(app.closers, sqlDB.Close)
	if err := db.Migrate(gdb); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	// Redis is optional: without it sessions stay in memory and events stay
	// in process.
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			// publish and session deadlines come from the caller's context
			ContextTimeoutEnabled: true,
		})
		app.closers = append(app.closers, rdb.Close)
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		app.Redis = rdb
	}

	// Sessions
	signer := &jwtutil.Signer{Secret: []byte(cfg.Session.Secret), Issuer: cfg.Session.Issuer, TTL: cfg.Session.TTL}
	var store session.Store = session.NewMemoryStore()
	if app.Redis != nil {
		store = session.NewRedisStore(app.Redis, "")
	}
	sessions := session.NewManager(store, signer)

	// Media
	mediaStore, err := newMediaStore(cfg.Media)
	if err != nil {
		return nil, err
	}

	// Events
	app.Hub = socket.NewHub()
	publishers := events.Multi{app.Hub}
	if app.Redis != nil {
		publishers = append(publishers, events.NewRedisPublisher(app.Redis, "apnaghar"))
	}

	// Views
	app.Views, err = views.New(cfg.Templates.Dir)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	if cfg.Templates.Watch && cfg.Templates.Dir != "" {
		watchCtx, cancel := context.WithCancel(context.Background())
		app.closers = append(app.closers, func() error { cancel(); return nil })
		if err := app.Views.Watch(watchCtx); err != nil {
			return nil, fmt.Errorf("watch templates: %w", err)
		}
	}

	// Services
	userRepo := repo.NewUserRepository(gdb)
	roomRepo := repo.NewRoomRepository(gdb)
	app.Auth = services.NewAuthService(userRepo, sessions)
	app.Listings = services.NewListingService(roomRepo, mediaStore, publishers)
	app.closers = append(app.closers, func() error { app.Listings.Wait(); return nil })

	// Controllers
	pages := &controllers.Pages{Views: app.Views, Secure: cfg.Session.Secure}
	mw := &middleware.Auth{Sessions: sessions, CookieName: cfg.Session.CookieName, OnUnauthenticated: pages.Unauthenticated}
	handlers := router.Handlers{
		HTTP:     controllers.NewHTTPController(),
		Auth:     controllers.NewAuthController(app.Auth, mw, pages),
		Listings: controllers.NewListingController(app.Listings, pages, cfg.MaxUploadBytes),
		Events:   app.Hub,
	}
	if local, ok := mediaStore.(*media.Local); ok {
		handlers.Uploads = http.FileServer(http.Dir(local.Dir))
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := middleware.NewMetrics(reg)
	handlers.Metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})

	var limiter *middleware.ClientLimiter
	if cfg.RateLimit.RPS > 0 {
		limiter = middleware.NewClientLimiter(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst)
	}

	// Router
	h := router.NewRouter(handlers, mw, limiter)
	// Wrap with metrics and logging middleware
	h = metrics.Handler(h)
	h = middleware.Logging(h)
	app.Router = h

	global.Logger.Info().
		Str("db", cfg.DB.Driver).
		Str("media", cfg.Media.Driver).
		Bool("redis", app.Redis != nil).
		Msg("application built")
	return app, nil
}

func newMediaStore(cfg config.Media) (media.Store, error) {
	switch cfg.Driver {
	case "", "local":
		s, err := media.NewLocal(cfg.LocalDir)
		if err != nil {
			return nil, fmt.Errorf("media: %w", err)
		}
		return s, nil
	case "cloudinary":
		c := cfg.Cloudinary
		s, err := media.NewCloudinary(c.CloudName, c.APIKey, c.APISecret, c.Folder)
		if err != nil {
			return nil, fmt.Errorf("media: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("media: unsupported driver %q", cfg.Driver)
	}
}
