package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxstd "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/quickshow/quickshow/internal/auth"
	"github.com/quickshow/quickshow/internal/catalog"
	"github.com/quickshow/quickshow/internal/domain"
	"github.com/quickshow/quickshow/internal/events"
	"github.com/quickshow/quickshow/internal/mailer"
	"github.com/quickshow/quickshow/internal/payment"
	"github.com/quickshow/quickshow/internal/repository"
	"github.com/quickshow/quickshow/internal/reservation"
	appvalidator "github.com/quickshow/quickshow/internal/validator"
	"github.com/quickshow/quickshow/internal/vcs"
	"github.com/quickshow/quickshow/migrations"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/riandyrn/otelchi"
	"github.com/robfig/cron/v3"
	"github.com/stripe/stripe-go/v82"
)

var (
	version = vcs.Version()
)

type Application struct {
	config    Config
	logger    *slog.Logger
	db        *pgxpool.Pool
	redis     redis.UniversalClient
	validator *validator.Validate
	mailer    mailer.Mailer
	wg        sync.WaitGroup

	movieRepo   domain.MovieRepository
	showRepo    domain.ShowRepository
	bookingRepo domain.BookingRepository

	catalog         domain.CatalogGateway
	paymentProvider domain.PaymentProvider
	publisher       domain.EventPublisher
	verifier        auth.Verifier

	engine *reservation.Engine
}

type Config struct {
	Port             int
	Env              string
	DB               DBConfig
	Redis            RedisConfig
	SMTP             SMTPConfig
	Stripe           StripeConfig
	Kafka            KafkaConfig
	Auth             AuthConfig
	TMDB             TMDBConfig
	HoldWindow       time.Duration
	SweepInterval    time.Duration
	OtelCollectorURL string
}

type DBConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleTime  time.Duration
	Automigrate  bool
}

type RedisConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	MaxIdleTime  time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type AuthConfig struct {
	JWTSecret string
}

type TMDBConfig struct {
	BaseURL string
	APIKey  string
}

// Option overrides a collaborator after default wiring, used by tests and by
// Run to swap providers in.
type Option func(*Application)

func WithCatalogGateway(gateway domain.CatalogGateway) Option {
	return func(app *Application) {
		app.catalog = gateway
	}
}

func WithPaymentProvider(provider domain.PaymentProvider) Option {
	return func(app *Application) {
		app.paymentProvider = provider
	}
}

func WithEventPublisher(publisher domain.EventPublisher) Option {
	return func(app *Application) {
		app.publisher = publisher
	}
}

func WithMailer(m mailer.Mailer) Option {
	return func(app *Application) {
		app.mailer = m
	}
}

func WithVerifier(v auth.Verifier) Option {
	return func(app *Application) {
		app.verifier = v
	}
}

// New assembles an Application on top of already-initialized infrastructure.
func New(cfg Config, logger *slog.Logger, db *pgxpool.Pool, redisClient redis.UniversalClient, opts ...Option) *Application {
	movieRepo := repository.NewPostgresMovieRepository(db)
	showRepo := repository.NewPostgresShowRepository(db)
	bookingRepo := repository.NewPostgresBookingRepository(db)

	app := &Application{
		config:      cfg,
		logger:      logger,
		db:          db,
		redis:       redisClient,
		validator:   appvalidator.NewValidator(),
		movieRepo:   movieRepo,
		showRepo:    showRepo,
		bookingRepo: bookingRepo,
		verifier:    auth.NewJWTVerifier(cfg.Auth.JWTSecret),
	}

	tmdb := catalog.NewTMDBGateway(cfg.TMDB.BaseURL, cfg.TMDB.APIKey)
	app.catalog = catalog.NewCachedGateway(tmdb, redisClient, logger)

	app.paymentProvider = payment.NewStripePaymentProvider(cfg.Stripe.SuccessURL, cfg.Stripe.CancelURL)

	engineOpts := []reservation.Option{}
	if cfg.HoldWindow > 0 {
		engineOpts = append(engineOpts, reservation.WithHoldWindow(cfg.HoldWindow))
	}
	app.engine = reservation.NewEngine(showRepo, bookingRepo, logger, engineOpts...)

	for _, opt := range opts {
		opt(app)
	}

	return app
}

func Run() error {
	// A missing .env is fine; flags fall back to their literal defaults.
	_ = godotenv.Load()

	var cfg Config

	flag.IntVar(&cfg.Port, "port", 3000, "server port")
	flag.StringVar(&cfg.Env, "env", "dev", "Environment (dev|staging|prod)")

	flag.StringVar(&cfg.DB.DSN, "db-dsn", os.Getenv("DB_DSN"), "PostgreSQL DSN")
	flag.IntVar(&cfg.DB.MaxOpenConns, "db-max-open-conns", 25, "PostgreSQL max open connections")
	flag.DurationVar(&cfg.DB.MaxIdleTime, "db-max-idle-time", 15*time.Minute, "PostgreSQL max idle time for connections")
	flag.BoolVar(&cfg.DB.Automigrate, "db-automigrate", true, "Run pending database migrations on startup")

	flag.StringVar(&cfg.Redis.URL, "redis-url", os.Getenv("REDIS_URL"), "Redis URL")
	flag.IntVar(&cfg.Redis.MaxOpenConns, "redis-max-open-conns", 25, "Redis max open connections")
	flag.IntVar(&cfg.Redis.MaxIdleConns, "redis-max-idle-conns", 10, "Redis max idle connections")
	flag.DurationVar(&cfg.Redis.MaxIdleTime, "redis-max-idle-time", 2*time.Minute, "Redis max idle time for connections")

	flag.StringVar(&cfg.SMTP.Host, "smtp-host", "sandbox.smtp.mailtrap.io", "SMTP host")
	flag.IntVar(&cfg.SMTP.Port, "smtp-port", 2525, "SMTP port")
	flag.StringVar(&cfg.SMTP.Username, "smtp-username", os.Getenv("SMTP_USERNAME"), "SMTP username")
	flag.StringVar(&cfg.SMTP.Password, "smtp-password", os.Getenv("SMTP_PASSWORD"), "SMTP password")
	flag.StringVar(&cfg.SMTP.Sender, "smtp-sender", "QuickShow <no-reply@quickshow.example>", "SMTP sender")

	flag.StringVar(&cfg.Stripe.SecretKey, "stripe-key", os.Getenv("STRIPE_SECRET_KEY"), "Stripe secret key")
	flag.StringVar(&cfg.Stripe.WebhookSecret, "stripe-webhook-secret", os.Getenv("STRIPE_WEBHOOK_SECRET"), "Stripe webhook secret")
	flag.StringVar(&cfg.Stripe.SuccessURL, "stripe-success-url", "https://example.com/loading/my-bookings", "Stripe payment success page")
	flag.StringVar(&cfg.Stripe.CancelURL, "stripe-cancel-url", "https://example.com/my-bookings", "Stripe payment cancel page")

	var kafkaBrokers string
	flag.StringVar(&kafkaBrokers, "kafka-brokers", os.Getenv("KAFKA_BROKERS"), "Kafka broker list (comma separated)")
	flag.StringVar(&cfg.Kafka.Topic, "kafka-topic", "quickshow.events", "Kafka topic for notification events")

	flag.StringVar(&cfg.Auth.JWTSecret, "jwt-secret", os.Getenv("JWT_SECRET"), "HMAC secret for bearer token verification")

	flag.StringVar(&cfg.TMDB.BaseURL, "tmdb-base-url", catalog.DefaultBaseURL, "Movie catalog base URL")
	flag.StringVar(&cfg.TMDB.APIKey, "tmdb-api-key", os.Getenv("TMDB_API_KEY"), "Movie catalog API key")

	flag.DurationVar(&cfg.HoldWindow, "hold-window", reservation.DefaultHoldWindow, "How long pending bookings keep their seats")
	flag.DurationVar(&cfg.SweepInterval, "sweep-interval", time.Minute, "How often stale pending bookings are released")

	flag.StringVar(&cfg.OtelCollectorURL, "otel-collector-url", os.Getenv("OTEL_COLLECTOR_URL"), "OpenTelemetry collector URL")

	displayVersion := flag.Bool("version", false, "Display version and exit")

	flag.Parse()

	if *displayVersion {
		fmt.Printf("Version:\t%s\n", version)
		os.Exit(0)
	}

	stripe.Key = cfg.Stripe.SecretKey

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	db, err := newDatabasePool(cfg)
	if err != nil {
		logger.Error("failed to open database pool", "error", err)
		return err
	}
	defer db.Close()

	if cfg.DB.Automigrate {
		err = runMigrations(cfg.DB.DSN)
		if err != nil {
			logger.Error("failed to run migrations", "error", err)
			return err
		}
	}

	redisClient, err := newRedisClient(cfg)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		return err
	}
	defer redisClient.Close()

	var opts []Option

	if kafkaBrokers != "" {
		cfg.Kafka.Brokers = splitAndTrim(kafkaBrokers)
		publisher := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer publisher.Close()

		opts = append(opts, WithEventPublisher(publisher))
	}

	smtpMailer := mailer.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.Sender)
	opts = append(opts, WithMailer(smtpMailer))

	app := New(cfg, logger, db, redisClient, opts...)

	shutdownTelemetry, err := app.InitTelemetry()
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		return err
	}
	defer shutdownTelemetry(context.Background())

	sweeper := app.startSweeper()
	defer sweeper.Stop()

	return app.serve()
}

// startSweeper schedules the expiry sweep that frees seats of pending
// bookings whose hold window has lapsed.
func (app *Application) startSweeper() *cron.Cron {
	c := cron.New()

	c.AddFunc(fmt.Sprintf("@every %s", app.config.SweepInterval), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		released, err := app.engine.ExpireStalePending(ctx, time.Now())
		if err != nil {
			app.logger.Error("expiry sweep failed", "error", err)
			return
		}

		if released > 0 {
			app.logger.Info("released stale pending bookings", "count", released)
		}
	})

	c.Start()

	return c
}

func newRedisClient(cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Redis.URL,
		MaxIdleConns:    cfg.Redis.MaxIdleConns,
		MaxActiveConns:  cfg.Redis.MaxOpenConns,
		ConnMaxIdleTime: cfg.Redis.MaxIdleTime,
	})

	if err := redisotel.InstrumentTracing(rdb); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := rdb.Ping(ctx).Err()
	if err != nil {
		return nil, err
	}

	return rdb, nil
}

func newDatabasePool(cfg Config) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.DB.DSN)
	if err != nil {
		return nil, err
	}

	config.MaxConnIdleTime = cfg.DB.MaxIdleTime
	config.MaxConns = int32(cfg.DB.MaxOpenConns)
	config.ConnConfig.Tracer = otelpgx.NewTracer()

	db, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = db.Ping(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func runMigrations(dsn string) error {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return err
	}

	config, err := pgx.ParseConfig(dsn)
	if err != nil {
		return err
	}

	db := pgxstd.OpenDB(*config)
	defer db.Close()

	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", source, "pgx", driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}

func (app *Application) Routes() http.Handler {
	r := chi.NewRouter()

	r.NotFound(app.notFoundResponse)

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(otelchi.Middleware(serviceName, otelchi.WithChiRoutes(r)))
	r.Use(app.recoverPanic)
	r.Use(app.authenticate)

	r.Get("/health", app.GetHealth)

	r.Route("/shows", func(r chi.Router) {
		r.Get("/", app.ListUpcomingShows)
		r.With(app.requireAdmin).Get("/now-playing", app.ListNowPlayingMovies)
		r.Get("/{movieId}", app.GetShowsByMovie)
		r.With(app.requireAdmin).Post("/", app.CreateShows)
	})

	r.Route("/bookings", func(r chi.Router) {
		r.Get("/seats/{showId}", app.GetOccupiedSeats)
		r.With(app.requireAuthentication).Post("/", app.CreateBooking)
		r.With(app.requireAuthentication).Get("/me", app.ListMyBookings)
	})

	r.With(app.requireAdmin).Route("/admin", func(r chi.Router) {
		r.Get("/dashboard", app.GetDashboard)
		r.Get("/bookings", app.ListAllBookings)
		r.Get("/shows", app.ListAllShows)
	})

	r.Post("/webhook", app.StripeWebhookHandler)

	return r
}

func (app *Application) serve() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", app.config.Port),
		Handler:      app.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelDebug),
	}

	shutdownError := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		app.logger.Info("shutting down server", "signal", s.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := srv.Shutdown(ctx)
		if err != nil {
			shutdownError <- err
			return
		}

		// Wait for background mail and event goroutines to drain.
		app.wg.Wait()
		shutdownError <- nil
	}()

	app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.Env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdownError
	if err != nil {
		return err
	}

	app.logger.Info("stopped server", "addr", srv.Addr)

	return nil
}
