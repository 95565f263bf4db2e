package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/permit-to-work/internal"
	"github.com/frahmantamala/permit-to-work/internal/auth"
	authPostgres "github.com/frahmantamala/permit-to-work/internal/auth/postgres"
	"github.com/frahmantamala/permit-to-work/internal/clock"
	"github.com/frahmantamala/permit-to-work/internal/core/events"
	"github.com/frahmantamala/permit-to-work/internal/core/metrics"
	"github.com/frahmantamala/permit-to-work/internal/permit"
	permitPostgres "github.com/frahmantamala/permit-to-work/internal/permit/postgres"
	"github.com/frahmantamala/permit-to-work/internal/timeentry"
	timeentryPostgres "github.com/frahmantamala/permit-to-work/internal/timeentry/postgres"
	"github.com/frahmantamala/permit-to-work/internal/user"
	userPostgres "github.com/frahmantamala/permit-to-work/internal/user/postgres"
	"github.com/frahmantamala/permit-to-work/pkg/logger"
)

// application holds everything the commands share. The sqlx handle and the
// gorm handle wrap the same connection pool.
type application struct {
	Config  *internal.Config
	Logger  *slog.Logger
	DB      *sqlx.DB
	Gorm    *gorm.DB
	Clock   clock.Clock
	Bus     *events.EventBus
	Metrics *metrics.Metrics

	Auth        *auth.Service
	Users       *user.Service
	Permits     *permit.Service
	TimeEntries *timeentry.Service
}

func newApplication(cfg *internal.Config) (*application, error) {
	logger.Configure(cfg.Observability.Logging.Format, cfg.Observability.Logging.Level)
	lg := logger.L()

	loc, err := cfg.App.Location()
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}
	clk := clock.New(loc)

	db, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gdb, err := openGorm(db, cfg.App.Env)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	var m *metrics.Metrics
	if cfg.Observability.Metrics.Enabled {
		m = metrics.New()
	}

	bus := events.NewEventBus(lg)
	permit.NewNotifier(lg).Register(bus)

	bcryptCost := cfg.Security.BCryptCost
	tokens := auth.NewJWTTokenGenerator(
		cfg.Security.JWTAccessSecret,
		cfg.Security.JWTRefreshSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)

	permits := permit.NewService(permit.ServiceDeps{
		Repo:      permitPostgres.NewPermitRepository(gdb),
		Markers:   permitPostgres.NewMarkerRepository(gdb),
		Clock:     clk,
		Publisher: bus,
		Metrics:   m,
		Logger:    lg,
	})

	return &application{
		Config:      cfg,
		Logger:      lg,
		DB:          db,
		Gorm:        gdb,
		Clock:       clk,
		Bus:         bus,
		Metrics:     m,
		Auth:        auth.NewService(authPostgres.NewRepository(gdb), tokens, bcryptCost, lg),
		Users:       user.NewService(userPostgres.NewUserRepository(gdb), bcryptCost, lg),
		Permits:     permits,
		TimeEntries: timeentry.NewService(timeentryPostgres.NewTimeEntryRepository(gdb), permits, clk, lg),
	}, nil
}

// Close waits for in-flight event handlers before dropping the pool.
func (a *application) Close() {
	a.Bus.Wait()
	if err := a.DB.Close(); err != nil {
		a.Logger.Error("database close error", "error", err)
	}
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

func openGorm(db *sqlx.DB, env string) (*gorm.DB, error) {
	level := gormLogger.Warn
	if env == "development" {
		level = gormLogger.Info
	}
	gdb, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: db.DB}), &gorm.Config{
		Logger:  gormLogger.Default.LogMode(level),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}
	return gdb, nil
}

func redisClientOpt(cfg internal.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func newRedisClient(cfg internal.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
