package database

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"net/url"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/mxschmitt/db-profile-resolver/internal/profile"
)

const applicationName = "db-profile-resolver"

type DB struct {
	*gorm.DB
	SQL     *sql.DB
	Profile profile.Profile

	pgPool *pgxpool.Pool
}

// Open connects to the database described by p. Reachability is checked with
// a ping bounded by the profile's acquire timeout.
func Open(ctx context.Context, p profile.Profile, log *zap.Logger) (*DB, error) {
	var (
		dialector gorm.Dialector
		pgPool    *pgxpool.Pool
	)

	switch p.Dialect {
	case profile.Postgres:
		poolConfig, err := PostgresPoolConfig(p)
		if err != nil {
			return nil, err
		}
		pgPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres pool: %w", err)
		}
		dialector = postgres.New(postgres.Config{Conn: stdlib.OpenDBFromPool(pgPool)})

	case profile.MySQL:
		cfg, err := MySQLConfig(p)
		if err != nil {
			return nil, err
		}
		dialector = mysql.New(mysql.Config{DSNConfig: cfg})

	case profile.SQLite:
		dialector = sqlite.Open(p.StoragePath)

	default:
		return nil, fmt.Errorf("unsupported database dialect: %s", p.Dialect)
	}

	gormConfig, err := GormConfig(p, log)
	if err != nil {
		closePool(pgPool)
		return nil, err
	}

	gdb, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		closePool(pgPool)
		return nil, fmt.Errorf("failed to open %s database: %w", p.Dialect, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		closePool(pgPool)
		return nil, fmt.Errorf("failed to get underlying db: %w", err)
	}
	configurePool(sqlDB, p)

	db := &DB{DB: gdb, SQL: sqlDB, Profile: p, pgPool: pgPool}

	pingCtx := ctx
	if timeout := p.Pool.AcquireTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach %s database at %s: %w", p.Dialect, describe(p), err)
	}

	log.Info("Database connection established",
		zap.String("dialect", string(p.Dialect)),
		zap.String("target", describe(p)),
		zap.Int("pool_max", p.Pool.Max))

	return db, nil
}

// PostgresPoolConfig builds the pgx pool configuration for a postgres profile.
func PostgresPoolConfig(p profile.Profile) (*pgxpool.Config, error) {
	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(p.Username, p.Password),
		Host:   fmt.Sprintf("%s:%d", p.Host, p.Port),
		Path:   "/" + p.Database,
	}
	q := url.Values{}
	q.Set("sslmode", postgresSSLMode(p.TLS))
	q.Set("application_name", applicationName)
	dsn.RawQuery = q.Encode()

	cfg, err := pgxpool.ParseConfig(dsn.String())
	if err != nil {
		return nil, fmt.Errorf("invalid postgres configuration: %w", err)
	}

	cfg.MaxConns = clampInt32(p.Pool.Max)
	cfg.MinConns = clampInt32(p.Pool.Min)
	cfg.MaxConnIdleTime = p.Pool.IdleTimeout()
	if timeout := p.Pool.AcquireTimeout(); timeout > 0 {
		cfg.ConnConfig.ConnectTimeout = timeout
	}

	return cfg, nil
}

func postgresSSLMode(tls *profile.TLSOptions) string {
	switch {
	case tls == nil:
		return "prefer"
	case tls.RejectUnauthorized:
		return "verify-full"
	case tls.Require:
		return "require"
	default:
		return "prefer"
	}
}

// MySQLConfig builds the go-sql-driver configuration for a mysql profile.
func MySQLConfig(p profile.Profile) (*mysqldriver.Config, error) {
	loc, err := Location(p.Timezone)
	if err != nil {
		return nil, err
	}

	cfg := mysqldriver.NewConfig()
	cfg.User = p.Username
	cfg.Passwd = p.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", p.Host, p.Port)
	cfg.DBName = p.Database
	cfg.ParseTime = true
	cfg.Loc = loc
	cfg.Params = map[string]string{"time_zone": "'" + p.Timezone + "'"}
	if timeout := p.Pool.AcquireTimeout(); timeout > 0 {
		cfg.Timeout = timeout
	}

	if p.TLS != nil {
		if p.TLS.RejectUnauthorized {
			cfg.TLSConfig = "true"
		} else {
			cfg.TLSConfig = "skip-verify"
		}
	}

	return cfg, nil
}

// GormConfig maps the profile's naming convention, timezone and logging flag
// onto gorm settings.
func GormConfig(p profile.Profile, log *zap.Logger) (*gorm.Config, error) {
	loc, err := Location(p.Timezone)
	if err != nil {
		return nil, err
	}

	gormLogger := logger.Default.LogMode(logger.Silent)
	if p.LoggingEnabled {
		gormLogger = logger.New(zap.NewStdLog(log.Named("sql")), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Info,
			IgnoreRecordNotFoundError: true,
		})
	}

	return &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			SingularTable: p.Naming.FreezeTableName,
			NoLowerCase:   !p.Naming.Underscored,
		},
		NowFunc: func() time.Time {
			return time.Now().In(loc)
		},
		Logger:               gormLogger,
		DisableAutomaticPing: true,
	}, nil
}

// Location converts a ±HH:MM offset into a fixed time zone. The zone is
// always fixed, even when the offset matches the local zone.
func Location(offset string) (*time.Location, error) {
	t, err := time.Parse("-07:00", offset)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone offset %q: %w", offset, err)
	}
	_, seconds := t.Zone()
	return time.FixedZone("UTC"+offset, seconds), nil
}

func configurePool(sqlDB *sql.DB, p profile.Profile) {
	// Every connection to :memory: is a separate database.
	if p.Dialect == profile.SQLite && p.StoragePath == profile.MemoryStorage {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxIdleTime(0)
		return
	}
	sqlDB.SetMaxOpenConns(p.Pool.Max)
	sqlDB.SetMaxIdleConns(p.Pool.Max)
	sqlDB.SetConnMaxIdleTime(p.Pool.IdleTimeout())
}

func clampInt32(n int) int32 {
	switch {
	case n > math.MaxInt32:
		return math.MaxInt32
	case n < 0:
		return 0
	default:
		return int32(n)
	}
}

func describe(p profile.Profile) string {
	if p.Dialect == profile.SQLite {
		return p.StoragePath
	}
	return fmt.Sprintf("%s:%d/%s", p.Host, p.Port, p.Database)
}

func closePool(pool *pgxpool.Pool) {
	if pool != nil {
		pool.Close()
	}
}

// Ping checks the connection, bounded by the acquire timeout.
func (db *DB) Ping(ctx context.Context) error {
	if timeout := db.Profile.Pool.AcquireTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return db.SQL.PingContext(ctx)
}

func (db *DB) Close() error {
	err := db.SQL.Close()
	closePool(db.pgPool)
	return err
}
