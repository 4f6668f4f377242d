package database

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mxschmitt/db-profile-resolver/internal/profile"
)

func resolve(t *testing.T, environment profile.Environment, env profile.Env) profile.Profile {
	t.Helper()
	p, _, err := profile.Resolve(environment, env)
	require.NoError(t, err)
	return p
}

func TestPostgresPoolConfig(t *testing.T) {
	p := resolve(t, profile.Production, profile.Env{
		"DATABASE_URL": "postgresql://app:p:ss w0rd@db.example.com:6543/orders",
		"DB_POOL_MAX":  "12",
		"DB_POOL_MIN":  "2",
		"DB_POOL_IDLE": "15000",
	})

	cfg, err := PostgresPoolConfig(p)
	require.NoError(t, err)

	assert.Equal(t, "db.example.com", cfg.ConnConfig.Host)
	assert.Equal(t, uint16(6543), cfg.ConnConfig.Port)
	assert.Equal(t, "app", cfg.ConnConfig.User)
	assert.Equal(t, "p:ss w0rd", cfg.ConnConfig.Password)
	assert.Equal(t, "orders", cfg.ConnConfig.Database)
	assert.Equal(t, applicationName, cfg.ConnConfig.RuntimeParams["application_name"])
	assert.Equal(t, int32(12), cfg.MaxConns)
	assert.Equal(t, int32(2), cfg.MinConns)
	assert.Equal(t, 15*time.Second, cfg.MaxConnIdleTime)
	assert.Equal(t, 30*time.Second, cfg.ConnConfig.ConnectTimeout)

	// sslmode=require: encrypted, certificate not verified
	require.NotNil(t, cfg.ConnConfig.TLSConfig)
	assert.True(t, cfg.ConnConfig.TLSConfig.InsecureSkipVerify)
}

func TestPostgresSSLMode(t *testing.T) {
	assert.Equal(t, "prefer", postgresSSLMode(nil))
	assert.Equal(t, "require", postgresSSLMode(&profile.TLSOptions{Require: true}))
	assert.Equal(t, "verify-full", postgresSSLMode(&profile.TLSOptions{Require: true, RejectUnauthorized: true}))
}

func TestMySQLConfig(t *testing.T) {
	p := resolve(t, profile.Production, profile.Env{
		"MYSQLHOST":     "mysql.railway.internal",
		"MYSQLPORT":     "3307",
		"MYSQLDATABASE": "railway",
		"MYSQLUSER":     "root",
		"MYSQLPASSWORD": "secret",
	})

	cfg, err := MySQLConfig(p)
	require.NoError(t, err)

	assert.Equal(t, "tcp", cfg.Net)
	assert.Equal(t, "mysql.railway.internal:3307", cfg.Addr)
	assert.Equal(t, "railway", cfg.DBName)
	assert.Equal(t, "root", cfg.User)
	assert.Equal(t, "secret", cfg.Passwd)
	assert.Equal(t, "skip-verify", cfg.TLSConfig)
	assert.True(t, cfg.ParseTime)
	assert.Equal(t, "'+07:00'", cfg.Params["time_zone"])
	_, offset := time.Now().In(cfg.Loc).Zone()
	assert.Equal(t, 7*3600, offset)
	assert.Contains(t, cfg.FormatDSN(), "tls=skip-verify")
}

func TestMySQLConfig_NoTLSOutsideProduction(t *testing.T) {
	p := resolve(t, profile.Development, profile.Env{"DB_HOST": "h", "DB_NAME": "d", "DB_USER": "u"})

	cfg, err := MySQLConfig(p)
	require.NoError(t, err)
	assert.Empty(t, cfg.TLSConfig)
}

func TestGormConfig(t *testing.T) {
	p := resolve(t, profile.Test, profile.Env{})

	cfg, err := GormConfig(p, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "user_profiles", cfg.NamingStrategy.TableName("UserProfile"))
	assert.Equal(t, "created_at", cfg.NamingStrategy.ColumnName("", "CreatedAt"))
	assert.True(t, cfg.DisableAutomaticPing)

	_, offset := cfg.NowFunc().Zone()
	assert.Equal(t, 7*3600, offset)

	p.Naming.FreezeTableName = true
	cfg, err = GormConfig(p, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "user_profile", cfg.NamingStrategy.TableName("UserProfile"))
}

func TestLocation(t *testing.T) {
	loc, err := Location("-05:30")
	require.NoError(t, err)
	_, offset := time.Date(2024, 1, 1, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, -(5*3600 + 30*60), offset)

	loc, err = Location("+07:00")
	require.NoError(t, err)
	assert.Equal(t, "UTC+07:00", loc.String())

	for _, bad := range []string{"", "07:00", "+7:00", "+07-00", "+aa:00", "+25:00", "Asia/Jakarta"} {
		_, err := Location(bad)
		assert.Error(t, err, bad)
	}
}

func TestClampInt32(t *testing.T) {
	assert.Equal(t, int32(5), clampInt32(5))
	assert.Equal(t, int32(0), clampInt32(-3))
	assert.Equal(t, int32(math.MaxInt32), clampInt32(math.MaxInt32+1))
}

func TestOpen_TimestampsUseProfileTimezone(t *testing.T) {
	p := resolve(t, profile.Test, profile.Env{"DB_TIMEZONE": "-03:00"})
	require.True(t, p.Naming.Timestamps)

	db, err := Open(context.Background(), p, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	type Order struct {
		ID        uint
		CreatedAt time.Time
		UpdatedAt time.Time
	}
	require.NoError(t, db.AutoMigrate(&Order{}))

	order := Order{}
	require.NoError(t, db.Create(&order).Error)

	require.False(t, order.CreatedAt.IsZero())
	require.False(t, order.UpdatedAt.IsZero())
	_, offset := order.CreatedAt.Zone()
	assert.Equal(t, -3*3600, offset)
}

func TestOpen_SQLiteMemory(t *testing.T) {
	p := resolve(t, profile.Test, profile.Env{})

	db, err := Open(context.Background(), p, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	type Widget struct {
		ID        uint
		Name      string
		CreatedAt time.Time
	}
	require.NoError(t, db.AutoMigrate(&Widget{}))
	require.NoError(t, db.Create(&Widget{Name: "gear"}).Error)

	var count int64
	require.NoError(t, db.Model(&Widget{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	assert.True(t, db.Migrator().HasTable("widgets"))

	assert.Equal(t, 1, db.SQL.Stats().MaxOpenConnections)
	require.NoError(t, db.Ping(context.Background()))
}

func TestOpen_UnsupportedDialect(t *testing.T) {
	p := resolve(t, profile.Test, profile.Env{"DATABASE_URL": "mariadb://u:p@h:3310/d"})

	_, err := Open(context.Background(), p, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database dialect: mariadb")
}
