package profile

import "time"

type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	Production  Environment = "production"
)

// Environments lists the environments a deployment carries profiles for.
var Environments = []Environment{Development, Test, Production}

type Dialect string

const (
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
	SQLite   Dialect = "sqlite"
)

type Tier string

const (
	TierConnectionString Tier = "connection-string"
	TierDiscrete         Tier = "discrete-variables"
	TierFallback         Tier = "fallback"
)

const (
	// MemoryStorage is the sqlite storage target for an in-memory database.
	MemoryStorage = ":memory:"
	// FileStorage is the on-disk sqlite database used outside of tests.
	FileStorage = "./dev.sqlite"

	DefaultTimezone = "+07:00"
)

// Profile is the resolved connection configuration for one environment. It is
// built once at startup and must be treated as read-only afterwards.
type Profile struct {
	Environment Environment `json:"environment" yaml:"environment"`
	Dialect     Dialect     `json:"dialect" yaml:"dialect" validate:"required"`

	Host     string `json:"host,omitempty" yaml:"host,omitempty"`
	Port     int    `json:"port,omitempty" yaml:"port,omitempty" validate:"min=0,max=65535"`
	Database string `json:"database,omitempty" yaml:"database,omitempty"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"-" yaml:"-"`

	StoragePath string `json:"storage_path,omitempty" yaml:"storage_path,omitempty"`

	Timezone       string           `json:"timezone" yaml:"timezone" validate:"required,tzoffset"`
	LoggingEnabled bool             `json:"logging_enabled" yaml:"logging_enabled"`
	Pool           Pool             `json:"pool" yaml:"pool"`
	TLS            *TLSOptions      `json:"tls,omitempty" yaml:"tls,omitempty"`
	Naming         NamingConvention `json:"naming" yaml:"naming"`
}

type Pool struct {
	Max              int `json:"max" yaml:"max" validate:"min=1,max=2147483647"`
	Min              int `json:"min" yaml:"min" validate:"min=0,ltefield=Max"`
	AcquireTimeoutMs int `json:"acquire_timeout_ms" yaml:"acquire_timeout_ms" validate:"min=0,max=2147483647"`
	IdleTimeoutMs    int `json:"idle_timeout_ms" yaml:"idle_timeout_ms" validate:"min=0,max=2147483647"`
}

func (p Pool) AcquireTimeout() time.Duration {
	return time.Duration(p.AcquireTimeoutMs) * time.Millisecond
}

func (p Pool) IdleTimeout() time.Duration {
	return time.Duration(p.IdleTimeoutMs) * time.Millisecond
}

// DefaultPool is used for every pool setting that is not overridden.
var DefaultPool = Pool{
	Max:              5,
	Min:              0,
	AcquireTimeoutMs: 30000,
	IdleTimeoutMs:    10000,
}

type TLSOptions struct {
	// Require refuses plaintext connections.
	Require bool `json:"require" yaml:"require"`
	// RejectUnauthorized enables peer certificate verification.
	RejectUnauthorized bool `json:"reject_unauthorized" yaml:"reject_unauthorized"`
}

type NamingConvention struct {
	// Timestamps is always on. gorm fills CreatedAt and UpdatedAt on any
	// model that declares them, using the profile's timezone.
	Timestamps      bool `json:"timestamps" yaml:"timestamps"`
	Underscored     bool `json:"underscored" yaml:"underscored"`
	FreezeTableName bool `json:"freeze_table_name" yaml:"freeze_table_name"`
}

// DefaultNaming is the fixed naming policy applied to every profile.
var DefaultNaming = NamingConvention{
	Timestamps:      true,
	Underscored:     true,
	FreezeTableName: false,
}

func (p Profile) IsSQLite() bool {
	return p.Dialect == SQLite
}

func (p Profile) PasswordSet() bool {
	return p.Password != ""
}
