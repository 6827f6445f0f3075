package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Storage   StorageConfig   `mapstructure:"storage"   validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth"      validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
}

// ServerConfig contains all HTTP server settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	// Driver is the backend kind: "jsonfile" or "postgres".
	Driver string `mapstructure:"driver" validate:"required,oneof=jsonfile postgres"`

	// TaskFile and UserFile are the JSON store paths (jsonfile driver).
	TaskFile string `mapstructure:"task_file"`
	UserFile string `mapstructure:"user_file"`

	// DatabaseURL is the connection string (postgres driver).
	DatabaseURL string `mapstructure:"database_url"`
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
	BcryptCost           int    `mapstructure:"bcrypt_cost"            validate:"omitempty,gte=4,lte=31"`
}

// SchedulerConfig contains evaluation loop settings. The tick interval is
// capped at 60s: statuses are computed at minute resolution, so a longer
// interval could step over a task's due minute entirely.
type SchedulerConfig struct {
	TickIntervalSeconds    int `mapstructure:"tick_interval_seconds"    validate:"required,gte=1,lte=60"`
	DeliveryTimeoutSeconds int `mapstructure:"delivery_timeout_seconds" validate:"required,gte=1"`
}
