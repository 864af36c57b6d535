package config

import "time"

// DefaultConfig returns the default configuration: a local sqlite store,
// no auth, and the standard polling cadence.
func DefaultConfig() *Config {
	return &Config{
		Server:   DefaultServerConfig(),
		Database: DefaultDatabaseConfig(),
		Redis:    DefaultRedisConfig(),
		Runtime:  DefaultRuntimeConfig(),
		Sync:     DefaultSyncConfig(),
		Autosave: DefaultAutosaveConfig(),
		Auth:     DefaultAuthConfig(),
		Log:      DefaultLogConfig(),
	}
}

// DefaultServerConfig returns the default server settings.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		MetricsPort:     9091,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		RateLimitRPS:    100,
		RateLimitBurst:  200,
	}
}

// DefaultDatabaseConfig returns the default database settings.
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:          "sqlite",
		Name:            "agentcanvas.db",
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	}
}

// DefaultRedisConfig returns the default redis settings (disabled).
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Enabled: false,
		Addr:    "localhost:6379",
	}
}

// DefaultRuntimeConfig returns the default runtime client settings.
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		BaseURL:       "http://localhost:8081/api/v1",
		ProjectID:     "default",
		Timeout:       15 * time.Second,
		PollRateLimit: 10,
	}
}

// DefaultSyncConfig returns the default polling settings.
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		PollInterval:       3 * time.Second,
		RecentlyClosedTTL:  5 * time.Second,
		MonitorInterval:    3 * time.Second,
		MonitorMaxAttempts: 100,
	}
}

// DefaultAutosaveConfig returns the default autosave settings.
func DefaultAutosaveConfig() AutosaveConfig {
	return AutosaveConfig{Debounce: 800 * time.Millisecond}
}

// DefaultAuthConfig returns the default auth settings (disabled).
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{Enabled: false}
}

// DefaultLogConfig returns the default logging settings.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:       "info",
		Format:      "json",
		OutputPaths: []string{"stdout"},
	}
}
