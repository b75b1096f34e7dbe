package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/dig"

	"github.com/davidbz/treeline/internal/carbon/electricitymaps"
	"github.com/davidbz/treeline/internal/carbon/watttime"
)

// Config represents the service configuration.
type Config struct {
	Server          ServerConfig
	Log             LogConfig
	CORS            CORSConfig
	Cache           CacheConfig
	ElectricityMaps electricitymaps.Config
	WattTime        watttime.Config
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int  `env:"SERVER_PORT"          envDefault:"8080"`
	ReadTimeout  int  `env:"SERVER_READ_TIMEOUT"  envDefault:"30"`
	WriteTimeout int  `env:"SERVER_WRITE_TIMEOUT" envDefault:"30"`
	Debug        bool `env:"DEBUG"                envDefault:"false"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// CORSConfig contains CORS policy settings.
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"   envSeparator:"," envDefault:"*"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"   envSeparator:"," envDefault:"GET,POST,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"   envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"                  envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE"                            envDefault:"86400"`
}

// CacheConfig contains result cache settings.
// RedisAddr is optional: when empty the bounded in-memory cache is used.
type CacheConfig struct {
	MaxSize    int    `env:"CACHE_MAX_SIZE"    envDefault:"1000"`
	TTLSeconds int    `env:"CACHE_TTL"         envDefault:"21600"`
	RedisAddr  string `env:"REDIS_ADDR"`
}

// DepConfig is used for dependency injection with dig.
type DepConfig struct {
	dig.Out

	Server          *ServerConfig
	Log             *LogConfig
	CORS            *CORSConfig
	Cache           *CacheConfig
	ElectricityMaps *electricitymaps.Config
	WattTime        *watttime.Config
}

// Load loads environment files and parses configuration.
func Load() *Config {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}

	return &cfg
}

// ParseDependenciesConfig returns pointers to sub-configs for dependency injection.
func ParseDependenciesConfig(cfg *Config) DepConfig {
	return DepConfig{
		Out:             dig.Out{},
		Server:          &cfg.Server,
		Log:             &cfg.Log,
		CORS:            &cfg.CORS,
		Cache:           &cfg.Cache,
		ElectricityMaps: &cfg.ElectricityMaps,
		WattTime:        &cfg.WattTime,
	}
}
