package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuracion del servicio.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	AphroditeBaseURL string `env:"APHRODITE_BASE_URL" envDefault:"http://localhost:2242/v1"`
	AphroditeAPIKey  string `env:"APHRODITE_API_KEY" envDefault:"EMPTY"`
	AphroditeModel   string `env:"APHRODITE_MODEL" envDefault:"default"`

	JWTSecret            string `env:"JWT_SECRET"`
	JWTAccessTTLMinutes  int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"15"`
	JWTRefreshTTLMinutes int    `env:"JWT_REFRESH_TTL_MINUTES" envDefault:"43200"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

// LoadConfig carga la configuracion desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
