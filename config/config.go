package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/cwrk-planet/room-signup/internal/domain"
)

type GRPC struct {
	Addr string `yaml:"addr"`
}

type HTTP struct {
	Addr           string `yaml:"addr"`
	ReadTimeout    string `yaml:"readTimeout"`
	WriteTimeout   string `yaml:"writeTimeout"`
	RequestTimeout string `yaml:"requestTimeout"`
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|stage|prod
	Service   string `yaml:"service"`   // room-signup
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	Level     string `yaml:"level"`     // debug|info|warn|error
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type Postgres struct {
	DSN              string `yaml:"dsn"`
	MaxConns         int32  `yaml:"maxConns"`
	MinConns         int32  `yaml:"minConns"`
	MaxConnLifetime  string `yaml:"maxConnLifetime"`
	MaxConnIdleTime  string `yaml:"maxConnIdleTime"`
	StatementTimeout string `yaml:"statementTimeout"`
	Migrate          bool   `yaml:"migrate"`
}

type Discord struct {
	Token         string `yaml:"token"`
	StateMessages int    `yaml:"stateMessages"`
}

type Signup struct {
	Exclusivity domain.Exclusivity `yaml:"exclusivity"` // global|room
}

type Admin struct {
	Token string `yaml:"token"`
}

type Config struct {
	HTTP     HTTP     `yaml:"http"`
	GRPC     GRPC     `yaml:"grpc"`
	Logging  Logging  `yaml:"logging"`
	Postgres Postgres `yaml:"postgres"`
	Discord  Discord  `yaml:"discord"`
	Signup   Signup   `yaml:"signup"`
	Admin    Admin    `yaml:"admin"`
}

// секреты в YAML не обязательны; если заданы в окружении — берём оттуда.
type secrets struct {
	DiscordToken string `envconfig:"DISCORD_TOKEN"`
	DatabaseURL  string `envconfig:"DATABASE_URL"`
	AdminToken   string `envconfig:"ADMIN_TOKEN"`
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse разбирает YAML, накладывает секреты из окружения и ставит дефолты.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	var env secrets
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	cfg.overlay(env)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) overlay(env secrets) {
	if env.DiscordToken != "" {
		c.Discord.Token = env.DiscordToken
	}
	if env.DatabaseURL != "" {
		c.Postgres.DSN = env.DatabaseURL
	}
	if env.AdminToken != "" {
		c.Admin.Token = env.AdminToken
	}
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if c.GRPC.Addr == "" {
		return errors.New("grpc.addr is required")
	}
	if c.Postgres.DSN == "" {
		return errors.New("postgres.dsn or DATABASE_URL is required")
	}
	if c.Discord.Token == "" {
		return errors.New("discord.token or DISCORD_TOKEN is required")
	}
	if c.Admin.Token == "" {
		return errors.New("admin.token or ADMIN_TOKEN is required")
	}

	// установка дефолтов, если значения не указаны
	if c.Signup.Exclusivity == "" {
		c.Signup.Exclusivity = domain.ExclusivityGlobal
	}
	if !c.Signup.Exclusivity.Valid() {
		return fmt.Errorf("signup.exclusivity must be %q or %q, got %q",
			domain.ExclusivityGlobal, domain.ExclusivityRoom, c.Signup.Exclusivity)
	}

	if c.Logging.Service == "" {
		c.Logging.Service = "room-signup"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
	if c.Discord.StateMessages <= 0 {
		c.Discord.StateMessages = 100
	}
	return nil
}

func (h HTTP) Timeouts() (read, write, request time.Duration) {
	return parseDurationOr(10*time.Second, h.ReadTimeout),
		parseDurationOr(15*time.Second, h.WriteTimeout),
		parseDurationOr(30*time.Second, h.RequestTimeout)
}

func (p Postgres) Lifetimes() (maxLifetime, maxIdle, statement time.Duration) {
	return parseDurationOr(time.Hour, p.MaxConnLifetime),
		parseDurationOr(30*time.Minute, p.MaxConnIdleTime),
		parseDurationOr(5*time.Second, p.StatementTimeout)
}

// helper для парсинга timeout-ов
func parseDurationOr(def time.Duration, s string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return def
}
