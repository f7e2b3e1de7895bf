package main

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rtemka/ya/news/domain"
)

// префиксы переменных окружения сервисов.
const (
	notesPrefix = "NOTES_"
	newsPrefix  = "NEWS_"
)

// config - общие настройки сервиса.
type config struct {
	Addr          string        `env:"ADDR"`
	DBURL         string        `env:"DB_URL"`
	SessionSecret string        `env:"SESSION_SECRET,required"`
	SessionTTL    time.Duration `env:"SESSION_TTL"    envDefault:"24h"`
	UsersFile     string        `env:"USERS_FILE"`
}

// newsConfig - настройки сервиса новостей.
// С префиксом имена переменных NEWS_FILE и NEWS_COUNT_ON_HOME_PAGE.
type newsConfig struct {
	Service   config
	PGURL     string `env:"PG_URL"`
	NewsFile  string `env:"FILE"`
	HomeLimit int    `env:"COUNT_ON_HOME_PAGE" envDefault:"10"`
}

// loadConfig читает общие настройки из окружения с префиксом prefix.
// environment подменяет окружение процесса, если не nil.
func loadConfig(prefix string, environment map[string]string) (config, error) {
	var cfg config
	err := env.ParseWithOptions(&cfg, env.Options{Prefix: prefix, Environment: environment})
	if err != nil {
		return config{}, err
	}
	cfg.defaults(prefix)
	return cfg, nil
}

// loadDBURL читает только адрес БД SQLite, секрет сессий при этом не нужен.
func loadDBURL(prefix string, environment map[string]string) (string, error) {
	var cfg struct {
		DBURL string `env:"DB_URL"`
	}
	err := env.ParseWithOptions(&cfg, env.Options{Prefix: prefix, Environment: environment})
	if err != nil {
		return "", err
	}
	c := config{DBURL: cfg.DBURL}
	c.defaults(prefix)
	return c.DBURL, nil
}

// loadNewsConfig читает настройки сервиса новостей.
func loadNewsConfig(environment map[string]string) (newsConfig, error) {
	var cfg newsConfig
	err := env.ParseWithOptions(&cfg, env.Options{Prefix: newsPrefix, Environment: environment})
	if err != nil {
		return newsConfig{}, err
	}
	cfg.Service.defaults(newsPrefix)
	if cfg.HomeLimit <= 0 {
		cfg.HomeLimit = domain.NewsOnHomePage
	}
	return cfg, nil
}

func (c *config) defaults(prefix string) {
	switch prefix {
	case newsPrefix:
		if c.Addr == "" {
			c.Addr = ":8001"
		}
		if c.DBURL == "" {
			c.DBURL = "file:news.db?_busy_timeout=5000"
		}
	default:
		if c.Addr == "" {
			c.Addr = ":8000"
		}
		if c.DBURL == "" {
			c.DBURL = "file:notes.db?_busy_timeout=5000"
		}
	}
}
