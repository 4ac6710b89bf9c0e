// Package config loads the process configuration: built-in defaults, then an
// optional YAML file, then SERVICIO_* environment variables.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

// EnvPrefix is the prefix of every environment override. Nested keys are
// joined with underscores: SERVICIO_CONTENT_BASEURL sets content.baseurl.
const EnvPrefix = "SERVICIO_"

type Application struct {
	Addr      string    `koanf:"addr"`
	DB        string    `koanf:"db"`
	Log       Log       `koanf:"log"`
	Session   Session   `koanf:"session"`
	Content   Content   `koanf:"content"`
	Editor    Editor    `koanf:"editor"`
	RateLimit RateLimit `koanf:"ratelimit"`
}

type Log struct {
	Level string `koanf:"level"`
}

type Session struct {
	Secure   bool          `koanf:"secure"`
	Lifetime time.Duration `koanf:"lifetime"`
}

// Content configures where the catalog documents are fetched from at
// startup. An empty BaseURL skips the remote source.
type Content struct {
	BaseURL string        `koanf:"baseurl"`
	Timeout time.Duration `koanf:"timeout"`
	Retries int           `koanf:"retries"`
}

type Editor struct {
	Idle time.Duration `koanf:"idle"`
}

// RateLimit bounds contact-form submissions per client IP. Proxies lists
// the reverse proxies whose X-Forwarded-For is trusted.
type RateLimit struct {
	Burst   int           `koanf:"burst"`
	Window  time.Duration `koanf:"window"`
	Proxies []string      `koanf:"proxies"`
}

// Defaults returns the built-in configuration.
func Defaults() Application {
	return Application{
		Addr: ":8080",
		DB:   "servicio.db",
		Log:  Log{Level: "info"},
		Session: Session{
			Lifetime: 12 * time.Hour,
		},
		Content: Content{
			Timeout: 10 * time.Second,
			Retries: 2,
		},
		Editor: Editor{
			Idle: 12 * time.Hour,
		},
		RateLimit: RateLimit{
			Burst:   5,
			Window:  10 * time.Minute,
			Proxies: []string{"127.0.0.1", "::1"},
		},
	}
}

// Load reads an optional .env file into the environment, then layers
// defaults, the YAML file at path, and environment variables.
func Load(path string) (Application, error) {
	if err := godotenv.Load(); err == nil {
		log.Debug("Loaded environment from .env")
	}

	var k = koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if os.IsNotExist(err) {
				log.Infof("Config file not found at %s, using defaults and environment variables", path)
			} else {
				log.Errorf("error loading config from YAML: %v", err)
				return Application{}, err
			}
		} else {
			log.Infof("Loaded configuration from file: %s", path)
		}
	}

	err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, EnvPrefix)), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}

// ConfigureLogging applies the configured log level, keeping info when the
// level does not parse.
func ConfigureLogging(cfg Log) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		log.Warnf("config: unknown log level %q, using info", cfg.Level)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
