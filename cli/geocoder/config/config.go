package config

/*
Описание конфигурационного файла

log_level: "INFO"
log_file_path: "/var/log/geocoder/geocoder.log"
log_max_age_days: 30

redis:
  addr: "localhost:6379"
  password: ""
  db: 0
  prefix: "geocode:"

nats_url: "nats://localhost:4222"
nats_subject: "geocode.requests"
nats_queue_group: "geocoder"

grid_precision: 4
lock_ttl: 10
drain_cron: "@every 10s"
workers: 4
max_attempts: 3
intake_buffer: 1024

nominatim_url: "https://nominatim.openstreetmap.org"
nominatim_user_agent: "euro-one-geocoder"
nominatim_language: "pt-BR"
nominatim_timeout: 10

storage:
  nats:
    servers: "nats://localhost:4222"
    topic: "geocode.results"
*/

import (
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/guoosantos/euro-one-sub006/libs/geocode"
	"github.com/guoosantos/euro-one-sub006/libs/logging"
	"gopkg.in/yaml.v2"
)

const (
	defaultNatsURL       = "nats://localhost:4222"
	defaultNatsSubject   = "geocode.requests"
	defaultRedisAddr     = "localhost:6379"
	defaultRedisPrefix   = "geocode:"
	defaultLockTTL       = 10
	defaultDrainCron     = "@every 10s"
	defaultWorkers       = 4
	defaultMaxAttempts   = 3
	defaultIntakeBuffer  = 1024
	defaultNominatimURL  = "https://nominatim.openstreetmap.org"
	defaultUserAgent     = "euro-one-geocoder"
	defaultNominatimWait = 10
	maxGridPrecision     = 8
)

type RedisSettings struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type Settings struct {
	LogLevel      string `yaml:"log_level"`
	LogFilePath   string `yaml:"log_file_path"`
	LogMaxAgeDays int    `yaml:"log_max_age_days"`

	Redis RedisSettings `yaml:"redis"`

	NatsURL        string `yaml:"nats_url"`
	NatsSubject    string `yaml:"nats_subject"`
	NatsQueueGroup string `yaml:"nats_queue_group"`

	GridPrecision *int   `yaml:"grid_precision"`
	LockTTL       int    `yaml:"lock_ttl"`
	DrainCron     string `yaml:"drain_cron"`
	Workers       int    `yaml:"workers"`
	MaxAttempts   int    `yaml:"max_attempts"`
	IntakeBuffer  int    `yaml:"intake_buffer"`

	NominatimURL       string `yaml:"nominatim_url"`
	NominatimUserAgent string `yaml:"nominatim_user_agent"`
	NominatimLanguage  string `yaml:"nominatim_language"`
	NominatimTimeout   int    `yaml:"nominatim_timeout"`

	Store map[string]map[string]string `yaml:"storage"`
}

func (s *Settings) GetLogLevel() log.Level {
	return logging.ParseLevel(s.LogLevel)
}

func (s *Settings) GetLoggingOptions() logging.Options {
	return logging.Options{
		Level:       s.GetLogLevel(),
		FilePath:    s.LogFilePath,
		MaxAgeDays:  s.LogMaxAgeDays,
		ForceColors: true,
	}
}

func (s *Settings) GetGridPrecision() int {
	if s.GridPrecision == nil {
		return geocode.DefaultPrecision
	}
	return *s.GridPrecision
}

func (s *Settings) GetLockTTL() time.Duration {
	return time.Duration(s.LockTTL) * time.Second
}

func (s *Settings) GetNominatimTimeout() time.Duration {
	return time.Duration(s.NominatimTimeout) * time.Second
}

func New(confPath string) (Settings, error) {
	c := Settings{}
	data, err := os.ReadFile(confPath)
	if err != nil {
		return c, err
	}
	err = yaml.Unmarshal(data, &c)
	if err != nil {
		return c, err
	}

	if c.Redis.Addr == "" {
		c.Redis.Addr = defaultRedisAddr
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = defaultRedisPrefix
	}
	if c.NatsURL == "" {
		c.NatsURL = defaultNatsURL
	}
	if c.NatsSubject == "" {
		c.NatsSubject = defaultNatsSubject
	}
	if c.DrainCron == "" {
		c.DrainCron = defaultDrainCron
	}
	if c.NominatimURL == "" {
		c.NominatimURL = defaultNominatimURL
	}
	if c.NominatimUserAgent == "" {
		c.NominatimUserAgent = defaultUserAgent
	}

	if c.LockTTL <= 0 {
		c.LockTTL = defaultLockTTL
	}
	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.IntakeBuffer <= 0 {
		c.IntakeBuffer = defaultIntakeBuffer
	}
	if c.NominatimTimeout <= 0 {
		c.NominatimTimeout = defaultNominatimWait
	}

	if c.GridPrecision != nil && (*c.GridPrecision < 0 || *c.GridPrecision > maxGridPrecision) {
		log.Errorf("Некорректная точность сетки (%d), допустимо от 0 до %d. Используется %d.", *c.GridPrecision, maxGridPrecision, geocode.DefaultPrecision)
		c.GridPrecision = nil
	}

	return c, err
}
