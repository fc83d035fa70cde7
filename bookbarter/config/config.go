package config

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Astemirdum/bookbarter/bookbarter/internal/cache"
	"github.com/Astemirdum/bookbarter/bookbarter/internal/mailer"
	"github.com/Astemirdum/bookbarter/bookbarter/internal/storage"
	"github.com/Astemirdum/bookbarter/pkg/auth"
	"github.com/Astemirdum/bookbarter/pkg/kafka"
	"github.com/Astemirdum/bookbarter/pkg/logger"
	"github.com/Astemirdum/bookbarter/pkg/postgres"
	"github.com/kelseyhightower/envconfig"
)

type HTTPServer struct {
	Host         string        `yaml:"host" envconfig:"HTTP_HOST" default:"0.0.0.0"`
	Port         string        `yaml:"port" envconfig:"HTTP_PORT" default:"5000"`
	ReadTimeout  time.Duration `yaml:"readTimeout" envconfig:"HTTP_READ" default:"10s"`
	WriteTimeout time.Duration `yaml:"writeTimeout" envconfig:"HTTP_WRITE"`
}

type Config struct {
	Server   HTTPServer     `yaml:"server"`
	Database postgres.DB    `yaml:"db"`
	Kafka    kafka.Config   `yaml:"kafka"`
	Redis    cache.Config   `yaml:"redis"`
	MinIO    storage.Config `yaml:"minio"`
	Mailer   mailer.Config  `yaml:"mailer"`
	Auth     auth.Config    `yaml:"auth"`
	Log      logger.Log     `yaml:"log"`
}

var (
	once sync.Once
	cfg  *Config
)

// NewConfig reads config from environment.
func NewConfig(ops ...Option) *Config {
	once.Do(func() {
		var config Config
		for _, op := range ops {
			op(&config)
		}
		err := envconfig.Process("", &config)
		if err != nil {
			log.Fatal("NewConfig ", err)
		}
		if config.Auth.Secret == "" {
			log.Fatal("NewConfig JWT_SECRET is required")
		}
		cfg = &config
		printConfig(cfg)
	})

	return cfg
}

func printConfig(cfg *Config) {
	jscfg, _ := json.MarshalIndent(cfg, "", "	") //nolint:errcheck
	fmt.Println(string(jscfg))
}
