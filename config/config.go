package config

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type MQConfig struct {
	URL string `yaml:"url"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

// GrantsConfig carries the engine policies that are deliberately
// configuration rather than code.
type GrantsConfig struct {
	// StrictSanctionCap rejects disbursement requests that would push
	// released+pending past the sanctioned amount. Off by default: the
	// ledger reports over-commitment instead of blocking it.
	StrictSanctionCap bool `yaml:"strict_sanction_cap"`
	// IneligibleTags are the compliance-tag keywords that mark an
	// expenditure ineligible in compliance reports.
	IneligibleTags []string `yaml:"ineligible_tags"`
	// OverviewCacheTTLSeconds bounds staleness of the portfolio overview.
	OverviewCacheTTLSeconds int `yaml:"overview_cache_ttl_seconds"`
}

type Config struct {
	DB     DBConfig     `yaml:"db"`
	Redis  RedisConfig  `yaml:"redis"`
	MQ     MQConfig     `yaml:"mq"`
	Server ServerConfig `yaml:"server"`
	Grants GrantsConfig `yaml:"grants"`
}

func Load() *Config {
	f, err := os.Open("config.yaml")
	if err != nil {
		log.Fatalf("failed to open config.yaml: %v", err)
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		log.Fatalf("failed to decode config.yaml: %v", err)
	}

	overrideFromEnv(&cfg)

	return &cfg
}

func overrideFromEnv(cfg *Config) {
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.DB.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.DB.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.DB.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.DB.Password = password
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.DB.Name = name
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}

	if url := os.Getenv("MQ_URL"); url != "" {
		cfg.MQ.URL = url
	}

	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Server.Port = port
	}

	if strict := os.Getenv("GRANTS_STRICT_SANCTION_CAP"); strict != "" {
		if b, err := strconv.ParseBool(strict); err == nil {
			cfg.Grants.StrictSanctionCap = b
		}
	}
}
