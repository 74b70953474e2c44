// Package config loads service settings from an optional YAML file and the
// environment. Environment variables win over the file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every setting of the service.
type Config struct {
	Port string `yaml:"port"`

	// Database (PostgreSQL)
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBName     string `yaml:"db_name"`
	DBHost     string `yaml:"db_host"`
	DBPort     string `yaml:"db_port"`

	// Kafka; an empty broker disables intent events.
	KafkaBroker string `yaml:"kafka_broker"`
	KafkaTopic  string `yaml:"kafka_topic"`

	JWTSecret string `yaml:"jwt_secret"`

	LogisticsURL   string `yaml:"logistics_url"`
	LogisticsToken string `yaml:"logistics_token"`
	GoogleMapsKey  string `yaml:"google_maps_key"`

	// FirebaseCredentials is a service account file; empty disables Firebase sign-in.
	FirebaseCredentials string `yaml:"firebase_credentials"`

	Country          string        `yaml:"country"`
	MaxVisibleStores int           `yaml:"max_visible_stores"`
	QueryTTL         time.Duration `yaml:"query_ttl"`
	QueryRefresh     time.Duration `yaml:"query_refresh_after"`
	QueryWorkers     int           `yaml:"query_workers"`
}

func defaults() *Config {
	return &Config{
		Port:             "8080",
		DBHost:           "localhost",
		DBPort:           "5432",
		DBName:           "pickup",
		KafkaTopic:       "pickup-intents",
		Country:          "BRA",
		MaxVisibleStores: 3,
		QueryTTL:         5 * time.Minute,
		QueryRefresh:     30 * time.Second,
		QueryWorkers:     10,
	}
}

// Load reads the YAML file named by PICKUP_CONFIG, if set, then applies
// environment overrides.
func Load() (*Config, error) {
	cfg := defaults()
	if path := os.Getenv("PICKUP_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"PORT":                           &c.Port,
		"DB_USER":                        &c.DBUser,
		"DB_PASSWORD":                    &c.DBPassword,
		"DB_NAME":                        &c.DBName,
		"DB_HOST":                        &c.DBHost,
		"DB_PORT":                        &c.DBPort,
		"KAFKA_BROKER":                   &c.KafkaBroker,
		"KAFKA_TOPIC":                    &c.KafkaTopic,
		"JWT_SECRET":                     &c.JWTSecret,
		"LOGISTICS_URL":                  &c.LogisticsURL,
		"LOGISTICS_TOKEN":                &c.LogisticsToken,
		"GOOGLE_MAPS_KEY":                &c.GoogleMapsKey,
		"GOOGLE_APPLICATION_CREDENTIALS": &c.FirebaseCredentials,
		"COUNTRY":                        &c.Country,
	}
	for name, dst := range str {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"MAX_VISIBLE_STORES": &c.MaxVisibleStores,
		"QUERY_WORKERS":      &c.QueryWorkers,
	}
	for name, dst := range ints {
		if v := os.Getenv(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", name, err)
			}
			*dst = n
		}
	}

	durations := map[string]*time.Duration{
		"QUERY_TTL":           &c.QueryTTL,
		"QUERY_REFRESH_AFTER": &c.QueryRefresh,
	}
	for name, dst := range durations {
		if v := os.Getenv(name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", name, err)
			}
			*dst = d
		}
	}
	return nil
}

// GetDBURL formats the config into a PostgreSQL connection string.
func (c *Config) GetDBURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}
