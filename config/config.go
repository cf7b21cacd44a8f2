package config

import (
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	mu sync.Mutex `yaml:"-"`

	Provider  ProviderConfig  `yaml:"provider"`
	Backend   BackendConfig   `yaml:"backend"`
	Cache     CacheConfig     `yaml:"cache"`
	Redis     RedisConfig     `yaml:"redis"`
	Messaging MessagingConfig `yaml:"messaging"`
	Web       WebConfig       `yaml:"web"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
}

// ProviderConfig identifies the marketplace account this console acts as.
type ProviderConfig struct {
	ID     string `yaml:"id"`
	UserID string `yaml:"user_id"`
	APIKey string `yaml:"api_key"`
}

// BackendConfig defines the marketplace REST backend connection.
type BackendConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// CacheConfig defines the local cache database.
type CacheConfig struct {
	Driver   string         `yaml:"driver"` // "sqlite" or "postgres"
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// RedisConfig defines the optional hot snapshot cache.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MessagingConfig defines the real-time notification transport.
type MessagingConfig struct {
	Backend        string        `yaml:"backend"` // "mqtt" or "kafka"
	MQTT           MQTTConfig    `yaml:"mqtt"`
	Kafka          KafkaConfig   `yaml:"kafka"`
	// ChannelPrefix is prepended verbatim to the provider.{id} and
	// user.{id} channel names; include any trailing separator.
	ChannelPrefix  string        `yaml:"channel_prefix"`
	DebounceWindow time.Duration `yaml:"debounce_window"`
}

// MQTTConfig defines MQTT broker settings.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Port     int    `yaml:"port"`
	ClientID string `yaml:"client_id"`
}

// KafkaConfig defines Kafka broker settings.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	GroupID string   `yaml:"group_id"`
}

// WebConfig defines the dashboard API server.
type WebConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	SessionSecret string `yaml:"session_secret"`
}

// ReconcileConfig controls the background safety-net refresh.
type ReconcileConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// Defaults returns a Config with sane defaults.
func Defaults() *Config {
	return &Config{
		Provider: ProviderConfig{
			ID: "provider-1",
		},
		Backend: BackendConfig{
			BaseURL: "http://localhost:9000",
			Timeout: 10 * time.Second,
		},
		Cache: CacheConfig{
			Driver: "sqlite",
			SQLite: SQLiteConfig{Path: "partsdesk.db"},
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "partsdesk",
				User:     "partsdesk",
				SSLMode:  "disable",
			},
		},
		Redis: RedisConfig{
			Address: "localhost:6379",
		},
		Messaging: MessagingConfig{
			Backend: "mqtt",
			MQTT: MQTTConfig{
				Broker: "localhost",
				Port:   1883,
			},
			Kafka: KafkaConfig{
				Brokers: []string{"localhost:9092"},
			},
			ChannelPrefix:  "",
			DebounceWindow: time.Second,
		},
		Web: WebConfig{
			Host:          "0.0.0.0",
			Port:          8084,
			SessionSecret: "change-me-in-production",
		},
		Reconcile: ReconcileConfig{
			Interval: 5 * time.Minute,
		},
	}
}

// Load reads a YAML config file. If the file doesn't exist, defaults are used.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to a YAML file.
func (c *Config) Save(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ClientID returns the messaging client ID, derived from the provider
// ID when not configured explicitly.
func (c *Config) ClientID() string {
	if c.Messaging.MQTT.ClientID != "" {
		return c.Messaging.MQTT.ClientID
	}
	return "partsdesk-" + c.Provider.ID
}

// Lock acquires the config mutex for multi-step mutations.
func (c *Config) Lock() { c.mu.Lock() }

// Unlock releases the config mutex.
func (c *Config) Unlock() { c.mu.Unlock() }
