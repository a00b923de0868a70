package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Console ConsoleConfig `yaml:"console"`
	Monitor MonitorConfig `yaml:"monitor"`
	Stats   StatsConfig   `yaml:"stats"`
	Catalog CatalogConfig `yaml:"catalog"`
	Server  ServerConfig  `yaml:"server"`
}

// ConsoleConfig locates the console on the network.
type ConsoleConfig struct {
	Host      string `yaml:"host"`
	KlogPort  int    `yaml:"klog_port"`
	StatsPort int    `yaml:"stats_port"`
}

type MonitorConfig struct {
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	IdleAfter      time.Duration `yaml:"idle_after"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
}

type StatsConfig struct {
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
	// HostTelemetry adds CPU/memory/load readings for the machine
	// running the engine.
	HostTelemetry bool `yaml:"host_telemetry"`
}

type CatalogConfig struct {
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	CachePath    string        `yaml:"cache_path"`
	PS4BaseURL   string        `yaml:"ps4_base_url"`
	PS5BaseURL   string        `yaml:"ps5_base_url"`
}

type ServerConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	MaxClients     int      `yaml:"max_clients"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	AuthToken      string   `yaml:"auth_token"`
}

func defaultConfig() *Config {
	return &Config{
		Console: ConsoleConfig{
			KlogPort:  9081,
			StatsPort: 1214,
		},
		Monitor: MonitorConfig{
			ReadTimeout:    20 * time.Second,
			IdleAfter:      120 * time.Second,
			ReconnectDelay: 10 * time.Second,
		},
		Stats: StatsConfig{
			Interval: 10 * time.Second,
			Timeout:  5 * time.Second,
		},
		Catalog: CatalogConfig{
			FetchTimeout: 10 * time.Second,
		},
		Server: ServerConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8080,
		},
	}
}

// Load reads the YAML file at path on top of the defaults. An empty
// path returns the defaults untouched.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// KlogAddr returns the dial address for the console's log stream.
func (c *Config) KlogAddr() string {
	return fmt.Sprintf("%s:%d", c.Console.Host, c.Console.KlogPort)
}

// StatsURL returns the URL of the console's stats page.
func (c *Config) StatsURL() string {
	return fmt.Sprintf("http://%s:%d/", c.Console.Host, c.Console.StatsPort)
}
