package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Datasets  DatasetsConfig  `mapstructure:"datasets"`
	Render    RenderConfig    `mapstructure:"render"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	CORSOrigins  string `mapstructure:"cors_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
	// Durable is the JetStream consumer name of this instance.
	Durable string `mapstructure:"durable"`
}

type ValkeyConfig struct {
	Addr    string `mapstructure:"addr"`
	Enabled bool   `mapstructure:"enabled"`
	Prefix  string `mapstructure:"prefix"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
	// RefreshInterval is in minutes.
	RefreshInterval int `mapstructure:"refresh_interval"`
}

// Dataset sources.
const (
	SourceFile     = "file"
	SourceHTTP     = "http"
	SourcePostgres = "postgres"
)

type DatasetsConfig struct {
	// Source is one of "file", "http" or "postgres".
	Source string `mapstructure:"source"`
	// Base is a directory for "file" and a base URL for "http".
	Base string `mapstructure:"base"`
	// RemoteBase is where the refresh workflow downloads datasets from.
	RemoteBase string `mapstructure:"remote_base"`
	CacheSize  int    `mapstructure:"cache_size"`
	CacheTTL   int    `mapstructure:"cache_ttl"`
	Boundary   string `mapstructure:"boundary"`
	TramLines  string `mapstructure:"tram_lines"`
	BusLines   string `mapstructure:"bus_lines"`
	Termini    string `mapstructure:"termini"`
}

// Names lists every configured dataset name, boundary first.
func (d DatasetsConfig) Names() []string {
	return []string{d.Boundary, d.TramLines, d.BusLines, d.Termini}
}

type RenderConfig struct {
	PlatformStopsOnly bool    `mapstructure:"platform_stops_only"`
	CacheTTL          int     `mapstructure:"cache_ttl"`
	CenterLat         float64 `mapstructure:"center_lat"`
	CenterLon         float64 `mapstructure:"center_lon"`
	DefaultZoom       int     `mapstructure:"default_zoom"`
	TileURL           string  `mapstructure:"tile_url"`
	TileAttribution   string  `mapstructure:"tile_attribution"`
	MaxZoom           int     `mapstructure:"max_zoom"`
	ViewportWidth     int     `mapstructure:"viewport_width"`
	ViewportHeight    int     `mapstructure:"viewport_height"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()
	setDefaults(v, service)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: DISTRICTMAP_DATABASE_HOST → database.host
	v.SetEnvPrefix("DISTRICTMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.cors_origins", "http://localhost:3000, http://localhost:5173")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "districtmap")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "districtmap")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.enabled", true)
	v.SetDefault("nats.durable", service)
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.enabled", true)
	v.SetDefault("valkey.prefix", "districtmap:")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "districtmap-refresh")
	v.SetDefault("temporal.refresh_interval", 60)
	v.SetDefault("datasets.source", SourceFile)
	v.SetDefault("datasets.base", "data")
	v.SetDefault("datasets.remote_base", "")
	v.SetDefault("datasets.cache_size", 32)
	v.SetDefault("datasets.cache_ttl", 300)
	v.SetDefault("datasets.boundary", "bemowo.geojson")
	v.SetDefault("datasets.tram_lines", "tram_lines.geojson")
	v.SetDefault("datasets.bus_lines", "bus_lines.geojson")
	v.SetDefault("datasets.termini", "petle.geojson")
	v.SetDefault("render.platform_stops_only", true)
	v.SetDefault("render.cache_ttl", 300)
	v.SetDefault("render.center_lat", 52.25)
	v.SetDefault("render.center_lon", 20.92)
	v.SetDefault("render.default_zoom", 13)
	v.SetDefault("render.tile_url", "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png")
	v.SetDefault("render.tile_attribution", "&copy; OpenStreetMap contributors")
	v.SetDefault("render.max_zoom", 19)
	v.SetDefault("render.viewport_width", 1024)
	v.SetDefault("render.viewport_height", 768)
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required when nats is enabled")
	}
	if c.Valkey.Enabled && c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required when valkey is enabled")
	}

	switch c.Datasets.Source {
	case SourceFile, SourceHTTP:
		if c.Datasets.Base == "" {
			errs = append(errs, fmt.Sprintf("datasets.base is required for source %q", c.Datasets.Source))
		}
	case SourcePostgres:
	default:
		errs = append(errs, fmt.Sprintf("datasets.source must be file, http or postgres, got %q", c.Datasets.Source))
	}
	for _, ds := range []struct{ key, name string }{
		{"datasets.boundary", c.Datasets.Boundary},
		{"datasets.tram_lines", c.Datasets.TramLines},
		{"datasets.bus_lines", c.Datasets.BusLines},
		{"datasets.termini", c.Datasets.Termini},
	} {
		if ds.name == "" {
			errs = append(errs, ds.key+" is required")
		}
	}

	if c.Render.MaxZoom < 0 || c.Render.MaxZoom > 22 {
		errs = append(errs, fmt.Sprintf("render.max_zoom must be 0-22, got %d", c.Render.MaxZoom))
	}
	if c.Render.DefaultZoom < 0 || c.Render.DefaultZoom > c.Render.MaxZoom {
		errs = append(errs, fmt.Sprintf("render.default_zoom must be 0-%d, got %d", c.Render.MaxZoom, c.Render.DefaultZoom))
	}
	if c.Render.CenterLat < -90 || c.Render.CenterLat > 90 {
		errs = append(errs, "render.center_lat must be -90..90")
	}
	if c.Render.CenterLon < -180 || c.Render.CenterLon > 180 {
		errs = append(errs, "render.center_lon must be -180..180")
	}
	if c.Render.ViewportWidth <= 0 || c.Render.ViewportHeight <= 0 {
		errs = append(errs, "render.viewport_width and render.viewport_height must be positive")
	}
	if c.Render.TileURL == "" {
		errs = append(errs, "render.tile_url is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
