package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server  ServerConfig
	Worker  WorkerConfig
	Sources SourcesConfig
	Region  RegionConfig
	DB      DatabaseConfig
	Kafka   KafkaConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	RateLimitRPS    float64
	ShutdownTimeout time.Duration
}

type WorkerConfig struct {
	Count        int
	BufferSize   int
	BatchWorkers int // goroutines per scenario run; 0 uses GOMAXPROCS
}

type SourcesConfig struct {
	USGSEnabled       bool
	USGSURL           string
	USGSPollInterval  time.Duration
	GDACSEnabled      bool
	GDACSURL          string
	GDACSPollInterval time.Duration
}

// RegionConfig limits which feed events are assessed.
type RegionConfig struct {
	CenterLat      float64
	CenterLon      float64
	RadiusKm       float64
	MinMagnitude   float64
	DefaultDepthKm float64 // for feeds that report no depth
}

type DatabaseConfig struct {
	Path string
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "localhost"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			RateLimitRPS:    getEnvFloat("RATE_LIMIT_RPS", 10),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Worker: WorkerConfig{
			Count:        getEnvInt("WORKER_COUNT", 2),
			BufferSize:   getEnvInt("WORKER_BUFFER_SIZE", 20),
			BatchWorkers: getEnvInt("BATCH_WORKERS", 0),
		},
		Sources: SourcesConfig{
			USGSEnabled:       getEnvBool("USGS_ENABLED", true),
			USGSURL:           getEnv("USGS_URL", "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_hour.geojson"),
			USGSPollInterval:  getEnvDuration("USGS_POLL_INTERVAL", 5*time.Minute),
			GDACSEnabled:      getEnvBool("GDACS_ENABLED", false),
			GDACSURL:          getEnv("GDACS_URL", "https://www.gdacs.org/xml/rss.xml"),
			GDACSPollInterval: getEnvDuration("GDACS_POLL_INTERVAL", 10*time.Minute),
		},
		Region: RegionConfig{
			CenterLat:      getEnvFloat("REGION_CENTER_LAT", 37.65),
			CenterLon:      getEnvFloat("REGION_CENTER_LON", -122.35),
			RadiusKm:       getEnvFloat("REGION_RADIUS_KM", 150),
			MinMagnitude:   getEnvFloat("MIN_MAGNITUDE", 4.0),
			DefaultDepthKm: getEnvFloat("DEFAULT_DEPTH_KM", 10),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/quake-impact.db"),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvBool("KAFKA_ENABLED", false),
			Brokers: getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("KAFKA_TOPIC", "quake-assessments"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit must be positive: %g", c.Server.RateLimitRPS)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Worker.Count < 1 {
		return fmt.Errorf("worker count must be at least 1")
	}
	if c.Worker.BatchWorkers < 0 {
		return fmt.Errorf("batch workers must not be negative")
	}

	if c.Sources.USGSPollInterval < time.Minute {
		return fmt.Errorf("USGS poll interval must be at least 1 minute")
	}
	if c.Sources.GDACSPollInterval < time.Minute {
		return fmt.Errorf("GDACS poll interval must be at least 1 minute")
	}

	if c.Region.CenterLat < -90 || c.Region.CenterLat > 90 || c.Region.CenterLon < -180 || c.Region.CenterLon > 180 {
		return fmt.Errorf("invalid region center: %g,%g", c.Region.CenterLat, c.Region.CenterLon)
	}
	if c.Region.RadiusKm <= 0 {
		return fmt.Errorf("region radius must be positive")
	}
	if c.Region.DefaultDepthKm < 1 || c.Region.DefaultDepthKm > 30 {
		return fmt.Errorf("default depth must be within [1, 30] km: %g", c.Region.DefaultDepthKm)
	}

	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return fmt.Errorf("kafka enabled without brokers or topic")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, s := range strings.Split(val, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
