package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	Port           string   `mapstructure:"port"`
	DatabaseURL    string   `mapstructure:"database_url"`
	JWTSecret      string   `mapstructure:"jwt_secret"`
	CookieDomain   string   `mapstructure:"cookie_domain"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	Log       Log       `mapstructure:"log"`
	Mail      Mail      `mapstructure:"mail"`
	Kafka     Kafka     `mapstructure:"kafka"`
	Alerts    Alerts    `mapstructure:"alerts"`
	Scheduler Scheduler `mapstructure:"scheduler"`
	Project   Project   `mapstructure:"project"`
}

type Log struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

type Mail struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	// Sender is the outbound address, also the reply_to fallback for
	// email round-trip checks.
	Sender string `mapstructure:"sender"`
}

type Kafka struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type Alerts struct {
	SlackWebhook   string `mapstructure:"slack_webhook"`
	DiscordWebhook string `mapstructure:"discord_webhook"`
}

type Scheduler struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type Project struct {
	// CommunityActivity switches activities to location-based identity.
	CommunityActivity bool `mapstructure:"community_activity"`
	// DRR enables the hazard and HFA priority fields.
	DRR bool `mapstructure:"drr"`
}

// Load reads .env when present, then the EDEN_* environment variables, and
// returns the resulting Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("eden")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it during
// Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "3000")
	v.SetDefault("database_url", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("cookie_domain", "")
	v.SetDefault("allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)

	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.sender", "")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "monitor_alerts")

	v.SetDefault("alerts.slack_webhook", "")
	v.SetDefault("alerts.discord_webhook", "")

	v.SetDefault("scheduler.poll_interval", 30*time.Second)

	v.SetDefault("project.community_activity", false)
	v.SetDefault("project.drr", false)
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var missing []string

	if c.DatabaseURL == "" {
		missing = append(missing, "EDEN_DATABASE_URL")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "EDEN_JWT_SECRET")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configurations: %v", missing)
	}

	return nil
}
