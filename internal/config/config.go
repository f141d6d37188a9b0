package config

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"` // minutes
	} `yaml:"jwt"`

	Email struct {
		SMTPHost         string `yaml:"smtp_host"`
		SMTPPort         int    `yaml:"smtp_port"`
		SMTPUser         string `yaml:"smtp_user"`
		SMTPPassword     string `yaml:"smtp_password"`
		FromEmail        string `yaml:"from_email"`
		FromName         string `yaml:"from_name"`
		SubjectPrefix    string `yaml:"subject_prefix"`
		NewsletterPrefix string `yaml:"newsletter_prefix"`
	} `yaml:"email"`

	// Site metadata rendered into email bodies. Injected into the
	// dispatcher at construction, never read from global state.
	Site struct {
		Name string `yaml:"name"`
		URL  string `yaml:"url"`
	} `yaml:"site"`

	MailWorker struct {
		QueueSize int `yaml:"queue_size"`
		PoolSize  int `yaml:"pool_size"`
	} `yaml:"mail_worker"`

	FirstAdminEmail    string `yaml:"first_admin_email"`
	FirstAdminPassword string `yaml:"first_admin_password"`
}

var AppConfig *Config

// LoadConfig reads config/config.yaml, or builds the config from
// environment variables when DATABASE_URL is set (test mode).
func LoadConfig() {
	var cfg Config

	dbURL := os.Getenv("DATABASE_URL")

	if dbURL == "" {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Failed to open config file at %s: %v", configPath, err)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}

		applyDefaults(&cfg)
		AppConfig = &cfg
		return
	}

	cfg.Database.DSN = dbURL
	cfg.Server.Env = os.Getenv("SERVER_ENV")
	cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	cfg.JWT.TTL = 60

	cfg.Email.SMTPHost = "smtp.test.local"
	cfg.Email.SMTPPort = 587
	cfg.Email.FromEmail = "noreply@mmoboard.test"
	cfg.Email.FromName = "MMORPG Board"

	applyDefaults(&cfg)
	AppConfig = &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Site.Name == "" {
		cfg.Site.Name = "MMORPG Board"
	}
	if cfg.Site.URL == "" {
		cfg.Site.URL = "http://localhost:8000"
	}
	if cfg.Email.SubjectPrefix == "" {
		cfg.Email.SubjectPrefix = "[MMORPG Board]"
	}
	if cfg.Email.NewsletterPrefix == "" {
		cfg.Email.NewsletterPrefix = "[MMORPG Board Newsletter]"
	}
	if cfg.MailWorker.QueueSize == 0 {
		cfg.MailWorker.QueueSize = 256
	}
	if cfg.MailWorker.PoolSize == 0 {
		cfg.MailWorker.PoolSize = 4
	}
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}
