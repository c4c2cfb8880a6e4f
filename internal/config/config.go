package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type Config struct {
	Logger       Logger  `yaml:"logger"`
	Storage      Storage `yaml:"storage"`
	Auth         Auth    `yaml:"auth"`
	Listen       string  `yaml:"listen"`
	Admin        Admin   `yaml:"admin"`
	CORS         CORS    `yaml:"cors"`
	ProblemsRoot string  `yaml:"problems_root"`
	Judge        Judge   `yaml:"judge"`
	Arena        Arena   `yaml:"arena"`
}

type Logger struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Storage selects the gorm dialect. Driver is "sqlite" (default) or "postgres".
type Storage struct {
	Driver   string `yaml:"driver"`
	Database string `yaml:"database"`
}

type Auth struct {
	JWT JWT `yaml:"jwt"`
}

type JWT struct {
	Secret      string `yaml:"secret"`
	ExpireHours int    `yaml:"expire_hours"`
}

type Admin struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

type DockerConfig struct {
	Host      string `yaml:"host"`
	TLSVerify bool   `yaml:"tls_verify"`
	CACert    string `yaml:"ca_cert"`
	Cert      string `yaml:"cert"`
	Key       string `yaml:"key"`
}

// Language describes how the judge builds and runs one submission language.
// Compile may be empty for interpreted languages.
type Language struct {
	ID         string   `yaml:"id" json:"id"`
	Name       string   `yaml:"name" json:"name"`
	Image      string   `yaml:"image" json:"image"`
	SourceFile string   `yaml:"source_file" json:"source_file"`
	Compile    []string `yaml:"compile" json:"compile"`
	Run        string   `yaml:"run" json:"run"`
}

type Judge struct {
	Docker         DockerConfig `yaml:"docker"`
	CPU            int          `yaml:"cpu"`
	Memory         int64        `yaml:"memory"`
	CompileTimeout int          `yaml:"compile_timeout"`
	Languages      []Language   `yaml:"languages"`
}

type Arena struct {
	SchedulerInterval time.Duration `yaml:"scheduler_interval"`
	WriteRetries      int           `yaml:"write_retries"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, err
	}

	// .env is optional; secrets usually come from there in deployments.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	cfg.applyEnv()
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ARENA_JWT_SECRET"); v != "" {
		c.Auth.JWT.Secret = v
	}
	if v := os.Getenv("ARENA_DATABASE_DSN"); v != "" {
		c.Storage.Database = v
	}
	if v := os.Getenv("ARENA_DATABASE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "sqlite"
	}
	if c.Storage.Database == "" {
		c.Storage.Database = "data/arena.db"
	}
	if c.Arena.SchedulerInterval <= 0 {
		c.Arena.SchedulerInterval = 15 * time.Second
	}
	if c.Arena.WriteRetries <= 0 {
		c.Arena.WriteRetries = 5
	}
	if c.Judge.CPU <= 0 {
		c.Judge.CPU = 1
	}
	if c.Judge.Memory <= 0 {
		c.Judge.Memory = 256
	}
	if c.Judge.CompileTimeout <= 0 {
		c.Judge.CompileTimeout = 30
	}
}
