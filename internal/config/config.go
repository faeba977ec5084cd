package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	AI struct {
		Provider         string `yaml:"provider"` // ollama | openai
		Host             string `yaml:"host"`
		APIKey           string `yaml:"apiKey"`
		DetectionModel   string `yaml:"detectionModel"`
		ExplanationModel string `yaml:"explanationModel"`
		RequestTimeoutS  int    `yaml:"requestTimeoutSeconds"`
		// cross-analysis in-flight caps, one per model service
		DetectionInflight   int `yaml:"detectionInflight"`
		ExplanationInflight int `yaml:"explanationInflight"`
	} `yaml:"ai"`

	Analysis struct {
		TotalTimeoutS int `yaml:"totalTimeoutSeconds"`
		ExplainFanout int `yaml:"explainFanout"`
		MaxCodeSizeKB int `yaml:"maxCodeSizeKB"`
	} `yaml:"analysis"`

	Minio struct {
		Enabled    bool   `yaml:"enabled"`
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	RateLimit struct {
		PerMinute int `yaml:"perMinute"`
	} `yaml:"rateLimit"`
}

// Load baca file config.yaml; .env entries overlay secrets afterwards.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // optional, missing .env is fine

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("AI_API_KEY"); v != "" {
		c.AI.APIKey = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		c.AI.Host = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		c.Minio.SecretKey = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.AI.Provider == "" {
		c.AI.Provider = "ollama"
	}
	if c.AI.Host == "" {
		c.AI.Host = "http://localhost:11434"
	}
	if c.AI.DetectionModel == "" {
		c.AI.DetectionModel = "deepseek-coder-v2:latest"
	}
	if c.AI.ExplanationModel == "" {
		c.AI.ExplanationModel = "llama3.1:8b"
	}
	if c.AI.RequestTimeoutS == 0 {
		c.AI.RequestTimeoutS = 300
	}
	if c.AI.DetectionInflight == 0 {
		c.AI.DetectionInflight = 2
	}
	if c.AI.ExplanationInflight == 0 {
		c.AI.ExplanationInflight = 4
	}
	if c.Analysis.TotalTimeoutS == 0 {
		c.Analysis.TotalTimeoutS = 600
	}
	if c.Analysis.ExplainFanout == 0 {
		c.Analysis.ExplainFanout = 3
	}
	if c.Analysis.MaxCodeSizeKB == 0 {
		c.Analysis.MaxCodeSizeKB = 500
	}
	if c.RateLimit.PerMinute == 0 {
		c.RateLimit.PerMinute = 10
	}
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres
func (c *Config) PostgresDSN() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		sslMode,
	)
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.AI.RequestTimeoutS) * time.Second
}

func (c *Config) TotalTimeout() time.Duration {
	return time.Duration(c.Analysis.TotalTimeoutS) * time.Second
}

func (c *Config) MaxCodeBytes() int {
	return c.Analysis.MaxCodeSizeKB * 1024
}
