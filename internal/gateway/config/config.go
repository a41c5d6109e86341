package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port     string `yaml:"port"`
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`

	LLM        LLMConfig        `yaml:"llm"`
	GitHub     GitHubConfig     `yaml:"github"`
	HTTP       HTTPConfig       `yaml:"http"`
	Annotation AnnotationConfig `yaml:"annotation"`
	Artifact   ArtifactConfig   `yaml:"artifact"`
}

type LLMConfig struct {
	Provider      string `yaml:"provider"`
	GeminiAPIKey  string `yaml:"gemini_api_key"`
	GeminiModel   string `yaml:"gemini_model"`
	GroqAPIKey    string `yaml:"groq_api_key"`
	GroqModel     string `yaml:"groq_model"`
	GroqBaseURL   string `yaml:"groq_base_url"`
	MaxCodeLength int    `yaml:"max_code_length"`
}

type GitHubConfig struct {
	APIURL        string        `yaml:"api_url"`
	DefaultBranch string        `yaml:"default_branch"`
	Timeout       time.Duration `yaml:"timeout"`
}

type HTTPConfig struct {
	MaxBodyBytes       int64 `yaml:"max_body_bytes"`
	RateLimitPerMinute int   `yaml:"rate_limit_per_minute"`
}

type AnnotationConfig struct {
	// Store is memory, postgres, sqlite or s3.
	Store       string `yaml:"store"`
	DatabaseURL string `yaml:"database_url"`
	SQLitePath  string `yaml:"sqlite_path"`
}

type ArtifactConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

func (c *Config) IsLocal() bool {
	return strings.EqualFold(c.Env, "local")
}

func (a ArtifactConfig) CanUseS3() bool {
	return a.Endpoint != "" && a.AccessKey != "" && a.SecretKey != "" && a.Bucket != ""
}

// Model returns the model name for the configured provider.
func (l LLMConfig) Model() string {
	if l.Provider == "groq" {
		return l.GroqModel
	}
	return l.GeminiModel
}

// APIKey returns the key for the configured provider.
func (l LLMConfig) APIKey() string {
	if l.Provider == "groq" {
		return l.GroqAPIKey
	}
	return l.GeminiAPIKey
}

func Defaults() Config {
	return Config{
		Port:     ":8081",
		Env:      "local",
		LogLevel: "info",
		LLM: LLMConfig{
			Provider:      "gemini",
			GeminiModel:   "gemini-2.0-flash",
			GroqModel:     "llama-3.3-70b-versatile",
			MaxCodeLength: 20000,
		},
		GitHub: GitHubConfig{
			APIURL:        "https://api.github.com",
			DefaultBranch: "main",
			Timeout:       30 * time.Second,
		},
		HTTP: HTTPConfig{
			MaxBodyBytes:       1 << 20,
			RateLimitPerMinute: 20,
		},
		Annotation: AnnotationConfig{
			Store:      "memory",
			SQLitePath: "codenote.db",
		},
		Artifact: ArtifactConfig{
			Region: "us-east-1",
			Bucket: "codenote-annotations",
			UseSSL: true,
		},
	}
}

// Load reads .env, then the optional YAML file named by CODENOTE_CONFIG, then
// environment variables. Later sources win.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFrom(os.Getenv)
}

// LoadFrom builds a Config with getenv as the environment source.
func LoadFrom(getenv func(string) string) (*Config, error) {
	cfg := Defaults()
	env := func(key string) string { return strings.TrimSpace(getenv(key)) }

	if path := env("CODENOTE_CONFIG"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if p := env("PORT"); p != "" {
		cfg.Port = p
	}
	if !strings.HasPrefix(cfg.Port, ":") && !strings.Contains(cfg.Port, ":") {
		cfg.Port = ":" + cfg.Port
	}
	cfg.Env = firstNonEmpty(env("APP_ENV"), cfg.Env)
	cfg.LogLevel = strings.ToLower(firstNonEmpty(env("LOG_LEVEL"), cfg.LogLevel))

	cfg.LLM.Provider = strings.ToLower(firstNonEmpty(env("LLM_PROVIDER"), cfg.LLM.Provider))
	cfg.LLM.GeminiAPIKey = firstNonEmpty(env("GEMINI_API_KEY"), env("GOOGLE_API_KEY"), cfg.LLM.GeminiAPIKey)
	cfg.LLM.GeminiModel = firstNonEmpty(env("GEMINI_MODEL"), cfg.LLM.GeminiModel)
	cfg.LLM.GroqAPIKey = firstNonEmpty(env("GROQ_API_KEY"), cfg.LLM.GroqAPIKey)
	cfg.LLM.GroqModel = firstNonEmpty(env("GROQ_MODEL"), cfg.LLM.GroqModel)
	cfg.LLM.GroqBaseURL = firstNonEmpty(env("GROQ_BASE_URL"), cfg.LLM.GroqBaseURL)

	var err error
	if cfg.LLM.MaxCodeLength, err = intEnv(env, "LLM_MAX_CODE_LENGTH", cfg.LLM.MaxCodeLength); err != nil {
		return nil, err
	}

	cfg.GitHub.APIURL = firstNonEmpty(env("GITHUB_API_URL"), cfg.GitHub.APIURL)
	cfg.GitHub.DefaultBranch = firstNonEmpty(env("GITHUB_DEFAULT_BRANCH"), cfg.GitHub.DefaultBranch)
	if raw := env("GITHUB_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("GITHUB_TIMEOUT: %w", err)
		}
		cfg.GitHub.Timeout = d
	}

	maxBody, err := intEnv(env, "HTTP_MAX_BODY_BYTES", int(cfg.HTTP.MaxBodyBytes))
	if err != nil {
		return nil, err
	}
	cfg.HTTP.MaxBodyBytes = int64(maxBody)
	if cfg.HTTP.RateLimitPerMinute, err = intEnv(env, "HTTP_RATE_LIMIT_PER_MINUTE", cfg.HTTP.RateLimitPerMinute); err != nil {
		return nil, err
	}

	cfg.Annotation.Store = strings.ToLower(firstNonEmpty(env("ANNOTATION_STORE"), cfg.Annotation.Store))
	cfg.Annotation.DatabaseURL = firstNonEmpty(env("DATABASE_URL"), cfg.Annotation.DatabaseURL)
	cfg.Annotation.SQLitePath = firstNonEmpty(env("SQLITE_PATH"), cfg.Annotation.SQLitePath)

	cfg.Artifact = loadArtifactConfig(env, cfg.Env, cfg.Artifact)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadArtifactConfig(env func(string) string, appEnv string, base ArtifactConfig) ArtifactConfig {
	local := strings.EqualFold(appEnv, "local")
	out := base
	if local {
		out.Endpoint = firstNonEmpty(env("ARTIFACT_MINIO_ENDPOINT"), base.Endpoint, "minio:9000")
	} else {
		out.Endpoint = firstNonEmpty(env("ARTIFACT_S3_ENDPOINT"), base.Endpoint)
	}
	out.Region = firstNonEmpty(env("ARTIFACT_S3_REGION"), base.Region)
	out.AccessKey = firstNonEmpty(env("ARTIFACT_S3_ACCESS_KEY"), env("MINIO_ROOT_USER"), base.AccessKey)
	out.SecretKey = firstNonEmpty(env("ARTIFACT_S3_SECRET_KEY"), env("MINIO_ROOT_PASSWORD"), base.SecretKey)
	out.Bucket = firstNonEmpty(env("ARTIFACT_S3_BUCKET"), base.Bucket)
	if local {
		out.UseSSL = false
	} else if raw := env("ARTIFACT_S3_USE_SSL"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			out.UseSSL = v
		}
	}
	return out
}

func (c *Config) validate() error {
	switch c.LLM.Provider {
	case "gemini", "groq":
	default:
		return fmt.Errorf("LLM_PROVIDER must be gemini or groq, got %q", c.LLM.Provider)
	}
	switch c.Annotation.Store {
	case "memory", "sqlite", "s3":
	case "postgres":
		if c.Annotation.DatabaseURL == "" {
			return fmt.Errorf("ANNOTATION_STORE=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("ANNOTATION_STORE must be memory, postgres, sqlite or s3, got %q", c.Annotation.Store)
	}
	if c.LLM.MaxCodeLength <= 0 {
		return fmt.Errorf("LLM_MAX_CODE_LENGTH must be positive")
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		return fmt.Errorf("HTTP_MAX_BODY_BYTES must be positive")
	}
	return nil
}

func intEnv(env func(string) string, key string, def int) (int, error) {
	raw := env(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
