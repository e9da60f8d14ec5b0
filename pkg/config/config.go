package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ProviderConfig holds the configuration for a single AI provider.
// ApiKey supports ${VAR} expansion so secrets can live in the environment
// (or a .env file) instead of config.yml.
type ProviderConfig struct {
	Name   string `yaml:"name"`
	ApiURL string `yaml:"api_url"`
	ApiKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// ScraperConfig holds general page-fetching settings.
type ScraperConfig struct {
	// Fetcher selects the page fetching strategy: "static" (plain HTTP) or
	// "dynamic" (headless browser for script-rendered pages).
	Fetcher        string `yaml:"fetcher"`
	Headless       bool   `yaml:"headless"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	// TraceFile, when set, receives the raw reduced text of the last
	// successful fetch. Empty disables tracing.
	TraceFile string `yaml:"trace_file"`
	Workers   string `yaml:"workers"`
}

// ExtractorConfig holds the extraction agent settings.
type ExtractorConfig struct {
	PrimaryProvider   string           `yaml:"primary_provider"`
	FallbackProviders []string         `yaml:"fallback_providers"`
	Providers         []ProviderConfig `yaml:"providers"`
	MaxTokens         int              `yaml:"max_tokens"`
	Temperature       float32          `yaml:"temperature"`
}

// Config is the complete structure for the config.yml file.
type Config struct {
	Scraper   ScraperConfig   `yaml:"scraper"`
	Extractor ExtractorConfig `yaml:"extractor"`
	Server    struct {
		Port   string `yaml:"port"`
		ApiKey string `yaml:"api_key"`
	} `yaml:"server"`
	MetricsPort string `yaml:"metrics_port"`
}

// LoadConfig reads config.yml and resolves environment references.
func LoadConfig(filepath string) *Config {
	// A .env file next to the binary is optional.
	_ = godotenv.Load()

	data, err := os.ReadFile(filepath)
	if err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}
	var cfg Config
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		log.Fatalf("Error unmarshalling config YAML: %v", err)
	}

	for i := range cfg.Extractor.Providers {
		cfg.Extractor.Providers[i].ApiKey = os.ExpandEnv(cfg.Extractor.Providers[i].ApiKey)
	}
	if cfg.Extractor.MaxTokens == 0 {
		cfg.Extractor.MaxTokens = 4000
	}
	cfg.MetricsPort = getEnv("METRICS_PORT", defaultString(cfg.MetricsPort, "9090"))

	return &cfg
}

func getEnv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func defaultString(v, d string) string {
	if v != "" {
		return v
	}
	return d
}
