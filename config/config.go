// Package config loads the cakeagent configuration from YAML or JSON with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"gopkg.in/yaml.v3"
)

type Config struct {
	LLM      LLMConfig      `yaml:"llm" json:"llm"`
	Server   ServerConfig   `yaml:"server" json:"server"`
	Session  SessionConfig  `yaml:"session" json:"session"`
	Dialogue DialogueConfig `yaml:"dialogue" json:"dialogue"`
	Temporal TemporalConfig `yaml:"temporal" json:"temporal"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

type LLMConfig struct {
	Provider    string   `yaml:"provider" json:"provider"` // openai, ollama
	APIKey      string   `yaml:"api_key" json:"api_key"`
	Model       string   `yaml:"model" json:"model"`
	BaseURL     string   `yaml:"base_url" json:"base_url"`
	Timeout     string   `yaml:"timeout" json:"timeout"`
	Temperature *float32 `yaml:"temperature,omitempty" json:"temperature,omitempty"`
}

type ServerConfig struct {
	Addr      string `yaml:"addr" json:"addr"`
	StaticDir string `yaml:"static_dir" json:"static_dir"`
}

type SessionConfig struct {
	HistoryLimit  int    `yaml:"history_limit" json:"history_limit"`
	MaxConcurrent int    `yaml:"max_concurrent" json:"max_concurrent"`
	TTL           string `yaml:"ttl" json:"ttl"`
}

type DialogueConfig struct {
	Style    string `yaml:"style" json:"style"`       // template, llm
	Commands string `yaml:"commands" json:"commands"` // keyword, llm, off
	Lang     string `yaml:"lang" json:"lang"`
}

type TemporalConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	HostPort  string `yaml:"host_port" json:"host_port"`
	Namespace string `yaml:"namespace" json:"namespace"`
	TaskQueue string `yaml:"task_queue" json:"task_queue"`
	LeadTime  string `yaml:"lead_time" json:"lead_time"`
}

type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format     string `yaml:"format" json:"format"` // text, json
	File       string `yaml:"file" json:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" json:"max_age_days"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o",
			BaseURL:  "https://api.openai.com/v1",
			Timeout:  "30s",
		},
		Server: ServerConfig{
			Addr: ":3001",
		},
		Session: SessionConfig{
			HistoryLimit:  50,
			MaxConcurrent: 8,
			TTL:           "24h",
		},
		Dialogue: DialogueConfig{
			Style:    "template",
			Commands: "keyword",
			Lang:     "English",
		},
		Temporal: TemporalConfig{
			HostPort:  "localhost:7233",
			Namespace: "default",
			TaskQueue: "cake-order-task-queue",
			LeadTime:  "24h",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  15,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads path as YAML, or as JSON when it ends in .json. A missing file
// yields the defaults. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := decode(path, data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return sonic.Unmarshal(data, cfg)
	}
	return yaml.Unmarshal(data, cfg)
}

func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if provider := os.Getenv("CAKEAGENT_LLM_PROVIDER"); provider != "" {
		c.LLM.Provider = provider
	}
	if model := os.Getenv("CAKEAGENT_LLM_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if url := os.Getenv("CAKEAGENT_LLM_BASE_URL"); url != "" {
		c.LLM.BaseURL = url
	}
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
	if host := os.Getenv("TEMPORAL_HOST"); host != "" {
		c.Temporal.HostPort = host
		c.Temporal.Enabled = true
	}
}

var (
	ValidProviders      = []string{"openai", "ollama"}
	ValidDialogueStyles = []string{"template", "llm"}
	ValidCommandModes   = []string{"keyword", "llm", "off"}
)

func (c *Config) Validate() error {
	if !slices.Contains(ValidProviders, c.LLM.Provider) {
		return fmt.Errorf("invalid LLM provider: %s (valid: %v)", c.LLM.Provider, ValidProviders)
	}
	if c.LLM.Provider == "openai" && c.LLM.APIKey == "" {
		return fmt.Errorf("LLM API key not configured (set OPENAI_API_KEY)")
	}
	if !slices.Contains(ValidDialogueStyles, c.Dialogue.Style) {
		return fmt.Errorf("invalid dialogue style: %s (valid: %v)", c.Dialogue.Style, ValidDialogueStyles)
	}
	if !slices.Contains(ValidCommandModes, c.Dialogue.Commands) {
		return fmt.Errorf("invalid command mode: %s (valid: %v)", c.Dialogue.Commands, ValidCommandModes)
	}
	for name, value := range map[string]string{
		"llm.timeout":        c.LLM.Timeout,
		"session.ttl":        c.Session.TTL,
		"temporal.lead_time": c.Temporal.LeadTime,
	} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, value, err)
		}
	}
	return nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) GetLLMTimeout() time.Duration {
	return parseDuration(c.LLM.Timeout, 30*time.Second)
}

func (c *Config) GetSessionTTL() time.Duration {
	return parseDuration(c.Session.TTL, 24*time.Hour)
}

func (c *Config) GetLeadTime() time.Duration {
	return parseDuration(c.Temporal.LeadTime, 24*time.Hour)
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
