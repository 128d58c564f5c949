package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/CTAG07/Stache/pkg/templating"
	"github.com/natefinch/atomic"
)

// ServerConfig holds the configuration for the HTTP servers.
type ServerConfig struct {
	ServerAddr    string            `json:"server_addr"`
	ApiAddr       string            `json:"api_addr"`
	LogLevel      string            `json:"log_level"`
	DataDir       string            `json:"data_dir"`
	DatabasePath  string            `json:"database_path"`
	IndexTemplate string            `json:"index_template"`
	NotFound      string            `json:"not_found_template"`
	MaxBodyBytes  int64             `json:"max_body_bytes"`
	PageHeaders   map[string]string `json:"page_headers"`
}

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	Server    *ServerConfig              `json:"server_config"`
	Templates *templating.TemplateConfig `json:"template_config"`
}

// DefaultServerConfig creates a server configuration with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ServerAddr:    ":7277",
		ApiAddr:       ":7278",
		LogLevel:      "info",
		DataDir:       "./data",
		DatabasePath:  "./data/stache.db",
		IndexTemplate: "index",
		NotFound:      "404",
		MaxBodyBytes:  1 << 20,
		PageHeaders: map[string]string{
			"Cache-Control":          "no-cache",
			"Content-Type":           "text/html; charset=utf-8",
			"X-Content-Type-Options": "nosniff",
		},
	}
}

func defaultConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		Templates: templating.DefaultConfig(),
	}
}

func (c *Config) validate() error {
	if c.Server == nil || c.Templates == nil {
		return errors.New("server_config and template_config are required")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return errors.New("max_body_bytes must be positive")
	}
	return c.Templates.Validate()
}

// LoadConfig reads the configuration from a JSON file at the given path.
// If the file doesn't exist, it creates one with default values. Sections
// missing from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	config := defaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			var data []byte
			data, err = json.MarshalIndent(config, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				// The server can still run with defaults.
				slog.Warn("Failed to write default config file", "path", path, "error", err)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err = json.Unmarshal(file, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if config.Server == nil {
		config.Server = DefaultServerConfig()
	}
	if config.Templates == nil {
		config.Templates = templating.DefaultConfig()
	}
	if err = config.validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}
	return config, nil
}

// ConfigManager handles thread-safe access to the configuration and pushes
// template settings to the TemplateManager.
type ConfigManager struct {
	config     *Config
	mu         sync.RWMutex
	configPath string
	logger     *slog.Logger
	tm         *templating.TemplateManager
}

// NewConfigManager loads the config and initializes the manager.
func NewConfigManager(path string) (*ConfigManager, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return &ConfigManager{
		config:     cfg,
		configPath: path,
		// Log to stdout before the application-specific logger is set.
		logger: slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{})),
	}, nil
}

// SetTemplateManager registers the template manager to receive config updates.
func (cm *ConfigManager) SetTemplateManager(tm *templating.TemplateManager) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.tm = tm
}

// SetLogger sets the logger.
func (cm *ConfigManager) SetLogger(logger *slog.Logger) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.logger = logger
}

// Get returns a copy of the current configuration. The sections are copied
// too, so callers may modify the result freely.
func (cm *ConfigManager) Get() Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	server := *cm.config.Server
	templates := cm.templatesCopy()
	return Config{Server: &server, Templates: &templates}
}

func (cm *ConfigManager) templatesCopy() templating.TemplateConfig {
	t := *cm.config.Templates
	t.Tags = append([]string(nil), t.Tags...)
	return t
}

// ErrConfigNotSaved is returned by Update when the config file could not be
// written. The running configuration is left unchanged.
var ErrConfigNotSaved = errors.New("configuration not saved")

// Update validates newConfig, applies the template section to the
// TemplateManager and then saves the config to disk. If the template manager
// rejects the new settings or the file cannot be written, nothing is changed.
func (cm *ConfigManager) Update(newConfig Config) error {
	if err := newConfig.validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(&newConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.tm != nil {
		if err = cm.tm.SetConfig(newConfig.Templates); err != nil {
			return fmt.Errorf("template configuration rejected: %w", err)
		}
	}

	if err = atomic.WriteFile(cm.configPath, bytes.NewReader(data)); err != nil {
		if cm.tm != nil {
			if rbErr := cm.tm.SetConfig(cm.config.Templates); rbErr != nil {
				cm.logger.Error("Failed to restore template configuration", "error", rbErr)
			}
		}
		return fmt.Errorf("%w: %w", ErrConfigNotSaved, err)
	}

	cm.config = &newConfig
	cm.logger.Info("Configuration updated and saved", "path", cm.configPath)
	return nil
}
