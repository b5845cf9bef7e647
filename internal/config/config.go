package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Agents    AgentsConfig    `yaml:"agents"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	Workflow  WorkflowConfig  `yaml:"workflow"`
	NATS      NATSConfig      `yaml:"nats"`
	Store     StoreConfig     `yaml:"store"`
	Web       WebConfig       `yaml:"web"`
	Reminder  ReminderConfig  `yaml:"reminder"`
	Vault     VaultConfig     `yaml:"vault"`
}

type AgentsConfig struct {
	Dir          string `yaml:"dir"`
	DefaultModel string `yaml:"default_model"`
}

type WorkspaceConfig struct {
	Root string `yaml:"root"`
}

type WorkflowConfig struct {
	Phases []string `yaml:"phases"`
}

type NATSConfig struct {
	Port int `yaml:"port"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type WebConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Auth    string `yaml:"auth"`
}

type ReminderConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Schedule string        `yaml:"schedule"`
	After    time.Duration `yaml:"after"`
}

type VaultConfig struct {
	Passphrase string `yaml:"passphrase"`
}

func defaults() Config {
	return Config{
		Agents: AgentsConfig{
			Dir:          "agents",
			DefaultModel: "gpt-4.1",
		},
		Workspace: WorkspaceConfig{
			Root: ".",
		},
		Workflow: WorkflowConfig{
			Phases: []string{
				"architecture",
				"data-architecture",
				"infrastructure",
				"test-design",
				"implementation",
			},
		},
		NATS: NATSConfig{
			Port: 4222,
		},
		Store: StoreConfig{
			Path: "data/factoryd.db",
		},
		Web: WebConfig{
			Enabled: true,
			Port:    8080,
		},
		Reminder: ReminderConfig{
			Enabled:  true,
			Schedule: "*/15 * * * *",
			After:    time.Hour,
		},
	}
}

func Load() (*Config, error) {
	cfg := defaults()

	path := os.Getenv("FACTORY_CONFIG")
	if path == "" {
		path = "config/factoryd.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file not found, use defaults + env
	} else {
		// Expand environment variables in YAML
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	applyEnv(&cfg)

	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("FACTORY_AGENTS_DIR"); v != "" {
		cfg.Agents.Dir = v
	}
	if v := os.Getenv("FACTORY_WORKSPACE_ROOT"); v != "" {
		cfg.Workspace.Root = v
	}
	if v := os.Getenv("FACTORY_WEB_PASSWORD"); v != "" {
		cfg.Web.Auth = v
	}
	if v := os.Getenv("FACTORY_WEB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Web.Port = port
		}
	}
	if v := os.Getenv("FACTORY_NATS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.NATS.Port = port
		}
	}
	if v := os.Getenv("FACTORY_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("FACTORY_VAULT_PASSPHRASE"); v != "" {
		cfg.Vault.Passphrase = v
	}
}
