// Package config provides configuration loading and management for daoforge.
//
// Configuration is loaded using Viper, supporting YAML config files and
// environment variable overrides. The defaults work out of the box against
// a standard hardhat/docker toolchain; operators can repoint any stage's
// command template without rebuilding.
//
// Key types:
//   - [Config] is the root configuration container
//   - [OperationConfig] holds one stage's external command template
//   - [Loader] handles Viper-based loading
//
// Configuration priority (highest to lowest):
//  1. Environment variables (DAOFORGE_ prefix)
//  2. Config file specified by DAOFORGE_CONFIG_PATH
//  3. ./daoforge.yaml in the project directory
//  4. [DefaultConfig] defaults
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the root configuration structure.
type Config struct {
	// ProjectDir is the directory holding the deployment record and
	// journal. Defaults to the current directory.
	ProjectDir string `mapstructure:"project_dir"`

	// RecordPath is an explicit deployment record location. Empty means
	// deployment.yaml under ProjectDir. The DAOFORGE_RECORD_PATH
	// environment variable overrides both.
	RecordPath string `mapstructure:"record_path"`

	// OwnerAddress is the chain address that will control the deployment.
	// Required by `daoforge init`.
	OwnerAddress string `mapstructure:"owner_address"`

	// Credentials are third-party API keys handed to the record at
	// creation time. They are stored and forwarded, never interpreted.
	Credentials map[string]string `mapstructure:"credentials"`

	// OperationTimeout bounds a single external operation. Contract
	// deployments and container builds routinely run for minutes.
	OperationTimeout time.Duration `mapstructure:"operation_timeout"`

	// Operations maps stage ids to their external command configuration.
	Operations map[string]OperationConfig `mapstructure:"operations"`
}

// OperationConfig configures the external command for one stage.
type OperationConfig struct {
	// Command is a Go template for the shell command to run. Record fields
	// the stage requires are available by path, e.g.
	// {{.contractAddresses.proxy}} or {{.onChainId}}.
	Command string `mapstructure:"command"`
}

// DefaultConfig returns a new [Config] with sensible defaults.
//
// The default commands assume a hardhat contract workspace and a local
// docker daemon; each stage's parser expects the line formats those
// standard scripts print.
func DefaultConfig() *Config {
	return &Config{
		ProjectDir:       ".",
		OperationTimeout: 15 * time.Minute,
		Operations: map[string]OperationConfig{
			"deployContracts": {
				Command: "npx hardhat deploy --network moksha --tags DLPDeploy",
			},
			"register": {
				Command: "npx hardhat run scripts/register.ts --network moksha --dlp {{.contractAddresses.proxy}}",
			},
			"deployProof": {
				Command: "./scripts/deploy-proof.sh {{.onChainId}}",
			},
			"deployRefiner": {
				Command: "./scripts/deploy-refiner.sh",
			},
			"testAll": {
				Command: "./scripts/e2e-test.sh {{.onChainId}}",
			},
		},
	}
}

// Loader handles configuration loading using Viper.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new [Loader] with environment variable support
// configured (DAOFORGE_ prefix, dots and dashes mapped to underscores).
func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix("DAOFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// seedDefaults registers every config key with Viper. Env overrides are
// only visible to Unmarshal for keys Viper already knows about, so each
// key gets its default here even when no config file is read.
func (l *Loader) seedDefaults(cfg *Config) {
	l.v.SetDefault("project_dir", cfg.ProjectDir)
	l.v.SetDefault("record_path", cfg.RecordPath)
	l.v.SetDefault("owner_address", cfg.OwnerAddress)
	l.v.SetDefault("operation_timeout", cfg.OperationTimeout)
	l.v.SetDefault("credentials", cfg.Credentials)
	for name, oc := range cfg.Operations {
		l.v.SetDefault("operations."+name+".command", oc.Command)
	}
}

// Load reads configuration from the first available source and merges it
// over the defaults.
//
// Sources, in priority order: DAOFORGE_-prefixed environment variables,
// then the config file named by DAOFORGE_CONFIG_PATH, then daoforge.yaml
// in the project directory. A missing config file is not an error; the
// defaults (plus any env overrides) are returned.
func (l *Loader) Load(projectDir string) (*Config, error) {
	cfg := DefaultConfig()
	if projectDir != "" {
		cfg.ProjectDir = projectDir
	}
	l.seedDefaults(cfg)

	path := os.Getenv("DAOFORGE_CONFIG_PATH")
	if path == "" {
		candidate := filepath.Join(cfg.ProjectDir, "daoforge.yaml")
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}
	if path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, err
		}
	}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile reads configuration from an explicit file path, merging it
// over the defaults. Used by the --config flag. Environment variables
// still take priority over file values.
func (l *Loader) LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	l.seedDefaults(cfg)
	l.v.SetConfigFile(path)
	if err := l.v.ReadInConfig(); err != nil {
		return nil, err
	}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
