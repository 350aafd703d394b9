package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is the shared configuration bundle handed to every component at
// construction. It is treated as immutable once loaded.
type Settings struct {
	AppName string `yaml:"app_name"`
	Domain  string `yaml:"domain,omitempty"`
	User    string `yaml:"user,omitempty"`
	Region  string `yaml:"region,omitempty"`

	VPCID           string `yaml:"vpc_id"`
	SecurityGroupID string `yaml:"security_group_id,omitempty"`

	EnvironmentTag string `yaml:"environment_tag,omitempty"`
	DisabledTag    string `yaml:"disabled_tag,omitempty"`

	APISubnets    []string `yaml:"api_subnets,omitempty"`
	WorkerSubnets []string `yaml:"worker_subnets,omitempty"`

	Workers []string `yaml:"workers,omitempty"`

	HealthFile string `yaml:"health_file,omitempty"`

	StartupDelaySecs int `yaml:"startup_delay_secs,omitempty"`
	WaitTimeoutSecs  int `yaml:"wait_timeout_secs,omitempty"`
	PollIntervalSecs int `yaml:"poll_interval_secs,omitempty"`

	S3Bucket      string `yaml:"s3_bucket,omitempty"`
	S3Endpoint    string `yaml:"s3_endpoint,omitempty"`
	PublishSecret string `yaml:"publish_secret,omitempty"`

	// Publishing credentials come from the environment, never from the file.
	AccessKeyID     string `yaml:"-"`
	SecretAccessKey string `yaml:"-"`
}

// Default returns the built-in settings used when no config file exists.
func Default() Settings {
	return Settings{
		Domain:           "example.com",
		User:             "deploy",
		Region:           "us-west-1",
		EnvironmentTag:   "ChefEnvironment",
		DisabledTag:      "Disabled",
		HealthFile:       "/var/lib/app/health",
		StartupDelaySecs: 5,
		WaitTimeoutSecs:  60,
		PollIntervalSecs: 5,
		S3Endpoint:       "s3-us-west-1.amazonaws.com",
	}
}

// StartupDelay returns the pause issued after a service start command.
func (s Settings) StartupDelay() time.Duration {
	return time.Duration(s.StartupDelaySecs) * time.Second
}

// WaitTimeout returns the default health-gating deadline.
func (s Settings) WaitTimeout() time.Duration {
	return time.Duration(s.WaitTimeoutSecs) * time.Second
}

// PollInterval returns the delay between successive health polls.
func (s Settings) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalSecs) * time.Second
}

// Dir returns the settings directory path (~/.stratus)
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".stratus"
	}
	return filepath.Join(home, ".stratus")
}

// Path returns the settings file path (~/.stratus/config.yaml)
func Path() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load reads the settings file at path, layered over Default(). A missing
// file yields the defaults.
func Load(path string) (Settings, error) {
	set := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return set, nil
		}
		return set, fmt.Errorf("failed to read settings file: %w", err)
	}

	if err := yaml.Unmarshal(data, &set); err != nil {
		return set, fmt.Errorf("failed to parse settings file: %w", err)
	}

	return set, nil
}

// Save writes the settings file, creating the directory if needed.
func Save(path string, set Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := yaml.Marshal(set)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	return nil
}
