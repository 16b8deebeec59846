package sdk

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML configs can use "45s" / "200ms"
// notation.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// FileConfig is the YAML shape consumed by CLI and daemon users of the SDK.
type FileConfig struct {
	BaseURL       string   `yaml:"base_url"`
	ProjectID     string   `yaml:"project_id"`
	APIKey        string   `yaml:"api_key"`
	SessionSecret string   `yaml:"session_secret"`
	UserAgent     string   `yaml:"user_agent"`
	PollInterval  Duration `yaml:"poll_interval"`
	Retry         struct {
		MaxAttempts int      `yaml:"max_attempts"`
		BaseBackoff Duration `yaml:"base_backoff"`
		MaxBackoff  Duration `yaml:"max_backoff"`
	} `yaml:"retry"`
}

// LoadConfig reads a YAML config file into a Config ready for NewClient.
// The poll interval is returned alongside because it belongs to the session
// poller, not the HTTP client.
func LoadConfig(path string) (Config, time.Duration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, 0, fmt.Errorf("sdk: read config: %w", err)
	}
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, 0, fmt.Errorf("sdk: parse config: %w", err)
	}
	cfg := Config{
		BaseURL:       fc.BaseURL,
		ProjectID:     fc.ProjectID,
		APIKey:        fc.APIKey,
		SessionSecret: fc.SessionSecret,
		UserAgent:     fc.UserAgent,
		Retry: RetryConfig{
			MaxAttempts: fc.Retry.MaxAttempts,
			BaseBackoff: time.Duration(fc.Retry.BaseBackoff),
			MaxBackoff:  time.Duration(fc.Retry.MaxBackoff),
		},
	}
	return cfg, time.Duration(fc.PollInterval), nil
}
