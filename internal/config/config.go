package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported device platforms.
const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
	PlatformMock    = "mock"
)

// Supported trigger types.
const (
	TriggerTimer = "timer"
	TriggerGPIO  = "gpio"
)

// DefaultMaxNameAttempts bounds the "name-N.ext" probing when looking for a free file name.
const DefaultMaxNameAttempts = 1 << 16

// DeviceConfig selects the device and how to reach it.
type DeviceConfig struct {
	Platform string `yaml:"platform"` // "ios", "android" or "mock"
	UDID     string `yaml:"udid"`     // empty = first device found
	Network  bool   `yaml:"network"`  // prefer network transport over USB
}

// CaptureConfig describes what to capture and where to write it.
type CaptureConfig struct {
	Output          string `yaml:"output"`            // file name, prefix or %d template
	Rate            int    `yaml:"rate"`              // frames per second, 0 = one-shot
	Join            bool   `yaml:"join"`              // concatenate frames into one file
	MaxNameAttempts int    `yaml:"max_name_attempts"` // free-name probing bound
}

// TriggerConfig selects what drives periodic captures.
type TriggerConfig struct {
	Type     string `yaml:"type"`      // "timer" (default) or "gpio"
	GPIOPin  int    `yaml:"gpio_pin"`  // BCM pin of the push button (active LOW)
	PollMs   int    `yaml:"poll_ms"`   // button polling interval
	MockGPIO bool   `yaml:"mock_gpio"` // use mock GPIO (true=dev/test, false=real Raspberry Pi)
}

// WebConfig configures the optional live preview server.
type WebConfig struct {
	Port int `yaml:"port"` // 0 = disabled
}

// MQTTConfig configures frame notifications.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`    // host:port, empty = disabled
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"` // empty = derived from the run ID
}

// NotifyConfig groups frame notification sinks.
type NotifyConfig struct {
	MQTT MQTTConfig `yaml:"mqtt"`
}

// DefaultsConfig contains generic parameters.
type DefaultsConfig struct {
	DebugLevel int `yaml:"debug_level"` // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
}

// Config aggregates all application configuration.
type Config struct {
	Device   DeviceConfig   `yaml:"device"`
	Capture  CaptureConfig  `yaml:"capture"`
	Trigger  TriggerConfig  `yaml:"trigger"`
	Web      WebConfig      `yaml:"web"`
	Notify   NotifyConfig   `yaml:"notify"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			Platform: PlatformIOS,
		},
		Capture: CaptureConfig{
			MaxNameAttempts: DefaultMaxNameAttempts,
		},
		Trigger: TriggerConfig{
			Type:   TriggerTimer,
			PollMs: 20,
		},
		Notify: NotifyConfig{
			MQTT: MQTTConfig{Topic: "screengo/frames"},
		},
	}
}

// Load reads a YAML file over the defaults and returns the configuration.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and fills in defaults for zero values.
func (c *Config) Validate() error {
	switch c.Device.Platform {
	case "":
		c.Device.Platform = PlatformIOS
	case PlatformIOS, PlatformAndroid, PlatformMock:
	default:
		return fmt.Errorf("unsupported device platform: %s", c.Device.Platform)
	}

	if c.Capture.Rate < 0 {
		return fmt.Errorf("capture.rate must be >= 0, got %d", c.Capture.Rate)
	}
	if c.Capture.MaxNameAttempts < 0 {
		return fmt.Errorf("capture.max_name_attempts must be > 0, got %d", c.Capture.MaxNameAttempts)
	}
	if c.Capture.MaxNameAttempts == 0 {
		c.Capture.MaxNameAttempts = DefaultMaxNameAttempts
	}

	switch c.Trigger.Type {
	case "":
		c.Trigger.Type = TriggerTimer
	case TriggerTimer:
	case TriggerGPIO:
		if c.Trigger.GPIOPin <= 0 {
			return fmt.Errorf("trigger.gpio_pin is required for the gpio trigger")
		}
	default:
		return fmt.Errorf("unsupported trigger type: %s", c.Trigger.Type)
	}
	if c.Trigger.PollMs <= 0 {
		c.Trigger.PollMs = 20
	}

	if c.Web.Port < 0 || c.Web.Port > 65535 {
		return fmt.Errorf("web.port must be 0-65535, got %d", c.Web.Port)
	}

	if c.Notify.MQTT.Topic == "" {
		c.Notify.MQTT.Topic = "screengo/frames"
	}

	if c.Defaults.DebugLevel < 0 || c.Defaults.DebugLevel > 4 {
		return fmt.Errorf("debug_level must be between 0 and 4, got %d", c.Defaults.DebugLevel)
	}
	return nil
}

// Periodic reports whether captures repeat until cancelled.
func (c *Config) Periodic() bool {
	return c.Capture.Rate > 0 || c.Trigger.Type == TriggerGPIO
}

// Interval returns the delay between two timer-driven captures.
func (c *Config) Interval() time.Duration {
	if c.Capture.Rate <= 0 {
		return 0
	}
	return time.Second / time.Duration(c.Capture.Rate)
}

// PollInterval returns the GPIO button polling interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Trigger.PollMs) * time.Millisecond
}
