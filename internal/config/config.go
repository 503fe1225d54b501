// Package config loads the ema-talk configuration from defaults, a yaml
// file and EMA_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	AudioOutputMiniaudio = "miniaudio"
	AudioOutputPortaudio = "portaudio"
	AudioOutputNone      = "none"
)

type Config struct {
	Backend  BackendConfig  `mapstructure:"backend"`
	Voice    VoiceConfig    `mapstructure:"voice"`
	Audio    AudioConfig    `mapstructure:"audio"`
	Deepgram DeepgramConfig `mapstructure:"deepgram"`
	Widget   WidgetConfig   `mapstructure:"widget"`
}

type BackendConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type VoiceConfig struct {
	Locale     string `mapstructure:"locale"`
	VendorHint string `mapstructure:"vendor_hint"`
	// Engine is "auto", "say", "espeak" or "none".
	Engine string `mapstructure:"engine"`
}

type AudioConfig struct {
	Output          string `mapstructure:"output"`
	MinPayloadBytes int    `mapstructure:"min_payload_bytes"`
}

// DeepgramConfig enables the Deepgram audio resolver for replies that come
// back without audio.
type DeepgramConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Model   string `mapstructure:"model"`
	APIKey  string `mapstructure:"api_key"`
}

type WidgetConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.url", "https://www.profiausbau.com/api/chat.php")
	v.SetDefault("backend.timeout", 30*time.Second)
	v.SetDefault("voice.locale", "de-DE")
	v.SetDefault("voice.vendor_hint", "Google")
	v.SetDefault("voice.engine", "auto")
	v.SetDefault("audio.output", AudioOutputMiniaudio)
	v.SetDefault("audio.min_payload_bytes", 1024)
	v.SetDefault("deepgram.enabled", false)
	v.SetDefault("deepgram.model", "aura-2-viktoria-de")
	v.SetDefault("deepgram.api_key", "")
	v.SetDefault("widget.addr", "127.0.0.1:8787")
	v.SetDefault("widget.allowed_origins", []string{})
}

// Load reads the configuration. An explicit configPath must exist; without
// one, config.yaml is looked up in the working directory and in
// $HOME/.config/ema-talk, and a missing file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("EMA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// deepgram's own variable name is honoured as well
	_ = v.BindEnv("deepgram.api_key", "EMA_DEEPGRAM_API_KEY", "DEEPGRAM_API_KEY")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/ema-talk")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.Backend.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("backend.url %q is not an absolute url", c.Backend.URL))
	}
	if c.Backend.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("backend.timeout must be positive"))
	}
	switch c.Audio.Output {
	case AudioOutputMiniaudio, AudioOutputPortaudio, AudioOutputNone:
	default:
		errs = append(errs, fmt.Errorf("audio.output %q is not one of miniaudio, portaudio, none", c.Audio.Output))
	}
	if c.Audio.MinPayloadBytes < 0 {
		errs = append(errs, fmt.Errorf("audio.min_payload_bytes must not be negative"))
	}
	switch strings.ToLower(c.Voice.Engine) {
	case "", "auto", "say", "espeak", "espeak-ng", "none":
	default:
		errs = append(errs, fmt.Errorf("voice.engine %q is not one of auto, say, espeak, none", c.Voice.Engine))
	}
	if c.Deepgram.Enabled && c.Deepgram.APIKey == "" {
		errs = append(errs, fmt.Errorf("deepgram.api_key is required when deepgram is enabled"))
	}

	return errors.Join(errs...)
}
