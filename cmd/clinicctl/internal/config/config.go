package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/clinicdesk/clinic/cmd/clinicctl/internal/auth"
	"github.com/clinicdesk/clinic/cmd/clinicctl/internal/client"
	"github.com/clinicdesk/clinic/pkg/sdk"
	"github.com/clinicdesk/clinic/pkg/sdk/querycache"
)

type contextKey string

const configKey contextKey = "clinicctl-config"

// EnvPrefix is prepended to every environment override, e.g. CLINIC_SERVER_URL.
const EnvPrefix = "CLINIC"

// Settings are the values read from flags, environment and config file,
// in that order of precedence.
type Settings struct {
	ServerURL      string        `mapstructure:"server_url" validate:"required,url"`
	APIPrefix      string        `mapstructure:"api_prefix" validate:"required,startswith=/"`
	Timeout        time.Duration `mapstructure:"timeout" validate:"gt=0"`
	UploadTimeout  time.Duration `mapstructure:"upload_timeout" validate:"gt=0"`
	LogLevel       string        `mapstructure:"log_level" validate:"omitempty,oneof=trace debug info warn error"`
	LogPretty      bool          `mapstructure:"log_pretty"`
	ConfigDir      string        `mapstructure:"config_dir"`
	CacheSize      int           `mapstructure:"cache_size" validate:"gt=0"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl" validate:"gt=0"`
	NonInteractive bool          `mapstructure:"non_interactive"`
}

// GlobalConfig holds shared configuration for all clinicctl commands.
// This is injected into the cobra command context by the root command's
// PersistentPreRunE hook and consumed by all subcommands.
type GlobalConfig struct {
	Settings
	ClientProvider *client.Provider
}

// ClientOptions maps the settings onto provider options.
func (s Settings) ClientOptions() client.Options {
	return client.Options{
		ServerURL:     s.ServerURL,
		APIPrefix:     s.APIPrefix,
		Timeout:       s.Timeout,
		UploadTimeout: s.UploadTimeout,
		ConfigDir:     s.ConfigDir,
		CacheSize:     s.CacheSize,
		CacheTTL:      s.CacheTTL,
	}
}

// SetDefaults registers every key so environment overrides apply to all of them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server_url", "http://localhost:8000")
	v.SetDefault("api_prefix", sdk.DefaultAPIPrefix)
	v.SetDefault("timeout", sdk.DefaultTimeout)
	v.SetDefault("upload_timeout", sdk.UploadTimeout)
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_pretty", true)
	v.SetDefault("config_dir", "")
	v.SetDefault("cache_size", querycache.DefaultSize)
	v.SetDefault("cache_ttl", querycache.DefaultTTL)
	v.SetDefault("non_interactive", false)
}

// Load reads the settings. configFile is optional: when empty, config.yaml
// is looked up in the config directory and may be absent; an explicit file
// must exist.
func Load(v *viper.Viper, configFile string) (*Settings, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		dir := v.GetString("config_dir")
		if dir == "" {
			var err error
			if dir, err = auth.DefaultDir(); err != nil {
				return nil, err
			}
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	s.ServerURL = strings.TrimRight(strings.TrimSpace(s.ServerURL), "/")
	if s.ConfigDir == "" {
		dir, err := auth.DefaultDir()
		if err != nil {
			return nil, err
		}
		s.ConfigDir = dir
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

var validate = validator.New()

// Validate checks the settings.
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s failed %q validation (value %v)", strings.ToLower(fe.Field()), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// InjectConfig adds config to the cobra command context.
// This should be called in the root command's PersistentPreRunE.
func InjectConfig(ctx context.Context, cfg *GlobalConfig) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from the cobra command context.
// Returns (nil, false) if config is not present.
func FromContext(ctx context.Context) (*GlobalConfig, bool) {
	cfg, ok := ctx.Value(configKey).(*GlobalConfig)
	return cfg, ok
}

// MustFromContext retrieves config from context or panics.
// This should only be used in command RunE functions where we know
// the config has been injected by the root command.
func MustFromContext(ctx context.Context) *GlobalConfig {
	cfg, ok := FromContext(ctx)
	if !ok {
		panic("clinicctl: config not found in context - this is a bug in clinicctl")
	}
	return cfg
}
