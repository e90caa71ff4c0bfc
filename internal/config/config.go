// Package config loads runtime configuration from defaults, an optional
// YAML file and WEAVE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/madeeasy/weave"
	"github.com/madeeasy/weave/internal/httpapi"
)

const (
	DefaultAddress                = ":8080"
	DefaultShutdownTimeoutSeconds = 5
	DefaultLogLevel               = "info"
	DefaultPointcut               = "**/controller.UsersController.*"
	DefaultMetricsPath            = "/metrics"
	DefaultRPCPath                = "/ws"
	EnvPrefix                     = "WEAVE"
)

// Config is the complete runtime configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Aspect  AspectConfig  `mapstructure:"aspect"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	RPC     RPCConfig     `mapstructure:"rpc"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Address                string `mapstructure:"address"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdownTimeoutSeconds"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// AspectConfig selects and shapes the users aspect.
type AspectConfig struct {
	// Pointcut selects the controller methods the users aspect applies to.
	Pointcut string       `mapstructure:"pointcut"`
	Around   AroundConfig `mapstructure:"around"`
}

// AroundConfig toggles the around advice and its error suppression.
type AroundConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Suppress bool `mapstructure:"suppress"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// RPCConfig controls the WebSocket RPC endpoint.
type RPCConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", DefaultAddress)
	v.SetDefault("server.shutdownTimeoutSeconds", DefaultShutdownTimeoutSeconds)
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.development", false)
	v.SetDefault("aspect.pointcut", DefaultPointcut)
	v.SetDefault("aspect.around.enabled", true)
	v.SetDefault("aspect.around.suppress", false)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", DefaultMetricsPath)
	v.SetDefault("rpc.enabled", true)
	v.SetDefault("rpc.path", DefaultRPCPath)
}

// Load reads configuration. An empty path uses defaults and environment only.
func Load(path string) (Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the server cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Address == "" {
		errs = append(errs, errors.New("server.address is required"))
	}
	if c.Server.ShutdownTimeoutSeconds <= 0 {
		errs = append(errs, errors.New("server.shutdownTimeoutSeconds must be positive"))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if _, err := weave.Pattern(c.Aspect.Pointcut); err != nil {
		errs = append(errs, fmt.Errorf("aspect.pointcut: %w", err))
	}
	if c.Aspect.Around.Suppress && !c.Aspect.Around.Enabled {
		errs = append(errs, errors.New("aspect.around.suppress requires aspect.around.enabled"))
	}
	if c.Metrics.Enabled {
		errs = append(errs, validatePath("metrics.path", c.Metrics.Path)...)
	}
	if c.RPC.Enabled {
		errs = append(errs, validatePath("rpc.path", c.RPC.Path)...)
	}
	if c.Metrics.Enabled && c.RPC.Enabled && c.Metrics.Path == c.RPC.Path {
		errs = append(errs, fmt.Errorf("rpc.path %q is already used by metrics.path", c.RPC.Path))
	}
	return errors.Join(errs...)
}

// validatePath rejects endpoint paths the HTTP mux cannot register next to
// the users routes.
func validatePath(key, p string) []error {
	if !strings.HasPrefix(p, "/") {
		return []error{fmt.Errorf("%s must start with /", key)}
	}
	var errs []error
	if p == "/" || path.Clean(p) != p {
		errs = append(errs, fmt.Errorf("%s %q must be a clean path below /", key, p))
	}
	if strings.ContainsAny(p, "{} \t\n") {
		errs = append(errs, fmt.Errorf("%s %q must not contain wildcards or spaces", key, p))
	}
	for _, route := range httpapi.Routes {
		if routePath(route.Pattern) == p {
			errs = append(errs, fmt.Errorf("%s %q conflicts with route %q", key, p, route.Pattern))
		}
	}
	return errs
}

func routePath(pattern string) string {
	if _, rest, ok := strings.Cut(pattern, " "); ok {
		return rest
	}
	return pattern
}
