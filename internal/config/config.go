// Package config resolves command settings from flags, environment and an
// optional YAML file through viper.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/petchppo/heattile/internal/encode"
	"github.com/petchppo/heattile/internal/raster"
	"github.com/petchppo/heattile/internal/warp"
)

// Setting keys. Flags bind to the same names.
const (
	KeyResampling = "resampling"
	KeyFormat     = "format"
	KeyLogLevel   = "log-level"
	KeyLogFormat  = "log-format"
	KeyBlockCache = "block-cache"
)

// EnvPrefix prefixes environment overrides, e.g. HEATTILE_LOG_LEVEL.
const EnvPrefix = "HEATTILE"

// Settings is the validated configuration of one run.
type Settings struct {
	Resampling warp.Resampling
	Encoder    encode.Encoder
	LogLevel   slog.Level
	LogFormat  string
	BlockCache int
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyResampling, "bilinear")
	v.SetDefault(KeyFormat, "png")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyBlockCache, raster.DefaultBlockCache)
}

// ReadInConfig wires environment overrides and reads the config file: file
// when set, otherwise $HOME/<name>.yaml if it exists. It returns the file
// used, or "" when none was found.
func ReadInConfig(v *viper.Viper, file, name string) (string, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", nil
		}
		v.AddConfigPath(home)
		v.SetConfigType("yaml")
		v.SetConfigName(name)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file == "" && errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("reading config: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// Load resolves and validates the settings held by v.
func Load(v *viper.Viper) (Settings, error) {
	var s Settings
	var err error

	if s.Resampling, err = warp.ParseResampling(v.GetString(KeyResampling)); err != nil {
		return Settings{}, fmt.Errorf("%s: %w", KeyResampling, err)
	}
	if s.Encoder, err = encode.NewEncoder(v.GetString(KeyFormat)); err != nil {
		return Settings{}, fmt.Errorf("%s: %w", KeyFormat, err)
	}
	if err := s.LogLevel.UnmarshalText([]byte(v.GetString(KeyLogLevel))); err != nil {
		return Settings{}, fmt.Errorf("%s: %w", KeyLogLevel, err)
	}

	s.LogFormat = strings.ToLower(v.GetString(KeyLogFormat))
	switch s.LogFormat {
	case "text", "json":
	default:
		return Settings{}, fmt.Errorf("%s: unknown format %q (want text or json)", KeyLogFormat, s.LogFormat)
	}

	s.BlockCache = v.GetInt(KeyBlockCache)
	if s.BlockCache < 1 {
		return Settings{}, fmt.Errorf("%s: must be at least 1, got %d", KeyBlockCache, s.BlockCache)
	}
	return s, nil
}

// Logger builds the diagnostic logger writing to w.
func (s Settings) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: s.LogLevel}
	if s.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
