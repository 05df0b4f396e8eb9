package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const envPrefix = "IBHELPER"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Load reads configuration from configPath, or from config.yaml in the
// standard locations when configPath is empty. A missing file is not an
// error; every key can also come from IBHELPER_* environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".ibhelper"))
		}
		v.AddConfigPath("/etc/ibhelper/")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it
func setDefaults(v *viper.Viper) {
	v.SetDefault("inkbunny.url", "https://inkbunny.net")
	v.SetDefault("inkbunny.username", "")
	v.SetDefault("inkbunny.password", "")
	v.SetDefault("inkbunny.timeout", 30*time.Second)
	v.SetDefault("inkbunny.user_agent", "ibhelper")
	v.SetDefault("inkbunny.throttle.rps", 0)
	v.SetDefault("inkbunny.throttle.burst", 1)

	v.SetDefault("rating.nudity", false)
	v.SetDefault("rating.violence", false)
	v.SetDefault("rating.sexual_themes", false)
	v.SetDefault("rating.strong_violence", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// Validate checks cfg against its field rules
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		return errors.New(strings.Join(msgs, "; "))
	}

	if cfg.Inkbunny.Username != "" && cfg.Inkbunny.Username != "guest" && cfg.Inkbunny.Password == "" {
		return fmt.Errorf("inkbunny.password is required for user %s", cfg.Inkbunny.Username)
	}

	return nil
}

// fieldMessage renders fe with its dotted config key
func fieldMessage(fe validator.FieldError) string {
	key := fe.Namespace()
	if i := strings.Index(key, "."); i >= 0 {
		key = key[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return key + " is required"
	case "required_with":
		return key + " must be set when " + strings.ToLower(fe.Param()) + " is set"
	case "url":
		return fmt.Sprintf("%s must be a valid URL, got %q", key, fe.Value())
	case "oneof":
		return fmt.Sprintf("invalid %s: %v (must be one of %s)", key, fe.Value(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", key, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", key, fe.Tag())
	}
}
