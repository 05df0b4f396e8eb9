package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	Inkbunny InkbunnyConfig `mapstructure:"inkbunny"`
	Rating   RatingConfig   `mapstructure:"rating"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Filters  FilterConfig   `mapstructure:"filters"`
}

// InkbunnyConfig holds API connection details and credentials. An empty
// username logs in as guest.
type InkbunnyConfig struct {
	URL       string         `mapstructure:"url" validate:"required,url"`
	Username  string         `mapstructure:"username"`
	Password  string         `mapstructure:"password"`
	Timeout   time.Duration  `mapstructure:"timeout" validate:"gte=0"`
	UserAgent string         `mapstructure:"user_agent"`
	Throttle  ThrottleConfig `mapstructure:"throttle"`
}

// ThrottleConfig limits outgoing requests. RPS 0 disables throttling.
type ThrottleConfig struct {
	RPS   int `mapstructure:"rps" validate:"gte=0"`
	Burst int `mapstructure:"burst" validate:"gte=0,required_with=RPS"`
}

// RatingConfig is applied to guest sessions, which otherwise only see
// general content
type RatingConfig struct {
	Nudity         bool `mapstructure:"nudity"`
	Violence       bool `mapstructure:"violence"`
	SexualThemes   bool `mapstructure:"sexual_themes"`
	StrongViolence bool `mapstructure:"strong_violence"`
}

// Any reports whether at least one content class is enabled
func (r RatingConfig) Any() bool {
	return r.Nudity || r.Violence || r.SexualThemes || r.StrongViolence
}

// FilterConfig maps preset names to filter expressions
type FilterConfig map[string]string

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
	Color  bool   `mapstructure:"color"`
}
