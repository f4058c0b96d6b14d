package config

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/viper"

	"github.com/verifydesk/cli/internal/utils"
)

type setting struct {
	validate func(string) (interface{}, error)
}

func durationSetting(value string) (interface{}, error) {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return nil, utils.NewValidationError("value", "must be a positive duration such as 30s or 5m")
	}
	return d.String(), nil
}

// settings lists the keys `config set` may change. Auth and notifications
// are owned by their services.
var settings = map[string]setting{
	"server.url": {validate: func(v string) (interface{}, error) {
		if err := utils.ValidateURL(v); err != nil {
			return nil, err
		}
		return v, nil
	}},
	"server.timeout":        {validate: durationSetting},
	"session.timeout":       {validate: durationSetting},
	"session.warning":       {validate: durationSetting},
	"session.poll_interval": {validate: durationSetting},
	"intake.success_delay":  {validate: durationSetting},
	"format.default": {validate: func(v string) (interface{}, error) {
		switch v {
		case "table", "json", "json-compact", "yaml", "text":
			return v, nil
		}
		return nil, utils.NewValidationError("value", "unsupported format: "+v)
	}},
	"format.colors": {validate: func(v string) (interface{}, error) {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, utils.NewValidationError("value", "must be true or false")
		}
		return b, nil
	}},
}

// SettableKeys returns the keys accepted by Set, sorted
func SettableKeys() []string {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set validates and persists a single setting
func Set(key, value string) error {
	if globalConfig == nil {
		return fmt.Errorf("configuration not initialized")
	}

	s, ok := settings[key]
	if !ok {
		return utils.NewValidationError("key", fmt.Sprintf("unknown or read-only setting %q", key))
	}

	v, err := s.validate(value)
	if err != nil {
		return err
	}

	viper.Set(key, v)
	if key == "session.timeout" || key == "session.warning" {
		timeout := viper.GetDuration("session.timeout")
		warning := viper.GetDuration("session.warning")
		if warning >= timeout {
			viper.Set(key, lookupString(key))
			return utils.NewValidationError("value", "session.warning must be shorter than session.timeout")
		}
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg, viper.DecodeHook(decodeHook())); err != nil {
		return fmt.Errorf("could not unmarshal config: %w", err)
	}
	cfg.Auth = globalConfig.Auth
	cfg.Notifications = globalConfig.Notifications
	globalConfig = cfg

	return viper.WriteConfig()
}

// Lookup returns the current value of a setting for display
func Lookup(key string) (string, error) {
	if _, ok := settings[key]; !ok {
		return "", utils.NewValidationError("key", fmt.Sprintf("unknown setting %q", key))
	}
	return lookupString(key), nil
}

func lookupString(key string) string {
	c := Get()
	switch key {
	case "server.url":
		return c.Server.URL
	case "server.timeout":
		return c.Server.Timeout.String()
	case "session.timeout":
		return c.Session.Timeout.String()
	case "session.warning":
		return c.Session.Warning.String()
	case "session.poll_interval":
		return c.Session.PollInterval.String()
	case "intake.success_delay":
		return c.Intake.SuccessDelay.String()
	case "format.default":
		return c.Format.Default
	case "format.colors":
		return strconv.FormatBool(c.Format.Colors)
	}
	return ""
}
