package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/verifydesk/cli/internal/models"
)

// FileName is the config file name looked up in the home directory
const FileName = ".verifydesk.yaml"

// EnvPrefix prefixes environment overrides, e.g. VERIFYDESK_SERVER_URL
const EnvPrefix = "VERIFYDESK"

// Config represents the application configuration
type Config struct {
	Server        ServerConfig          `yaml:"server" mapstructure:"server"`
	Auth          models.AuthState      `yaml:"auth" mapstructure:"auth"`
	Session       SessionConfig         `yaml:"session" mapstructure:"session"`
	Intake        IntakeConfig          `yaml:"intake" mapstructure:"intake"`
	Format        FormatConfig          `yaml:"format" mapstructure:"format"`
	Notifications []models.Notification `yaml:"notifications" mapstructure:"notifications"`
}

// ServerConfig contains server connection settings
type ServerConfig struct {
	URL     string        `yaml:"url" mapstructure:"url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// SessionConfig contains the inactivity timeout settings
type SessionConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Warning      time.Duration `yaml:"warning" mapstructure:"warning"`
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
}

// IntakeConfig contains candidate submission settings
type IntakeConfig struct {
	SuccessDelay time.Duration `yaml:"success_delay" mapstructure:"success_delay"`
}

// FormatConfig contains output formatting settings
type FormatConfig struct {
	Default string `yaml:"default" mapstructure:"default"`
	Colors  bool   `yaml:"colors" mapstructure:"colors"`
}

var (
	// mu serializes writes of the shared sections and their re-reads
	mu sync.Mutex

	globalConfig *Config
	debug        bool
	outputFormat string
)

// Initialize loads the configuration from file, creating it with defaults
// when it does not exist yet
func Initialize(configFile string) error {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("could not get home directory: %w", err)
		}

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".verifydesk")
	}

	setDefaults()

	// Environment variables
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound), os.IsNotExist(err):
			if err := createDefaultConfig(configFile); err != nil {
				return fmt.Errorf("could not create default config: %w", err)
			}
		default:
			return fmt.Errorf("could not read config file: %w", err)
		}
	}

	globalConfig = &Config{}
	if err := viper.Unmarshal(globalConfig, viper.DecodeHook(decodeHook())); err != nil {
		return fmt.Errorf("could not unmarshal config: %w", err)
	}

	return nil
}

func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToTimeHookFunc(time.RFC3339),
	)
}

// setDefaults sets default configuration values
func setDefaults() {
	d := Defaults()
	viper.SetDefault("server.url", d.Server.URL)
	viper.SetDefault("server.timeout", d.Server.Timeout.String())
	viper.SetDefault("auth.is_authenticated", false)
	viper.SetDefault("auth.user_name", "")
	viper.SetDefault("auth.token", "")
	viper.SetDefault("session.timeout", d.Session.Timeout.String())
	viper.SetDefault("session.warning", d.Session.Warning.String())
	viper.SetDefault("session.poll_interval", d.Session.PollInterval.String())
	viper.SetDefault("intake.success_delay", d.Intake.SuccessDelay.String())
	viper.SetDefault("format.default", d.Format.Default)
	viper.SetDefault("format.colors", d.Format.Colors)
}

// Defaults returns the built-in configuration
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			URL:     "http://localhost:8000/api",
			Timeout: 30 * time.Second,
		},
		Session: SessionConfig{
			Timeout:      5 * time.Minute,
			Warning:      time.Minute,
			PollInterval: time.Second,
		},
		Intake: IntakeConfig{
			SuccessDelay: 2 * time.Second,
		},
		Format: FormatConfig{
			Default: "table",
			Colors:  true,
		},
		Notifications: []models.Notification{},
	}
}

// createDefaultConfig writes a default configuration file and points viper at it
func createDefaultConfig(configFile string) error {
	configPath := configFile
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		configPath = filepath.Join(home, FileName)
	}

	data, err := yaml.Marshal(fileView(Defaults()))
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o700); err != nil {
		return err
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return err
	}

	viper.SetConfigFile(configPath)
	return viper.ReadInConfig()
}

// fileView renders durations as strings so the file stays hand-editable
func fileView(c Config) map[string]interface{} {
	return map[string]interface{}{
		"server": map[string]interface{}{
			"url":     c.Server.URL,
			"timeout": c.Server.Timeout.String(),
		},
		"auth": map[string]interface{}{
			"is_authenticated": c.Auth.IsAuthenticated,
			"user_name":        c.Auth.UserName,
			"token":            c.Auth.Token,
		},
		"session": map[string]interface{}{
			"timeout":       c.Session.Timeout.String(),
			"warning":       c.Session.Warning.String(),
			"poll_interval": c.Session.PollInterval.String(),
		},
		"intake": map[string]interface{}{
			"success_delay": c.Intake.SuccessDelay.String(),
		},
		"format": map[string]interface{}{
			"default": c.Format.Default,
			"colors":  c.Format.Colors,
		},
		"notifications": notificationsView(c.Notifications),
	}
}

func notificationsView(list []models.Notification) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(list))
	for _, n := range list {
		entry := map[string]interface{}{
			"id":         n.ID,
			"title":      n.Title,
			"message":    n.Message,
			"type":       n.Type,
			"read":       n.Read,
			"created_at": n.CreatedAt.UTC().Format(time.RFC3339),
		}
		if n.ActionText != "" {
			entry["action_text"] = n.ActionText
		}
		out = append(out, entry)
	}
	return out
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		d := Defaults()
		globalConfig = &d
	}
	return globalConfig
}

// Path returns the file backing the configuration
func Path() string {
	return viper.ConfigFileUsed()
}

// SetDebug sets the debug mode
func SetDebug(enabled bool) {
	debug = enabled
}

// IsDebug returns whether debug mode is enabled
func IsDebug() bool {
	return debug
}

// SetOutputFormat sets the output format
func SetOutputFormat(format string) {
	outputFormat = format
}

// GetOutputFormat returns the current output format
func GetOutputFormat() string {
	if outputFormat != "" {
		return outputFormat
	}
	if globalConfig != nil && globalConfig.Format.Default != "" {
		return globalConfig.Format.Default
	}
	return "table"
}

// UpdateAuth persists the authentication state
func UpdateAuth(state models.AuthState) error {
	mu.Lock()
	defer mu.Unlock()
	return updateAuth(state)
}

func updateAuth(state models.AuthState) error {
	if globalConfig == nil {
		return fmt.Errorf("configuration not initialized")
	}

	viper.Set("auth.is_authenticated", state.IsAuthenticated)
	viper.Set("auth.user_name", state.UserName)
	viper.Set("auth.token", state.Token)
	globalConfig.Auth = state

	return viper.WriteConfig()
}

// ClearAuth ends the persisted session. The user name is kept so the next
// login can prefill it.
func ClearAuth() error {
	mu.Lock()
	defer mu.Unlock()

	if globalConfig == nil {
		return fmt.Errorf("configuration not initialized")
	}

	return updateAuth(models.AuthState{UserName: globalConfig.Auth.UserName})
}

// UpdateNotifications persists the notification list
func UpdateNotifications(list []models.Notification) error {
	mu.Lock()
	defer mu.Unlock()

	if globalConfig == nil {
		return fmt.Errorf("configuration not initialized")
	}

	viper.Set("notifications", notificationsView(list))
	globalConfig.Notifications = append([]models.Notification(nil), list...)

	return viper.WriteConfig()
}

// Store adapts the global configuration to the persistence interfaces of the
// auth and notify packages
type Store struct{}

// LoadAuth returns the authentication state as currently stored in the file
func (Store) LoadAuth() models.AuthState {
	mu.Lock()
	defer mu.Unlock()
	syncShared()
	return Get().Auth
}

// SaveAuth persists the authentication state
func (Store) SaveAuth(state models.AuthState) error {
	return UpdateAuth(state)
}

// LoadNotifications returns the notification list as currently stored in the
// file
func (Store) LoadNotifications() ([]models.Notification, error) {
	mu.Lock()
	defer mu.Unlock()
	syncShared()
	return append([]models.Notification(nil), Get().Notifications...), nil
}

// SaveNotifications persists the notification list
func (Store) SaveNotifications(list []models.Notification) error {
	return UpdateNotifications(list)
}

// syncShared re-reads the sections other invocations may have written (auth
// and notifications) so a long-running command sees a logout done in another
// terminal and does not write stale values back. Read errors keep the
// in-memory state.
func syncShared() {
	path := Path()
	if globalConfig == nil || path == "" {
		return
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return
	}

	var shared struct {
		Auth          models.AuthState      `mapstructure:"auth"`
		Notifications []models.Notification `mapstructure:"notifications"`
	}
	if err := v.Unmarshal(&shared, viper.DecodeHook(decodeHook())); err != nil {
		return
	}

	globalConfig.Auth = shared.Auth
	viper.Set("auth.is_authenticated", shared.Auth.IsAuthenticated)
	viper.Set("auth.user_name", shared.Auth.UserName)
	viper.Set("auth.token", shared.Auth.Token)

	if shared.Notifications == nil {
		shared.Notifications = []models.Notification{}
	}
	globalConfig.Notifications = shared.Notifications
	viper.Set("notifications", notificationsView(shared.Notifications))
}
