package config

import (
	"fmt"
	"os"
	"path/filepath"
	"replicate/logger"
	"replicate/models"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type DefaultPaths struct {
	ConfigDir    string
	LogPathApp   string
	LogPathProxy string
	CACertPath   string
	CAKeyPath    string
	DBPath       string
	LogLevel     string
}

type Configuration struct {
	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`
	Server struct {
		Port    string `mapstructure:"port"`
		LogPath string `mapstructure:"log_path"`
	} `mapstructure:"server"`
	Proxy struct {
		Port              string   `mapstructure:"port"`
		CACertPath        string   `mapstructure:"ca_cert_path"`
		CAKeyPath         string   `mapstructure:"ca_key_path"`
		LogPath           string   `mapstructure:"log_path"`
		RedirectMode      string   `mapstructure:"redirect_mode"`
		InterceptPatterns []string `mapstructure:"intercept_patterns"`
		Verbose           bool     `mapstructure:"verbose"`
	} `mapstructure:"proxy"`
	Logging struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"logging"`
	Sync struct {
		// FieldMode is "shared" (one form field drives sync and publish) or "split".
		FieldMode string `mapstructure:"field_mode"`
		// DefaultWebSocketURL is what the sync host accessor returns before any override.
		DefaultWebSocketURL string `mapstructure:"default_ws_url"`
	} `mapstructure:"sync"`
}

var AppConfig Configuration

// configFileUsed is the file viper loaded, empty when running on defaults.
var configFileUsed string

func expandTilde(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}

// ExpandTilde resolves a leading "~" against the user's home directory.
// On failure the original path is returned together with the error.
func ExpandTilde(path string) (string, error) {
	expanded, err := expandTilde(path)
	if err != nil {
		return path, err
	}
	return expanded, nil
}

func GetDefaultConfigPaths() DefaultPaths {
	var paths DefaultPaths
	userConfigDirBase, err := os.UserConfigDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not get user config dir: %v. Using current directory.\n", err)
		userConfigDirBase = "."
	}

	paths.ConfigDir = filepath.Join(userConfigDirBase, "replicate")
	logDir := filepath.Join(paths.ConfigDir, "logs")

	paths.LogPathApp = filepath.Join(logDir, "app.log")
	paths.LogPathProxy = filepath.Join(logDir, "proxy.log")
	paths.CACertPath = filepath.Join(paths.ConfigDir, "replicate-ca.crt")
	paths.CAKeyPath = filepath.Join(paths.ConfigDir, "replicate-ca.key")
	paths.DBPath = filepath.Join(paths.ConfigDir, "replicate.db")
	paths.LogLevel = "INFO"
	return paths
}

// DefaultInterceptPatterns are the request filters registered on the proxy.
func DefaultInterceptPatterns() []string {
	return []string{
		models.DefaultSyncBaseURL + "/*",
		models.DefaultPublishBaseURL + "/*",
	}
}

func newViper(defaults DefaultPaths) *viper.Viper {
	v := viper.New()
	v.SetDefault("database.path", defaults.DBPath)
	v.SetDefault("server.port", "8788")
	v.SetDefault("server.log_path", defaults.LogPathApp)
	v.SetDefault("proxy.port", "8787")
	v.SetDefault("proxy.ca_cert_path", defaults.CACertPath)
	v.SetDefault("proxy.ca_key_path", defaults.CAKeyPath)
	v.SetDefault("proxy.log_path", defaults.LogPathProxy)
	v.SetDefault("proxy.redirect_mode", "rewrite")
	v.SetDefault("proxy.intercept_patterns", DefaultInterceptPatterns())
	v.SetDefault("proxy.verbose", false)
	v.SetDefault("logging.level", defaults.LogLevel)
	v.SetDefault("sync.field_mode", string(models.FieldModeShared))
	v.SetDefault("sync.default_ws_url", "wss://sync.obsidian.md")
	return v
}

func Init(cfgFile string, flagAppLogPath, flagProxyLogPath, flagLogLevel string) error {
	defaults := GetDefaultConfigPaths()
	v := newViper(defaults)

	if cfgFile != "" {
		expandedCfgFile, err := expandTilde(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Could not expand tilde in config file path '%s': %v. Trying original path.\n", cfgFile, err)
			expandedCfgFile = cfgFile
		}
		v.SetConfigFile(expandedCfgFile)
		v.SetConfigType("yaml")
	} else {
		v.AddConfigPath(defaults.ConfigDir)
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("REPLICATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configUsedMsg := "Using default/environment configuration."
	configFileUsed = ""
	readErr := v.ReadInConfig()
	if readErr == nil {
		configFileUsed = v.ConfigFileUsed()
		configUsedMsg = fmt.Sprintf("Using config file: %s", configFileUsed)
	} else {
		if _, ok := readErr.(viper.ConfigFileNotFoundError); ok {
			if cfgFile != "" {
				fmt.Fprintf(os.Stderr, "Warning: Config file specified by flag (%s) not found: %v\n", cfgFile, readErr)
			}
		} else if cfgFile != "" && os.IsNotExist(readErr) {
			fmt.Fprintf(os.Stderr, "Warning: Config file specified by flag (%s) not found: %v\n", cfgFile, readErr)
		} else {
			fmt.Fprintf(os.Stderr, "Error reading config file %s: %v\n", v.ConfigFileUsed(), readErr)
		}
	}

	var loaded Configuration
	if err := v.Unmarshal(&loaded); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: Error unmarshalling configuration: %v\n", err)
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}
	AppConfig = loaded

	if flagAppLogPath != "" {
		AppConfig.Server.LogPath = expandOrWarn(flagAppLogPath, "--app-log")
	}
	if flagProxyLogPath != "" {
		AppConfig.Proxy.LogPath = expandOrWarn(flagProxyLogPath, "--proxy-log")
	}
	if flagLogLevel != "" {
		AppConfig.Logging.Level = strings.ToUpper(flagLogLevel)
	}

	AppConfig.Database.Path = expandOrWarn(AppConfig.Database.Path, "database.path")
	AppConfig.Proxy.CACertPath = expandOrWarn(AppConfig.Proxy.CACertPath, "proxy.ca_cert_path")
	AppConfig.Proxy.CAKeyPath = expandOrWarn(AppConfig.Proxy.CAKeyPath, "proxy.ca_key_path")
	AppConfig.Server.LogPath = expandOrWarn(AppConfig.Server.LogPath, "server.log_path")
	AppConfig.Proxy.LogPath = expandOrWarn(AppConfig.Proxy.LogPath, "proxy.log_path")

	if err := os.MkdirAll(defaults.ConfigDir, 0750); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not create main config directory %s: %v\n", defaults.ConfigDir, err)
	}

	if err := logger.InitGlobalLoggers(AppConfig.Server.LogPath, AppConfig.Proxy.LogPath, AppConfig.Logging.Level); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: Failed to initialize global loggers with final config: %v\n", err)
		return fmt.Errorf("failed to initialize global loggers with final config: %w", err)
	}

	logger.Info(configUsedMsg)
	if readErr != nil && cfgFile != "" {
		logger.Error("Error occurred reading specified config file '%s': %v", cfgFile, readErr)
	}

	if err := Validate(&AppConfig); err != nil {
		return err
	}

	if configFileUsed != "" {
		watch(v, flagLogLevel)
	}

	logger.Debug("Final AppConfig Initialized: %+v", AppConfig)
	return nil
}

// Validate checks enumerated values and fills empty ones with their defaults.
func Validate(cfg *Configuration) error {
	mode, ok := models.ParseFieldMode(cfg.Sync.FieldMode)
	if !ok {
		return fmt.Errorf("invalid sync.field_mode %q: expected %q or %q", cfg.Sync.FieldMode, models.FieldModeShared, models.FieldModeSplit)
	}
	cfg.Sync.FieldMode = string(mode)

	switch strings.ToLower(strings.TrimSpace(cfg.Proxy.RedirectMode)) {
	case "", "rewrite":
		cfg.Proxy.RedirectMode = "rewrite"
	case "redirect":
		cfg.Proxy.RedirectMode = "redirect"
	default:
		return fmt.Errorf("invalid proxy.redirect_mode %q: expected \"rewrite\" or \"redirect\"", cfg.Proxy.RedirectMode)
	}

	if len(cfg.Proxy.InterceptPatterns) == 0 {
		cfg.Proxy.InterceptPatterns = DefaultInterceptPatterns()
	}
	return nil
}

// FieldMode returns the validated field mode of the active configuration.
func FieldMode() models.FieldMode {
	mode, _ := models.ParseFieldMode(AppConfig.Sync.FieldMode)
	return mode
}

// ConfigFileUsed reports the config file loaded by the last Init, if any.
func ConfigFileUsed() string {
	return configFileUsed
}

// watch re-applies the log level whenever the config file changes. Other keys
// need a restart; the settings record itself is reloaded on every request and
// does not live in this file.
func watch(v *viper.Viper, flagLogLevel string) {
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		if flagLogLevel != "" {
			logger.Debug("Config file %s changed; log level pinned by --log-level flag.", e.Name)
			return
		}
		level := v.GetString("logging.level")
		logger.SetLevel(level)
		AppConfig.Logging.Level = logger.Level()
		logger.Info("Config file %s changed; log level is now %s.", e.Name, logger.Level())
	})
	v.WatchConfig()
}

func expandOrWarn(path, name string) string {
	expanded, err := expandTilde(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not expand tilde in %s '%s': %v. Using original path.\n", name, path, err)
		return path
	}
	return expanded
}
