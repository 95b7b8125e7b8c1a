package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"media54/types"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	DataRoot string          `mapstructure:"data_root"`
	Server   ServerConfig    `mapstructure:"server"`
	Surfaces SurfacesConfig  `mapstructure:"surfaces"`
	Launcher LauncherConfig  `mapstructure:"launcher"`
	Cache    CacheConfig     `mapstructure:"cache"`
	Displays []types.Display `mapstructure:"displays"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port        int      `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	PublicURL   string   `mapstructure:"public_url"` // base URL presentation windows are pointed at
}

// SurfacesConfig holds presentation sync configuration
type SurfacesConfig struct {
	SendBuffer int `mapstructure:"send_buffer"` // per-surface outbound queue length
}

// LauncherConfig holds the command used to open presentation windows.
// Args may contain {x}, {y}, {width}, {height} and {url} placeholders.
type LauncherConfig struct {
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

// CacheConfig holds manifest cache settings
type CacheConfig struct {
	ManifestTTL time.Duration `mapstructure:"manifest_ttl"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		DataRoot: defaultDataRoot(),
		Server: ServerConfig{
			Port:        8080,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Surfaces: SurfacesConfig{
			SendBuffer: 256,
		},
		Launcher: LauncherConfig{
			Command: defaultBrowser(),
			Args: []string{
				"--new-window",
				"--kiosk",
				"--window-position={x},{y}",
				"--window-size={width},{height}",
				"{url}",
			},
		},
		Cache: CacheConfig{
			ManifestTTL: 5 * time.Minute,
		},
		Displays: []types.Display{
			{X: 0, Y: 0, Width: 1920, Height: 1080},
		},
	}
}

// defaultDataRoot returns the OS-appropriate collections folder
func defaultDataRoot() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "collections")
	}
	return filepath.Join(homeDir, "Media54", "collections")
}

func defaultBrowser() string {
	switch runtime.GOOS {
	case "windows":
		return "chrome.exe"
	case "darwin":
		return "/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"
	default:
		return "chromium"
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "media54")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "media54")
	}
}

// Load reads configuration from the given viper instance. An explicit config
// file must exist; otherwise config.yaml is looked up in the default locations
// and its absence is not an error.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	cfg := DefaultConfig()
	setDefaults(v, cfg)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(defaultConfigPath())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("MEDIA54")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// every default is registered with viper, so decode into a zero value to
	// keep configured slices from merging with the defaults
	cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every default so AutomaticEnv can override nested keys
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("data_root", cfg.DataRoot)
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.cors_origins", cfg.Server.CORSOrigins)
	v.SetDefault("server.public_url", cfg.Server.PublicURL)
	v.SetDefault("surfaces.send_buffer", cfg.Surfaces.SendBuffer)
	v.SetDefault("launcher.command", cfg.Launcher.Command)
	v.SetDefault("launcher.args", cfg.Launcher.Args)
	v.SetDefault("cache.manifest_ttl", cfg.Cache.ManifestTTL)

	displays := make([]map[string]any, len(cfg.Displays))
	for i, d := range cfg.Displays {
		displays[i] = map[string]any{"x": d.X, "y": d.Y, "width": d.Width, "height": d.Height}
	}
	v.SetDefault("displays", displays)
}

// Validate checks the configuration for values the server cannot run with
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataRoot) == "" {
		return fmt.Errorf("data_root must not be empty")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Surfaces.SendBuffer <= 0 {
		return fmt.Errorf("surfaces.send_buffer must be positive")
	}
	for i, d := range c.Displays {
		if d.Width <= 0 || d.Height <= 0 {
			return fmt.Errorf("display %d has empty bounds", i)
		}
	}
	return nil
}

// BaseURL returns the URL presentation windows use to reach the server
func (c *Config) BaseURL() string {
	if c.Server.PublicURL != "" {
		return strings.TrimRight(c.Server.PublicURL, "/")
	}
	return fmt.Sprintf("http://localhost:%d", c.Server.Port)
}
