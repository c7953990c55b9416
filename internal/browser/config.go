package browser

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/neboloop/surfer/internal/defaults"
)

// Config is the browser section of the surfer config.
type Config struct {
	// ExecutablePath overrides auto-detection of Chrome.
	ExecutablePath string `yaml:"executable_path"`

	// UserDataDir is the persistent profile directory. "~" is expanded.
	UserDataDir string `yaml:"user_data_dir"`

	// Headless runs the browser without UI.
	Headless bool `yaml:"headless"`

	// NoSandbox disables Chrome sandbox (needed in some containers).
	NoSandbox bool `yaml:"no_sandbox"`

	// ActionTimeout bounds each browser action.
	ActionTimeout time.Duration `yaml:"action_timeout"`
}

// ResolvedConfig is the fully resolved browser configuration.
type ResolvedConfig struct {
	ExecutablePath string
	UserDataDir    string
	Headless       bool
	NoSandbox      bool
	ActionTimeout  time.Duration
}

// ResolveConfig applies defaults and expands paths.
func ResolveConfig(cfg Config) *ResolvedConfig {
	resolved := &ResolvedConfig{
		ExecutablePath: expandHome(cfg.ExecutablePath),
		UserDataDir:    expandHome(cfg.UserDataDir),
		Headless:       cfg.Headless,
		NoSandbox:      cfg.NoSandbox,
		ActionTimeout:  cfg.ActionTimeout,
	}
	if resolved.UserDataDir == "" {
		resolved.UserDataDir = defaultUserDataDir()
	}
	if resolved.ActionTimeout <= 0 {
		resolved.ActionTimeout = DefaultActionTimeout
	}
	return resolved
}

// allocatorOptions builds the chromedp launch flags for this config.
func (c *ResolvedConfig) allocatorOptions(exePath string) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", c.Headless),
		chromedp.Flag("disable-gpu", c.Headless),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserDataDir(c.UserDataDir),
		chromedp.WindowSize(1280, 900),
	)
	if c.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if exePath != "" {
		opts = append(opts, chromedp.ExecPath(exePath))
	}
	return opts
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}
	return path
}

func defaultUserDataDir() string {
	dir, err := defaults.DataDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config", "surfer")
	}
	return filepath.Join(dir, "browser", DefaultProfileName, "user-data")
}
