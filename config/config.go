package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/creasty/defaults"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/tonika/tonika-bus/env_mode"
	"github.com/tonika/tonika-bus/utils"
)

// DefaultConfigOptions returns the standard lookup: ./config/config.yaml
// plus env-mode and .local overlays, overridable via TONIKA_CONFIG_PATH.
func DefaultConfigOptions() ConfigOptions {
	basePath := os.Getenv("TONIKA_CONFIG_PATH")
	if basePath == "" {
		basePath = "config"
	}

	return ConfigOptions{
		BasePath:  basePath,
		FileName:  "config",
		FileType:  "yaml",
		EnvPrefix: "TONIKA",
		WatchAble: false,
		OnChange:  nil,
	}
}

// DevConfigOptions enables file watching on top of the defaults.
func DevConfigOptions() ConfigOptions {
	opts := DefaultConfigOptions()
	opts.WatchAble = true
	return opts
}

// NewConfig loads configuration per the given options.
func NewConfig(optsArr ...ConfigOptions) (*Config, error) {
	var opts ConfigOptions
	if len(optsArr) == 0 {
		opts = DefaultConfigOptions()
	} else {
		opts = optsArr[0]
	}

	instance, err := CreateConfig(opts)
	if err != nil {
		return nil, err
	}

	return &Config{
		instance: instance,
		opts:     opts,
	}, nil
}

// Bind unmarshals the loaded configuration into instance. With WatchAble
// set, instance is re-bound whenever the config file changes.
func (c *Config) Bind(instance any) error {
	if c == nil || c.instance == nil {
		return fmt.Errorf("config instance is nil")
	}

	if instance == nil {
		return fmt.Errorf("target instance is nil")
	}

	c.watchMutex.Lock()
	defer c.watchMutex.Unlock()

	if err := c.instance.Unmarshal(&instance); err != nil {
		return fmt.Errorf("failed to unmarshal config (path: %s, file: %s.%s): %w",
			c.opts.BasePath, c.opts.FileName, c.opts.FileType, err)
	}

	if c.opts.WatchAble {
		c.watchOnce.Do(func() {
			c.instance.WatchConfig()
			c.instance.OnConfigChange(func(e fsnotify.Event) {
				c.watchMutex.Lock()
				defer c.watchMutex.Unlock()

				if err := c.instance.Unmarshal(&instance); err != nil {
					fmt.Printf("config watch error: %v\n", err)
					return
				}

				if c.opts.OnChange != nil {
					c.opts.OnChange(e)
				}
			})
		})
	}

	return nil
}

// BindWithDefaults applies struct tag defaults before and after binding,
// so absent keys fall back to their declared defaults.
func (c *Config) BindWithDefaults(instance any) error {
	if err := defaults.Set(instance); err != nil {
		return fmt.Errorf("failed to set defaults: %w", err)
	}

	if err := c.Bind(instance); err != nil {
		return err
	}

	if err := defaults.Set(instance); err != nil {
		return fmt.Errorf("failed to set defaults after unmarshal: %w", err)
	}

	return nil
}

// Get returns a raw configuration value.
func (c *Config) Get(key string) any {
	c.watchMutex.RLock()
	defer c.watchMutex.RUnlock()

	return c.instance.Get(key)
}

// Set overrides a configuration value in memory.
func (c *Config) Set(key string, value any) {
	c.watchMutex.Lock()
	defer c.watchMutex.Unlock()

	c.instance.Set(key, value)
}

// Export writes the merged configuration to path.
func (c *Config) Export(path string) error {
	if path == "" {
		return fmt.Errorf("export path is empty")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := c.instance.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config to %s: %w", path, err)
	}

	return nil
}

// CreateConfig builds the merged viper instance: base file, its .local
// overlay, the env-mode overlay and its .local overlay, then environment
// variables on top.
func CreateConfig(opts ConfigOptions) (*viper.Viper, error) {
	configPaths := getConfigFilePaths(opts)
	if len(configPaths) == 0 {
		return nil, fmt.Errorf("no valid configuration files found in path: %s", opts.BasePath)
	}

	v := viper.New()
	v.SetConfigType(opts.FileType)

	for _, configPath := range configPaths {
		tempV := viper.New()
		tempV.SetConfigFile(configPath)
		if err := tempV.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configPath, err)
		}

		for _, key := range tempV.AllKeys() {
			v.Set(key, tempV.Get(key))
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	if opts.EnvPrefix != "" {
		v.SetEnvPrefix(opts.EnvPrefix)
	}
	v.AutomaticEnv()

	applyEnvOverrides(v, opts.EnvPrefix)

	return v, nil
}

// applyEnvOverrides forces environment variables above config file values
// for every known key.
func applyEnvOverrides(v *viper.Viper, envPrefix string) {
	replacer := strings.NewReplacer(".", "_", "-", "_")

	for _, key := range v.AllKeys() {
		envKey := strings.ToUpper(replacer.Replace(key))
		if envPrefix != "" {
			envKey = envPrefix + "_" + envKey
		}

		if envValue := os.Getenv(envKey); envValue != "" {
			v.Set(key, envValue)
		}
	}
}

// getConfigFilePaths lists existing config files in override order: base,
// .local, per-env, per-env .local.
func getConfigFilePaths(opts ConfigOptions) (configFiles []string) {
	env := env_mode.Mode()
	fileNames := []string{
		opts.FileName,
		fmt.Sprintf("%s.local", opts.FileName),
		fmt.Sprintf("%s.%s", opts.FileName, env),
		fmt.Sprintf("%s.%s.local", opts.FileName, env),
	}

	for _, fileName := range fileNames {
		file := filepath.Join(opts.BasePath, fmt.Sprintf("%s.%s", fileName, opts.FileType))
		if isDir, exists, _ := utils.Exists(file); exists && !isDir {
			configFiles = append(configFiles, file)
		}
	}

	return configFiles
}
