package config

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Validator is implemented by config structs that check themselves after
// binding.
type Validator interface {
	Validate() error
}

// Config wraps a loaded viper instance.
type Config struct {
	instance   *viper.Viper
	opts       ConfigOptions
	watchOnce  sync.Once
	watchMutex sync.RWMutex
}

// ConfigOptions controls where configuration is loaded from.
type ConfigOptions struct {
	// BasePath is the directory holding config files.
	BasePath string

	// FileName is the base file name without extension.
	FileName string

	// FileType is the file extension (yaml, json, toml).
	FileType string

	// EnvPrefix namespaces environment variable overrides.
	EnvPrefix string

	// WatchAble re-binds the target struct when the file changes.
	WatchAble bool

	// OnChange is called after a watched re-bind.
	OnChange func(e fsnotify.Event)
}
