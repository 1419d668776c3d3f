// Package where implements a cross-platform resolver for application-specific filesystem paths.
package where

import (
	"os"
	"path/filepath"

	"github.com/comiknet/comiknet/constant"
	"github.com/comiknet/comiknet/filesystem"
	"github.com/comiknet/comiknet/key"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// EnvConfigPath is the environment variable identifier used to override the default configuration directory.
const EnvConfigPath = "COMIKNET_CONFIG_PATH"

// ensureDir guarantees the existence of a directory at the specified path, creating it if necessary.
func ensureDir(path string) string {
	lo.Must0(filesystem.API().MkdirAll(path, os.ModePerm))
	return path
}

// Config resolves the absolute path to the primary application configuration directory.
// The path can be overridden with the COMIKNET_CONFIG_PATH environment variable.
func Config() string {
	if custom, ok := os.LookupEnv(EnvConfigPath); ok {
		return ensureDir(custom)
	}

	base := lo.Must(os.UserConfigDir())
	return ensureDir(filepath.Join(base, constant.Comiknet))
}

// Cache resolves the absolute path to the application's persistent cache directory.
func Cache() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(".", "cache")
	}
	return ensureDir(filepath.Join(base, constant.Comiknet))
}

// Logs resolves the absolute path to the directory used for application diagnostic logs.
func Logs() string {
	return ensureDir(filepath.Join(Config(), "logs"))
}

// Plugins resolves the directory scanned for plugin directories.
// The plugins.path setting takes precedence over the default location under Config.
func Plugins() string {
	if custom := viper.GetString(key.PluginsPath); custom != "" {
		return ensureDir(custom)
	}
	return ensureDir(filepath.Join(Config(), "plugins"))
}

// Credentials resolves the file used by the file-backed credential store.
func Credentials() string {
	return filepath.Join(Config(), "credentials.json")
}

// Queries resolves the file holding remembered search queries.
func Queries() string {
	return filepath.Join(Cache(), "queries.json")
}

// Temp resolves a volatile filesystem path for transient application artifacts.
func Temp() string {
	return ensureDir(filepath.Join(os.TempDir(), constant.Comiknet))
}
