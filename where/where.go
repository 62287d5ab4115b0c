// Package where resolves the on-disk locations yato reads and writes.
package where

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/samber/lo"
	"github.com/yato-cli/yato/constant"
	"github.com/yato-cli/yato/filesystem"
)

// EnvConfigPath overrides the configuration directory.
const EnvConfigPath = "YATO_CONFIG_PATH"

// EnvDataPath overrides the data directory holding progress and overrides.
const EnvDataPath = "YATO_DATA_PATH"

func ensureDir(path string) string {
	lo.Must0(filesystem.API().MkdirAll(path, os.ModePerm))
	return path
}

// Config is the directory holding yato.toml and the provider scripts.
func Config() string {
	if custom, ok := os.LookupEnv(EnvConfigPath); ok {
		return ensureDir(custom)
	}

	base := lo.Must(os.UserConfigDir())
	return ensureDir(filepath.Join(base, constant.Yato))
}

// Data is the per-user local data directory, XDG_DATA_HOME on Linux.
func Data() string {
	if custom, ok := os.LookupEnv(EnvDataPath); ok {
		return ensureDir(custom)
	}

	return ensureDir(filepath.Join(localDataDir(), constant.Yato))
}

func localDataDir() string {
	switch runtime.GOOS {
	case constant.Windows:
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return dir
		}
	case constant.Darwin:
		return filepath.Join(lo.Must(os.UserHomeDir()), "Library", "Application Support")
	default:
		if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
			return dir
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// Cache is the directory for disposable cached responses.
func Cache() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(".", "cache")
	}
	return ensureDir(filepath.Join(base, constant.Yato))
}

// Logs is the directory rotated log files are written to.
func Logs() string {
	return ensureDir(filepath.Join(Config(), "logs"))
}

// Providers is the directory holding one Lua script per language.
func Providers() string {
	return ensureDir(filepath.Join(Config(), "providers"))
}

// Progress is the local watch progress record store.
func Progress() string {
	return filepath.Join(Data(), "progress.json")
}

// Overrides is the per-series skip override store.
func Overrides() string {
	return filepath.Join(Data(), "overrides.json")
}

// Queue is the append-only log of progress reports that failed to reach the tracker.
func Queue() string {
	return filepath.Join(Data(), "failed_syncs.jsonl")
}

// Queries is the ranked history of titles passed to "yato watch".
func Queries() string {
	return filepath.Join(Cache(), "queries.json")
}

// Anilist is the cache of tracker lookups (MAL ids, relations).
func Anilist() string {
	return filepath.Join(Cache(), "anilist.json")
}

// Temp is the scratch directory player sockets are created in.
func Temp() string {
	return ensureDir(filepath.Join(os.TempDir(), constant.Yato))
}
