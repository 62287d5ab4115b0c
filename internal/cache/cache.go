// Package cache is a small TTL file cache under where.Cache(), used for
// provider HTTP responses.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/yato-cli/yato/filesystem"
	"github.com/yato-cli/yato/log"
	"github.com/yato-cli/yato/where"
)

// TTL is how long an entry stays valid after it was written.
const TTL = 24 * time.Hour

func dir() string {
	return filepath.Join(where.Cache(), "responses")
}

// Key derives a stable entry name from a request and its namespace.
func Key(request, namespace string) string {
	sanitized := strings.ToLower(strings.ReplaceAll(request, " ", "")) + namespace
	hash := sha256.Sum256([]byte(sanitized))
	return hex.EncodeToString(hash[:])
}

// Read decodes the entry into target. It reports false for missing, expired
// or undecodable entries.
func Read(key string, target any) bool {
	path := filepath.Join(dir(), key)

	info, err := filesystem.API().Stat(path)
	if err != nil || time.Since(info.ModTime()) > TTL {
		return false
	}

	data, err := filesystem.API().ReadFile(path)
	if err != nil {
		return false
	}

	return json.Unmarshal(data, target) == nil
}

// Write stores value under key.
func Write(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return filesystem.WriteAtomic(filepath.Join(dir(), key), data)
}

// CollectGarbage removes expired entries and returns how many were deleted.
func CollectGarbage() int {
	var removed int
	_ = filesystem.API().Walk(dir(), func(path string, info fs.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if time.Since(info.ModTime()) > TTL {
			if err := filesystem.API().Remove(path); err == nil {
				removed++
			}
		}
		return nil
	})

	if removed > 0 {
		log.Infof("cache: removed %d expired entries", removed)
	}
	return removed
}
