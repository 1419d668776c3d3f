// Package cache stores short-lived JSON documents, such as upstream responses fetched by scripts,
// in the application cache directory.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/comiknet/comiknet/filesystem"
	"github.com/comiknet/comiknet/where"
)

const TTL = 24 * time.Hour

func dir() string {
	path := filepath.Join(where.Cache(), "responses")
	_ = filesystem.API().MkdirAll(path, 0o755)
	return path
}

// GenerateKey derives a stable file name from a request and the namespace it belongs to.
func GenerateKey(request, namespace string) string {
	sanitized := strings.ToLower(strings.ReplaceAll(request, " ", "")) + namespace
	hash := sha256.Sum256([]byte(sanitized))
	return hex.EncodeToString(hash[:])
}

// Read decodes the entry stored under key into target. It reports false if the entry is missing,
// expired or unreadable.
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

// Write stores data under key, replacing the previous entry atomically.
func Write(key string, data any) error {
	path := filepath.Join(dir(), key)
	tmp := path + ".tmp"

	encoded, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if err := filesystem.API().WriteFile(tmp, encoded, 0o644); err != nil {
		return err
	}
	return filesystem.API().Rename(tmp, path)
}

// CollectGarbage removes expired entries.
func CollectGarbage() error {
	return filesystem.API().Walk(dir(), func(path string, info fs.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if time.Since(info.ModTime()) > TTL {
			_ = filesystem.API().Remove(path)
		}
		return nil
	})
}
