// Package config resolves the store location and environment overrides
// (spec.md §6.2). It mirrors the teacher's precedence-search Initialize()
// (locate a config file, bind environment variables over it, expose typed
// getters through a package-level viper singleton) but points at tatl's
// bespoke "<home>/<app-dir>/rc" key=value file instead of YAML — see
// DESIGN.md for why that one piece is hand-parsed rather than viper-native.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const appDirName = ".tatl"

var v *viper.Viper

// RCFile is the absolute path to the rc file Initialize loaded, or "" if
// none was found.
var RCFile string

// Initialize sets up the viper configuration singleton: defaults, then the
// rc file (if present), then environment variable overlay (highest
// precedence, spec.md §6.2's "Environment and persisted state").
func Initialize() error {
	v = viper.New()

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("config: resolve home directory: %w", err)
	}
	dataDir := filepath.Join(home, appDirName)

	v.SetDefault("data.location", filepath.Join(dataDir, "ledger.db"))
	v.SetDefault("json", false)
	v.SetDefault("no-color", false)
	v.SetDefault("auto-create-project", false)
	v.SetDefault("timezone", "")

	rcPath := filepath.Join(dataDir, "rc")
	if _, err := os.Stat(rcPath); err == nil {
		settings, err := parseRCFile(rcPath)
		if err != nil {
			return fmt.Errorf("config: read rc file %s: %w", rcPath, err)
		}
		for key, val := range settings {
			if key == "data.location" && !filepath.IsAbs(val) {
				val = filepath.Join(dataDir, val)
			}
			v.SetDefault(key, val)
		}
		RCFile = rcPath
	}

	v.SetEnvPrefix("TATL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return nil
}

// parseRCFile reads "key=value" lines (spec.md §6.2). Blank lines and lines
// starting with "#" are ignored. The only key the store layer consumes is
// data.location, but unrecognized keys are preserved rather than rejected so
// the file can grow without this parser needing to know every key in advance.
func parseRCFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	settings := make(map[string]string)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: expected key=value, got %q", lineNo, line)
		}
		settings[strings.TrimSpace(key)] = strings.TrimSpace(val)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return settings, nil
}

// DataLocation returns the resolved store file path (spec.md §6.2).
func DataLocation() string {
	return GetString("data.location")
}

// GetString retrieves a string configuration value.
func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

// GetBool retrieves a boolean configuration value.
func GetBool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

// Set overrides a configuration value, used for flag-over-env-over-file
// precedence (flags are applied last by the CLI layer after Initialize).
func Set(key string, value interface{}) {
	if v != nil {
		v.Set(key, value)
	}
}
