/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	keyring "github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal, so older builds tolerate newer files.

type BackendConfig struct {
	// DSN points at the optional Postgres score library. Empty disables the backend.
	DSN         string `yaml:"dsn"`
	TimeoutMs   int    `yaml:"timeout_ms"`
	TLSInsecure bool   `yaml:"tls_insecure"`
	// Password is not stored on disk; it lives in the OS keychain.
}

type GeneralConfig struct {
	TelemetryOptIn bool `yaml:"telemetry_opt_in"`
	EnableBackend  bool `yaml:"enable_backend"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// ExportConfig carries defaults for the exporters. All values can be
// overridden per call through export options.
type ExportConfig struct {
	LilyPondVersion string `yaml:"lilypond_version"`
	Language        string `yaml:"language"` // LilyPond pitch-name language
	TicksPerQuarter int    `yaml:"ticks_per_quarter"`
	Title           string `yaml:"title"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Backend       BackendConfig `yaml:"backend"`
	Logging       LoggingConfig `yaml:"logging"`
	Export        ExportConfig  `yaml:"export"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false, EnableBackend: false},
		Backend:       BackendConfig{DSN: "", TimeoutMs: 15000, TLSInsecure: false},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
		Export:        ExportConfig{LilyPondVersion: "2.24.0", Language: "english", TicksPerQuarter: 480, Title: ""},
	}
}

// Env var names used as overrides.
const (
	EnvBackendDSN       = "NW_BACKEND_DSN"
	EnvBackendTimeoutMs = "NW_BACKEND_TIMEOUT_MS"
	EnvBackendTLSInsec  = "NW_TLS_INSECURE"
	EnvTelemetryOptIn   = "NW_TELEMETRY_OPT_IN"
	EnvEnableBackend    = "NW_ENABLE_BACKEND"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "NW_LOG_LEVEL"
	EnvLogFormat = "NW_LOG_FORMAT"
	EnvLogSource = "NW_LOG_SOURCE"
	EnvLogFile   = "NW_LOG_FILE"
	// Export envs
	EnvLilyPondVersion = "NW_LILYPOND_VERSION"
	EnvLilyLanguage    = "NW_LILYPOND_LANGUAGE"
)

// Service/keys for OS keyring.
const (
	keyringService  = "NoteWright"
	keyringPassword = "backend_password"
)

// tokenStore abstracts keyring, so we can stub in tests.
var tokenStore TokenStore = &osKeyring{}

type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// osKeyring implements TokenStore using the OS keyring via github.com/zalando/go-keyring.
type osKeyring struct{}

func (k *osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (k *osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (k *osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "NoteWright")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "NoteWright")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "notewright")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
// It also loads the backend password from the keyring (not kept inside the struct; returned separately).
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	// password from keyring
	pw, _ := tokenStore.Get(keyringService, keyringPassword)
	return cfg, pw, nil
}

// Save writes the user config YAML and persists the password into the OS keyring (if non-empty).
func Save(cfg AppConfig, password string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if password != "" {
		if err := tokenStore.Set(keyringService, keyringPassword, password); err != nil {
			return err
		}
	}
	return nil
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	dst.General.EnableBackend = src.General.EnableBackend
	if src.Backend.DSN != "" {
		dst.Backend.DSN = src.Backend.DSN
	}
	if src.Backend.TimeoutMs != 0 {
		dst.Backend.TimeoutMs = src.Backend.TimeoutMs
	}
	dst.Backend.TLSInsecure = src.Backend.TLSInsecure
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
	// export defaults
	if strings.TrimSpace(src.Export.LilyPondVersion) != "" {
		dst.Export.LilyPondVersion = strings.TrimSpace(src.Export.LilyPondVersion)
	}
	if strings.TrimSpace(src.Export.Language) != "" {
		dst.Export.Language = strings.ToLower(strings.TrimSpace(src.Export.Language))
	}
	if src.Export.TicksPerQuarter > 0 {
		dst.Export.TicksPerQuarter = src.Export.TicksPerQuarter
	}
	if strings.TrimSpace(src.Export.Title) != "" {
		dst.Export.Title = src.Export.Title
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvBackendDSN)); v != "" {
		cfg.Backend.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendTimeoutMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Backend.TimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendTLSInsec)); v != "" {
		cfg.Backend.TLSInsecure = isTruthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.General.TelemetryOptIn = isTruthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvEnableBackend)); v != "" {
		cfg.General.EnableBackend = isTruthy(v)
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = isTruthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
	// export overrides
	if v := strings.TrimSpace(os.Getenv(EnvLilyPondVersion)); v != "" {
		cfg.Export.LilyPondVersion = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLilyLanguage)); v != "" {
		cfg.Export.Language = strings.ToLower(v)
	}
}

func isTruthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	switch key {
	case "backend.dsn":
		if os.Getenv(EnvBackendDSN) != "" {
			return EnvBackendDSN, true
		}
	case "backend.timeout_ms":
		if os.Getenv(EnvBackendTimeoutMs) != "" {
			return EnvBackendTimeoutMs, true
		}
	case "backend.tls_insecure":
		if os.Getenv(EnvBackendTLSInsec) != "" {
			return EnvBackendTLSInsec, true
		}
	case "general.telemetry_opt_in":
		if os.Getenv(EnvTelemetryOptIn) != "" {
			return EnvTelemetryOptIn, true
		}
	case "general.enable_backend":
		if os.Getenv(EnvEnableBackend) != "" {
			return EnvEnableBackend, true
		}
	case "logging.level":
		if os.Getenv(EnvLogLevel) != "" {
			return EnvLogLevel, true
		}
	case "logging.format":
		if os.Getenv(EnvLogFormat) != "" {
			return EnvLogFormat, true
		}
	case "logging.source":
		if os.Getenv(EnvLogSource) != "" {
			return EnvLogSource, true
		}
	case "logging.file":
		if os.Getenv(EnvLogFile) != "" {
			return EnvLogFile, true
		}
	case "export.lilypond_version":
		if os.Getenv(EnvLilyPondVersion) != "" {
			return EnvLilyPondVersion, true
		}
	case "export.language":
		if os.Getenv(EnvLilyLanguage) != "" {
			return EnvLilyLanguage, true
		}
	}
	return "", false
}
