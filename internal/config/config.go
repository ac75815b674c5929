// Package config provides configuration management for FleetDesk. Every
// value comes from the environment with a FLEETDESK_ prefix and a sensible
// development default.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the runtime configuration
type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	CORS     CORSConfig
	Database DatabaseConfig
	Storage  StorageConfig
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port         string
	Mode         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// AuthConfig holds authentication settings
type AuthConfig struct {
	JWTSecret     string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins   []string
	AllowCredentials bool
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// StorageConfig selects the kvstore backend for per-entity UI state
// (column customization, filter presets). Driver is "file" or a SQL driver
// name ("postgres", "mysql").
type StorageConfig struct {
	Driver string
	// Dir is the snapshot directory for the file backend.
	Dir string
	// DSN is the connection string for a SQL backend.
	DSN string
}

// DSN renders the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// Load reads the full configuration from the environment.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         get("SERVER_PORT", "8090"),
			Mode:         get("SERVER_MODE", "debug"),
			ReadTimeout:  time.Duration(getInt("SERVER_READ_TIMEOUT", 30)) * time.Second,
			WriteTimeout: time.Duration(getInt("SERVER_WRITE_TIMEOUT", 30)) * time.Second,
		},
		Auth: AuthConfig{
			JWTSecret:     get("JWT_SECRET", ""),
			AccessExpiry:  time.Duration(getInt("JWT_ACCESS_EXPIRY_HOURS", 24)) * time.Hour,
			RefreshExpiry: time.Duration(getInt("JWT_REFRESH_EXPIRY_HOURS", 168)) * time.Hour,
		},
		CORS: CORSConfig{
			AllowedOrigins:   splitString(get("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8090")),
			AllowCredentials: getBool("CORS_ALLOW_CREDENTIALS", true),
		},
		Database: DatabaseConfig{
			Host:     get("DB_HOST", "localhost"),
			Port:     get("DB_PORT", "5432"),
			User:     get("DB_USER", "fleetdesk"),
			Password: get("DB_PASSWORD", "fleetdesk"),
			Name:     get("DB_NAME", "fleetdesk"),
			SSLMode:  get("DB_SSLMODE", "disable"),
		},
		Storage: StorageConfig{
			Driver: get("STORAGE_DRIVER", "file"),
			Dir:    get("STORAGE_DIR", "./data/state"),
			DSN:    get("STORAGE_DSN", ""),
		},
	}
}

func get(key, fallback string) string {
	if v := os.Getenv("FLEETDESK_" + key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := get(key, "")
	if v == "" {
		return fallback
	}
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v := get(key, "")
	if v == "" {
		return fallback
	}
	return v == "true" || v == "1" || v == "yes"
}

// splitString splits a comma-separated string into a trimmed slice
func splitString(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
