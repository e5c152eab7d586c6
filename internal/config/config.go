package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// ProviderGoogle and ProviderCalDAV select the calendar backend.
const (
	ProviderGoogle = "google"
	ProviderCalDAV = "caldav"
)

// Config holds the configuration for the timetable sync service.
//
// SDUIToken and SDUIUserID authenticate against the SDUI API; CalendarID,
// Timezone and SyncYear drive the sync engine. The remaining fields wire
// up the calendar provider and the HTTP listener.
type Config struct {
	SDUIToken  string `json:"sdui_token,omitempty"`
	SDUIUserID string `json:"sdui_user_id,omitempty"`
	CalendarID string `json:"calendar_id,omitempty"`
	Timezone   string `json:"timezone,omitempty"`
	SyncYear   int    `json:"sync_year,omitempty"`

	Provider string `json:"provider,omitempty"`
	Listen   string `json:"listen,omitempty"`

	// Google provider settings.
	GoogleCredentialsPath string `json:"google_credentials_path,omitempty"`
	GoogleTokenPath       string `json:"google_token_path,omitempty"`

	// CalDAV provider settings.
	CalDAVServerURL string `json:"caldav_server_url,omitempty"`
	CalDAVUsername  string `json:"caldav_username,omitempty"`
	CalDAVPassword  string `json:"caldav_password,omitempty"`
}

// GoogleCredentials represents the structure of a Google OAuth
// credentials JSON file as downloaded from the Cloud Console.
type GoogleCredentials struct {
	Installed struct {
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`
	} `json:"installed"`
	Web struct {
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`
	} `json:"web"`
}

// LoadGoogleCredentials loads Google OAuth credentials from a JSON file.
func LoadGoogleCredentials(path string) (clientID, clientSecret string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to read credentials file: %w", err)
	}

	var creds GoogleCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return "", "", fmt.Errorf("failed to parse credentials file: %w", err)
	}

	// Try "installed" first (for desktop apps), then "web"
	if creds.Installed.ClientID != "" {
		return creds.Installed.ClientID, creds.Installed.ClientSecret, nil
	}
	if creds.Web.ClientID != "" {
		return creds.Web.ClientID, creds.Web.ClientSecret, nil
	}

	return "", "", fmt.Errorf("no client_id found in credentials file (expected 'installed' or 'web' section)")
}

// LoadConfigFromFile loads configuration from a JSON file.
func LoadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// Flags carries command-line overrides into LoadConfig. Empty fields are
// treated as unset.
type Flags struct {
	SDUIToken  string
	SDUIUserID string
	CalendarID string
	Timezone   string
	Listen     string
}

// LoadConfig loads configuration with the following precedence (highest
// to lowest):
// 1. Command-line flags
// 2. Environment variables
// 3. Config file
// 4. Defaults
func LoadConfig(configFile string, flags Flags) (*Config, error) {
	var config Config

	// Step 1: Load from config file if provided
	if configFile != "" {
		fileConfig, err := LoadConfigFromFile(configFile)
		if err != nil {
			return nil, err
		}
		config = *fileConfig
	}

	// Step 2: Override with environment variables
	if v := os.Getenv("SDUI_AUTH_TOKEN"); v != "" {
		config.SDUIToken = v
	}
	if v := os.Getenv("SDUI_USER_ID"); v != "" {
		config.SDUIUserID = v
	}
	if v := os.Getenv("GOOGLE_CALENDAR_ID"); v != "" {
		config.CalendarID = v
	}
	if v := os.Getenv("TIMEZONE"); v != "" {
		config.Timezone = v
	}
	if v := os.Getenv("GOOGLE_CREDENTIALS_PATH"); v != "" {
		config.GoogleCredentialsPath = v
	}
	if v := os.Getenv("GOOGLE_TOKEN_PATH"); v != "" {
		config.GoogleTokenPath = v
	}

	// Step 3: Override with command-line flags (highest priority)
	if flags.SDUIToken != "" {
		config.SDUIToken = flags.SDUIToken
	}
	if flags.SDUIUserID != "" {
		config.SDUIUserID = flags.SDUIUserID
	}
	if flags.CalendarID != "" {
		config.CalendarID = flags.CalendarID
	}
	if flags.Timezone != "" {
		config.Timezone = flags.Timezone
	}
	if flags.Listen != "" {
		config.Listen = flags.Listen
	}

	// Step 4: Apply defaults and validate
	if config.CalendarID == "" {
		config.CalendarID = "primary"
	}
	if config.Timezone == "" {
		config.Timezone = "Europe/Berlin"
	}
	if config.SyncYear == 0 {
		config.SyncYear = time.Now().Year()
	}
	if config.Provider == "" {
		config.Provider = ProviderGoogle
	}
	if config.Listen == "" {
		config.Listen = "127.0.0.1:5000"
	}

	switch config.Provider {
	case ProviderGoogle:
		if config.GoogleCredentialsPath == "" {
			return nil, fmt.Errorf("google_credentials_path must be provided via GOOGLE_CREDENTIALS_PATH environment variable or config file")
		}
		if config.GoogleTokenPath == "" {
			config.GoogleTokenPath = "token.json"
		}
	case ProviderCalDAV:
		if config.CalDAVServerURL == "" || config.CalDAVUsername == "" || config.CalDAVPassword == "" {
			return nil, fmt.Errorf("caldav_server_url, caldav_username and caldav_password must be provided in the config file")
		}
	default:
		return nil, fmt.Errorf("unknown provider %q (expected %q or %q)", config.Provider, ProviderGoogle, ProviderCalDAV)
	}

	if _, err := time.LoadLocation(config.Timezone); err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", config.Timezone, err)
	}

	return &config, nil
}
