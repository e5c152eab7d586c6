package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("SDUI_AUTH_TOKEN", "env-token")
	t.Setenv("SDUI_USER_ID", "557035")
	t.Setenv("GOOGLE_CALENDAR_ID", "school@group.calendar.google.com")
	t.Setenv("GOOGLE_CREDENTIALS_PATH", "/tmp/credentials.json")

	config, err := LoadConfig("", Flags{})
	if err != nil {
		t.Fatalf("LoadConfig() returned an error: %v", err)
	}

	if config.SDUIToken != "env-token" {
		t.Errorf("Expected SDUIToken to be 'env-token', got '%s'", config.SDUIToken)
	}
	if config.SDUIUserID != "557035" {
		t.Errorf("Expected SDUIUserID to be '557035', got '%s'", config.SDUIUserID)
	}
	if config.CalendarID != "school@group.calendar.google.com" {
		t.Errorf("Expected CalendarID from env, got '%s'", config.CalendarID)
	}

	// Defaults
	if config.Timezone != "Europe/Berlin" {
		t.Errorf("Expected default timezone, got '%s'", config.Timezone)
	}
	if config.Provider != ProviderGoogle {
		t.Errorf("Expected default provider, got '%s'", config.Provider)
	}
	if config.GoogleTokenPath != "token.json" {
		t.Errorf("Expected default token path, got '%s'", config.GoogleTokenPath)
	}
	if config.SyncYear == 0 {
		t.Error("Expected SyncYear default to be filled in")
	}
	if config.Listen != "127.0.0.1:5000" {
		t.Errorf("Expected default listen address, got '%s'", config.Listen)
	}
}

func TestLoadConfig_CommandLineFlags(t *testing.T) {
	// Command-line flags override environment variables
	t.Setenv("SDUI_AUTH_TOKEN", "env-token")
	t.Setenv("GOOGLE_CREDENTIALS_PATH", "/env/credentials.json")

	config, err := LoadConfig("", Flags{
		SDUIToken:  "flag-token",
		SDUIUserID: "42",
		Timezone:   "Europe/Kyiv",
		Listen:     "0.0.0.0:8080",
	})
	if err != nil {
		t.Fatalf("LoadConfig() returned an error: %v", err)
	}

	if config.SDUIToken != "flag-token" {
		t.Errorf("Expected flag to win over env, got '%s'", config.SDUIToken)
	}
	if config.SDUIUserID != "42" {
		t.Errorf("Expected SDUIUserID from flag, got '%s'", config.SDUIUserID)
	}
	if config.Timezone != "Europe/Kyiv" {
		t.Errorf("Expected Timezone from flag, got '%s'", config.Timezone)
	}
	if config.Listen != "0.0.0.0:8080" {
		t.Errorf("Expected Listen from flag, got '%s'", config.Listen)
	}
}

func TestLoadConfig_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{
		"sdui_token": "file-token",
		"sdui_user_id": "100",
		"calendar_id": "file-cal",
		"timezone": "Europe/Kyiv",
		"sync_year": 2026,
		"google_credentials_path": "/file/credentials.json",
		"google_token_path": "/file/token.json"
	}`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(path, Flags{})
	if err != nil {
		t.Fatalf("LoadConfig() returned an error: %v", err)
	}

	if config.SDUIToken != "file-token" {
		t.Errorf("Expected SDUIToken from file, got '%s'", config.SDUIToken)
	}
	if config.SyncYear != 2026 {
		t.Errorf("Expected SyncYear 2026, got %d", config.SyncYear)
	}
	if config.GoogleTokenPath != "/file/token.json" {
		t.Errorf("Expected token path from file, got '%s'", config.GoogleTokenPath)
	}
}

func TestLoadConfig_MissingGoogleCredentials(t *testing.T) {
	t.Setenv("GOOGLE_CREDENTIALS_PATH", "")

	if _, err := LoadConfig("", Flags{}); err == nil {
		t.Error("Expected an error when google_credentials_path is missing")
	}
}

func TestLoadConfig_CalDAVProvider(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{
		"provider": "caldav",
		"caldav_server_url": "https://caldav.example.com",
		"caldav_username": "user@example.com",
		"caldav_password": "app-password"
	}`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(path, Flags{})
	if err != nil {
		t.Fatalf("LoadConfig() returned an error: %v", err)
	}
	if config.Provider != ProviderCalDAV {
		t.Errorf("Expected caldav provider, got '%s'", config.Provider)
	}
}

func TestLoadConfig_CalDAVMissingCredentials(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"provider": "caldav"}`), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(path, Flags{}); err == nil {
		t.Error("Expected an error for caldav provider without credentials")
	}
}

func TestLoadConfig_UnknownProvider(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"provider": "exchange"}`), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(path, Flags{}); err == nil {
		t.Error("Expected an error for an unknown provider")
	}
}

func TestLoadConfig_InvalidTimezone(t *testing.T) {
	t.Setenv("GOOGLE_CREDENTIALS_PATH", "/tmp/credentials.json")
	t.Setenv("TIMEZONE", "Not/AZone")

	if _, err := LoadConfig("", Flags{}); err == nil {
		t.Error("Expected an error for an invalid timezone")
	}
}

func TestLoadGoogleCredentials(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.json")
	content := `{"installed": {"client_id": "id-123", "client_secret": "secret-456"}}`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	clientID, clientSecret, err := LoadGoogleCredentials(path)
	if err != nil {
		t.Fatalf("LoadGoogleCredentials() returned an error: %v", err)
	}
	if clientID != "id-123" || clientSecret != "secret-456" {
		t.Errorf("Unexpected credentials: %s / %s", clientID, clientSecret)
	}
}

func TestLoadGoogleCredentials_WebSection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.json")
	content := `{"web": {"client_id": "web-id", "client_secret": "web-secret"}}`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	clientID, _, err := LoadGoogleCredentials(path)
	if err != nil {
		t.Fatalf("LoadGoogleCredentials() returned an error: %v", err)
	}
	if clientID != "web-id" {
		t.Errorf("Expected web client id, got '%s'", clientID)
	}
}

func TestLoadGoogleCredentials_Empty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.json")
	if err := os.WriteFile(path, []byte(`{}`), 0600); err != nil {
		t.Fatal(err)
	}

	if _, _, err := LoadGoogleCredentials(path); err == nil {
		t.Error("Expected an error for credentials without a client_id")
	}
}
