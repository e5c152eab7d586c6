package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"sduisync/internal/auth"
	"sduisync/internal/calendar"
	"sduisync/internal/config"
	"sduisync/internal/runstate"
	"sduisync/internal/sdui"
	"sduisync/internal/sync"
	"sduisync/internal/web"
)

func printHelp() {
	fmt.Fprintf(os.Stderr, `SDUI Calendar Sync

Synchronizes a school timetable from the SDUI API into a calendar
(Google Calendar or any CalDAV server). Lessons, substitutions, room
changes, exams, holidays and school events become color-coded calendar
events. Runs are triggered and observed through a small JSON HTTP API.

USAGE:
    %s [OPTIONS]

OPTIONS:
    -h, --help              Show this help message and exit
    --config FILE           Path to JSON config file (optional)
    --sdui-token TOKEN      SDUI API bearer token
                            (overrides config file and SDUI_AUTH_TOKEN env var)
    --sdui-user-id ID       SDUI user id whose timetable is synced
                            (overrides config file and SDUI_USER_ID env var)
    --calendar-id ID        Target calendar id (default: "primary")
                            (overrides config file and GOOGLE_CALENDAR_ID env var)
    --timezone TZ           IANA timezone for event times (default: "Europe/Berlin")
                            (overrides config file and TIMEZONE env var)
    --listen ADDR           HTTP listen address (default: "127.0.0.1:5000")

CONFIGURATION PRECEDENCE (highest to lowest):
    1. Command-line flags
    2. Environment variables
    3. Config file (--config)
    4. Defaults

CONFIG FILE:
    Settings can be specified in a JSON config file. Example:
    {
      "sdui_token": "...",
      "sdui_user_id": "12345",
      "calendar_id": "primary",
      "timezone": "Europe/Berlin",
      "sync_year": 2026,
      "provider": "google",
      "google_credentials_path": "/path/to/credentials.json",
      "google_token_path": "/path/to/token.json"
    }

    For a CalDAV server, set "provider" to "caldav" and configure
    "caldav_server_url", "caldav_username" and "caldav_password".
    The calendar_id is then the calendar collection path on the server.

    The Google credentials JSON file should be in the format downloaded
    from the Google Cloud Console, containing either an "installed" or
    "web" section with "client_id" and "client_secret" fields.

ENVIRONMENT VARIABLES:
    SDUI_AUTH_TOKEN           SDUI API bearer token
    SDUI_USER_ID              SDUI user id whose timetable is synced
    GOOGLE_CALENDAR_ID        Target calendar id
    TIMEZONE                  IANA timezone for event times
    GOOGLE_CREDENTIALS_PATH   Path to Google OAuth credentials JSON file
    GOOGLE_TOKEN_PATH         Path to store the Google OAuth token

HTTP API:
    GET  /health              Liveness check
    GET  /api/status          Run log and running flag
    POST /api/sync            Sync a custom date range {"start","end"} (YYYY-MM-DD)
    POST /api/sync/today      Sync today's timetable
    POST /api/sync/week       Sync one ISO week of the configured year {"week"}
    POST /api/clear           Delete events in a date range {"start","end"}
    POST /api/clear/weeks     Delete events in a week span {"start_week","end_week"}
    POST /api/stop            Stop the active run
    POST /api/logs/clear      Empty the run log
    GET  /api/config          Current configuration (token never echoed)
    POST /api/config          Partial configuration update

    Sync and clear runs execute in the background; only one run is
    active at a time. Progress is reported via /api/status.

AUTHENTICATION:
    Google Calendar uses OAuth 2.0; on first run you will be prompted to
    authorize in the browser, after which the token is stored and
    refreshed automatically. CalDAV servers use basic auth with an
    app-specific password where the provider uses them.

EXAMPLES:
    # Run with a config file
    %s --config /path/to/config.json

    # Run with credentials from the environment
    SDUI_AUTH_TOKEN="..." SDUI_USER_ID="12345" %s --calendar-id primary

    # Trigger a sync of calendar week 12
    curl -X POST localhost:5000/api/sync/week -d '{"week":12}'

`, os.Args[0], os.Args[0], os.Args[0])
}

func main() {
	helpFlag := flag.Bool("help", false, "Show help message")
	helpFlagShort := flag.Bool("h", false, "Show help message (shorthand)")
	configFile := flag.String("config", "", "Path to JSON config file (optional)")
	sduiToken := flag.String("sdui-token", "", "SDUI API bearer token (overrides config file and SDUI_AUTH_TOKEN env var)")
	sduiUserID := flag.String("sdui-user-id", "", "SDUI user id whose timetable is synced (overrides config file and SDUI_USER_ID env var)")
	calendarID := flag.String("calendar-id", "", "Target calendar id (overrides config file and GOOGLE_CALENDAR_ID env var)")
	timezone := flag.String("timezone", "", "IANA timezone for event times (overrides config file and TIMEZONE env var)")
	listen := flag.String("listen", "", "HTTP listen address")
	flag.Parse()

	if *helpFlag || *helpFlagShort {
		printHelp()
		os.Exit(0)
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)

	ctx := context.Background()

	cfg, err := config.LoadConfig(*configFile, config.Flags{
		SDUIToken:  *sduiToken,
		SDUIUserID: *sduiUserID,
		CalendarID: *calendarID,
		Timezone:   *timezone,
		Listen:     *listen,
	})
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.SDUIToken == "" || cfg.SDUIUserID == "" {
		log.Printf("WARNING: SDUI token or user id not configured; sync runs will fail until set via /api/config")
	}

	cal, err := newCalendarClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create calendar client: %v", err)
	}

	state := runstate.NewController()
	fetcher := sdui.NewClient(sdui.DefaultBaseURL, state)

	engine, err := sync.NewEngine(cfg, state, cal, fetcher)
	if err != nil {
		log.Fatalf("Failed to create sync engine: %v", err)
	}

	server := web.NewServer(engine)
	log.Printf("Listening on http://%s (provider: %s, calendar: %s)", cfg.Listen, cfg.Provider, cfg.CalendarID)
	if err := server.ListenAndServe(cfg.Listen); err != nil && err != http.ErrServerClosed {
		log.Fatalf("HTTP server failed: %v", err)
	}
}

// newCalendarClient builds the calendar client for the configured
// provider.
func newCalendarClient(ctx context.Context, cfg *config.Config) (calendar.Client, error) {
	switch cfg.Provider {
	case config.ProviderCalDAV:
		return calendar.NewCalDAVClient(cfg.CalDAVServerURL, cfg.CalDAVUsername, cfg.CalDAVPassword), nil

	case config.ProviderGoogle:
		clientID, clientSecret, err := config.LoadGoogleCredentials(cfg.GoogleCredentialsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load Google credentials: %w", err)
		}

		tokenStore := auth.NewFileTokenStore(cfg.GoogleTokenPath)
		httpClient, err := auth.HTTPClient(ctx, auth.GoogleConfig(clientID, clientSecret), tokenStore)
		if err != nil {
			return nil, fmt.Errorf("failed to authenticate: %w", err)
		}

		return calendar.NewGoogleClient(ctx, httpClient)

	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
