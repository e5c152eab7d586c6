// Package auth handles the interactive Google OAuth flow and token
// persistence, so the sync service only needs a browser once and can
// restart headless afterwards.
package auth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const authTimeout = 5 * time.Minute

// TokenStore saves and loads OAuth tokens across restarts.
type TokenStore interface {
	SaveToken(token *oauth2.Token) error
	LoadToken() (*oauth2.Token, error)
}

// GoogleConfig builds the OAuth config for the Google Calendar scope.
func GoogleConfig(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       []string{"https://www.googleapis.com/auth/calendar"},
		Endpoint:     google.Endpoint,
	}
}

// savingTokenSource persists refreshed tokens so a restart never has to
// repeat the interactive flow.
type savingTokenSource struct {
	src   oauth2.TokenSource
	store TokenStore
	last  *oauth2.Token
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.src.Token()
	if err != nil {
		return nil, err
	}

	if s.last == nil || s.last.AccessToken != token.AccessToken {
		if err := s.store.SaveToken(token); err != nil {
			return nil, fmt.Errorf("failed to save refreshed token: %w", err)
		}
		s.last = token
	}

	return token, nil
}

// HTTPClient returns an HTTP client authenticated against Google. A
// stored token is reused when present; otherwise the interactive
// consent flow runs once, with the authorization code delivered to a
// local callback server. Refreshed tokens are written back to the
// store.
func HTTPClient(ctx context.Context, conf *oauth2.Config, store TokenStore) (*http.Client, error) {
	token, err := store.LoadToken()
	if err != nil {
		return nil, fmt.Errorf("failed to load token: %w", err)
	}

	if token == nil {
		token, err = authorize(ctx, conf)
		if err != nil {
			return nil, err
		}
		if err := store.SaveToken(token); err != nil {
			return nil, fmt.Errorf("failed to save token: %w", err)
		}
	}

	src := &savingTokenSource{
		src:   oauth2.ReuseTokenSource(token, conf.TokenSource(ctx, token)),
		store: store,
		last:  token,
	}
	return oauth2.NewClient(ctx, src), nil
}

// authorize runs the interactive consent flow: print the consent URL,
// wait for the redirect on a local callback server, and exchange the
// received code.
func authorize(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error) {
	redirectURL, codes, errs, err := startCallbackServer()
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}
	conf.RedirectURL = redirectURL

	authURL := conf.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce)

	fmt.Printf("Listening for the OAuth callback on %s\n", redirectURL)
	if redirectURL != "http://127.0.0.1:8080" {
		fmt.Printf("Note: port 8080 was unavailable. Add %s to the authorized redirect URIs in the Google Cloud Console.\n", redirectURL)
	}
	fmt.Println("\nVisit the following URL to authorize the application:")
	fmt.Println(authURL)
	fmt.Println("\nWaiting for authorization...")

	var code string
	select {
	case code = <-codes:
	case err := <-errs:
		return nil, fmt.Errorf("failed to receive authorization code: %w", err)
	case <-time.After(authTimeout):
		return nil, fmt.Errorf("authorization timeout: no response within %s", authTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return token, nil
}

// startCallbackServer listens for the OAuth redirect on localhost.
// Port 8080 is preferred, matching the redirect URI most credentials
// are registered with; any free port works as a fallback.
func startCallbackServer() (string, <-chan string, <-chan error, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:8080")
	if err != nil {
		listener, err = net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return "", nil, nil, err
		}
	}

	port := listener.Addr().(*net.TCPAddr).Port
	redirectURL := fmt.Sprintf("http://127.0.0.1:%d", port)

	codes := make(chan string, 1)
	errs := make(chan error, 1)

	server := &http.Server{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  10 * time.Second,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Query().Get("code") != "":
			fmt.Fprint(w, "<html><body><h1>Authorization successful</h1><p>You can close this window.</p></body></html>")
			codes <- r.URL.Query().Get("code")
		case r.URL.Query().Get("error") != "":
			msg := r.URL.Query().Get("error")
			fmt.Fprintf(w, "<html><body><h1>Authorization failed</h1><p>Error: %s</p></body></html>", msg)
			errs <- fmt.Errorf("authorization error: %s", msg)
		default:
			fmt.Fprint(w, "<html><body><h1>No authorization code received</h1></body></html>")
			errs <- fmt.Errorf("no authorization code received")
		}

		// Give the response time to flush before shutting down.
		go func() {
			time.Sleep(time.Second)
			server.Shutdown(context.Background())
		}()
	})
	server.Handler = mux

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errs <- fmt.Errorf("callback server error: %w", err)
		}
	}()

	return redirectURL, codes, errs, nil
}
