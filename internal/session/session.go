package session

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/smartinbox/internal/instrumentation"
)

// Scopes is the fixed scope set requested at authorization time.
var Scopes = []string{
	gmail.GmailReadonlyScope,
	gmail.GmailModifyScope,
	gmail.GmailSendScope,
	gmail.GmailSettingsBasicScope,
}

// Session holds the single access credential. Its presence is the only
// authentication state; there is no refresh and no expiry tracking.
type Session struct {
	mu      sync.Mutex
	token   string
	metrics *instrumentation.Metrics
}

// New returns an empty session. metrics may be nil.
func New(metrics *instrumentation.Metrics) *Session {
	return &Session{metrics: metrics}
}

// Set stores token, replacing any previous credential. An empty token clears
// the session.
func (s *Session) Set(token string) {
	if token == "" {
		s.Clear()
		return
	}

	s.mu.Lock()
	had := s.token != ""
	s.token = token
	s.mu.Unlock()

	if !had {
		s.metrics.RecordSessionEvent(context.Background(), instrumentation.SessionEventLogin)
	}
}

// Token returns the current credential, or "".
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Authenticated reports whether a credential is held.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// Clear drops the credential (explicit logout).
func (s *Session) Clear() {
	s.clear(instrumentation.SessionEventLogout)
}

// Expire drops the credential after the provider rejected it.
func (s *Session) Expire() {
	s.clear(instrumentation.SessionEventExpired)
}

func (s *Session) clear(event string) {
	s.mu.Lock()
	had := s.token != ""
	s.token = ""
	s.mu.Unlock()

	if had {
		s.metrics.RecordSessionEvent(context.Background(), event)
	}
}

// AuthConfig describes the OAuth client used for the implicit flow.
type AuthConfig struct {
	ClientID    string
	RedirectURI string
}

// AuthURL builds the implicit-flow authorization URL. The credential comes
// back as the access_token parameter of the redirect URI's fragment.
func AuthURL(cfg AuthConfig) (string, error) {
	if cfg.ClientID == "" {
		return "", fmt.Errorf("client id is required")
	}
	if cfg.RedirectURI == "" {
		return "", fmt.Errorf("redirect uri is required")
	}

	oc := &oauth2.Config{
		ClientID:    cfg.ClientID,
		Endpoint:    google.Endpoint,
		RedirectURL: cfg.RedirectURI,
		Scopes:      Scopes,
	}

	return oc.AuthCodeURL("",
		oauth2.SetAuthURLParam("response_type", "token"),
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	), nil
}

// TokenFromFragment extracts access_token from a redirect URL fragment. The
// leading '#' is optional; a full redirect URL is also accepted.
func TokenFromFragment(fragment string) (string, error) {
	if i := strings.IndexByte(fragment, '#'); i >= 0 {
		fragment = fragment[i+1:]
	}

	values, err := url.ParseQuery(fragment)
	if err != nil {
		return "", fmt.Errorf("parse fragment: %w", err)
	}
	if e := values.Get("error"); e != "" {
		return "", fmt.Errorf("authorization failed: %s", e)
	}

	token := values.Get("access_token")
	if token == "" {
		return "", fmt.Errorf("no access_token in fragment")
	}
	return token, nil
}
