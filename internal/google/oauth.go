package google

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/rejectlabel/internal/instrumentation"
	"github.com/teemow/rejectlabel/internal/logging"
)

// DefaultScopes grants read access plus label changes. It does not allow
// permanent deletion.
var DefaultScopes = []string{gmail.GmailModifyScope}

const (
	DefaultCredentialsFile = "credentials.json"
	DefaultTokenFile       = "token.json"
	DefaultLoginTimeout    = 5 * time.Minute
)

// Sentinel errors of the interactive login.
var (
	ErrStateMismatch = errors.New("oauth state mismatch")
	ErrConsentDenied = errors.New("consent denied")
	ErrLoginTimeout  = errors.New("timed out waiting for browser login")
	// ErrTokenRefresh wraps a refresh the token endpoint rejected, usually
	// because the refresh token was revoked or expired.
	ErrTokenRefresh = errors.New("failed to refresh token")
)

// AuthConfig configures an Authenticator.
type AuthConfig struct {
	CredentialsPath string
	TokenPath       string
	Scopes          []string

	// NoBrowser only prints the consent URL instead of also opening it.
	NoBrowser bool

	// ForceLogin ignores any cached token and always runs the browser flow.
	ForceLogin bool

	// Out receives the consent URL. Defaults to os.Stderr.
	Out io.Writer

	LoginTimeout time.Duration

	Logger  logging.Logger
	Metrics *instrumentation.Metrics
}

// Authenticator produces HTTP clients authorized for the configured scopes.
type Authenticator struct {
	config AuthConfig

	// openURL launches the consent page. Replaced in tests.
	openURL func(string) error
}

// NewAuthenticator fills unset fields of cfg with defaults.
func NewAuthenticator(cfg AuthConfig) *Authenticator {
	if cfg.CredentialsPath == "" {
		cfg.CredentialsPath = DefaultCredentialsFile
	}
	if cfg.TokenPath == "" {
		cfg.TokenPath = DefaultTokenFile
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = slices.Clone(DefaultScopes)
	}
	if cfg.Out == nil {
		cfg.Out = os.Stderr
	}
	if cfg.LoginTimeout <= 0 {
		cfg.LoginTimeout = DefaultLoginTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewSlogAdapter(nil)
	}
	return &Authenticator{config: cfg, openURL: openBrowser}
}

// LoadClientConfig reads an installed-app client secret file.
func LoadClientConfig(path string, scopes []string) (*oauth2.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read client secret file: %w", err)
	}
	conf, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse client secret file %s: %w", path, err)
	}
	return conf, nil
}

// Token returns a credential covering the configured scopes. A cached token
// is reused when valid and refreshed when expired. Otherwise the browser
// login runs. Any new or refreshed token is written to the token file.
func (a *Authenticator) Token(ctx context.Context) (*StoredToken, *oauth2.Config, error) {
	conf, err := LoadClientConfig(a.config.CredentialsPath, a.config.Scopes)
	if err != nil {
		return nil, nil, err
	}

	if a.config.ForceLogin {
		stored, err := a.interactive(ctx, conf)
		if err != nil {
			return nil, nil, err
		}
		return stored, conf, nil
	}

	stored, err := LoadToken(a.config.TokenPath)
	switch {
	case err != nil:
		a.config.Logger.Debug("no usable cached token", logging.Err(err))
	case !stored.Covers(a.config.Scopes):
		a.config.Logger.Info("cached token does not cover required scopes, logging in again",
			"granted", stored.Scopes, "required", a.config.Scopes)
	case stored.OAuth2().Valid():
		a.config.Metrics.RecordOAuthAuth(ctx, instrumentation.OAuthMethodCached, instrumentation.OAuthResultSuccess)
		a.config.Logger.Debug("using cached token")
		return stored, conf, nil
	case stored.RefreshToken != "":
		refreshed, err := a.refresh(ctx, conf, stored)
		if err != nil {
			return nil, nil, err
		}
		return refreshed, conf, nil
	default:
		a.config.Logger.Info("cached token expired without refresh token, logging in again")
	}

	stored, err = a.interactive(ctx, conf)
	if err != nil {
		return nil, nil, err
	}
	return stored, conf, nil
}

// Login is Token for an explicit login: a cached token whose refresh is
// rejected is replaced through the browser flow instead of failing.
func (a *Authenticator) Login(ctx context.Context) (*StoredToken, error) {
	stored, _, err := a.Token(ctx)
	if err == nil || !errors.Is(err, ErrTokenRefresh) {
		return stored, err
	}

	a.config.Logger.Warn("stored token could not be refreshed, starting browser login", logging.Err(err))
	conf, err := LoadClientConfig(a.config.CredentialsPath, a.config.Scopes)
	if err != nil {
		return nil, err
	}
	return a.interactive(ctx, conf)
}

// interactive runs the browser login and saves the resulting token.
func (a *Authenticator) interactive(ctx context.Context, conf *oauth2.Config) (*StoredToken, error) {
	tok, err := a.login(ctx, conf)
	if err != nil {
		a.config.Metrics.RecordOAuthAuth(ctx, instrumentation.OAuthMethodInteractive, instrumentation.OAuthResultFailure)
		return nil, err
	}
	stored := NewStoredToken(tok, grantedScopes(tok, a.config.Scopes))
	if err := SaveToken(a.config.TokenPath, stored); err != nil {
		return nil, err
	}
	a.config.Metrics.RecordOAuthAuth(ctx, instrumentation.OAuthMethodInteractive, instrumentation.OAuthResultSuccess)
	a.config.Logger.Info("login complete, token saved", "path", a.config.TokenPath)
	return stored, nil
}

func (a *Authenticator) refresh(ctx context.Context, conf *oauth2.Config, stored *StoredToken) (*StoredToken, error) {
	tok, err := conf.TokenSource(ctx, stored.OAuth2()).Token()
	if err != nil {
		a.config.Metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultFailure)
		a.config.Metrics.RecordOAuthAuth(ctx, instrumentation.OAuthMethodRefresh, instrumentation.OAuthResultFailure)
		return nil, fmt.Errorf("%w: %w", ErrTokenRefresh, err)
	}
	a.config.Metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultSuccess)

	refreshed := NewStoredToken(tok, stored.Scopes)
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = stored.RefreshToken
	}
	if err := SaveToken(a.config.TokenPath, refreshed); err != nil {
		return nil, err
	}
	a.config.Metrics.RecordOAuthAuth(ctx, instrumentation.OAuthMethodRefresh, instrumentation.OAuthResultSuccess)
	a.config.Logger.Debug("token refreshed", "expiry", refreshed.Expiry)
	return refreshed, nil
}

// Client returns an HTTP client that authorizes requests with the user's
// token. Tokens refreshed while the client is in use are saved as well.
func (a *Authenticator) Client(ctx context.Context) (*http.Client, error) {
	stored, conf, err := a.Token(ctx)
	if err != nil {
		return nil, err
	}

	src := &persistingTokenSource{
		base:   conf.TokenSource(ctx, stored.OAuth2()),
		last:   stored,
		path:   a.config.TokenPath,
		logger: a.config.Logger,
		ctx:    ctx,
		m:      a.config.Metrics,
	}

	// HTTP/1.1 only.
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.ReuseTokenSource(stored.OAuth2(), src),
			Base:   &http.Transport{Proxy: http.ProxyFromEnvironment, ForceAttemptHTTP2: false},
		},
	}, nil
}

// persistingTokenSource saves every token that differs from the last one
// written, so a rotation mid-run survives the process.
type persistingTokenSource struct {
	base   oauth2.TokenSource
	path   string
	logger logging.Logger
	ctx    context.Context
	m      *instrumentation.Metrics

	mu   sync.Mutex
	last *StoredToken
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		s.m.RecordOAuthTokenRefresh(s.ctx, instrumentation.OAuthResultFailure)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken == s.last.AccessToken {
		return tok, nil
	}

	s.m.RecordOAuthTokenRefresh(s.ctx, instrumentation.OAuthResultSuccess)
	next := NewStoredToken(tok, s.last.Scopes)
	if next.RefreshToken == "" {
		next.RefreshToken = s.last.RefreshToken
	}
	if err := SaveToken(s.path, next); err != nil {
		// The fresh token is still usable for this run.
		s.logger.Warn("failed to save refreshed token", logging.Err(err))
		return tok, nil
	}
	s.last = next
	return tok, nil
}
