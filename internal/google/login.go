package google

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"golang.org/x/oauth2"
)

const callbackPage = "Authorization complete. You can close this tab and return to the terminal."

// login runs the installed-app consent flow against a loopback listener on
// an ephemeral port and exchanges the returned code for a token.
func (a *Authenticator) login(ctx context.Context, base *oauth2.Config) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to start login listener: %w", err)
	}
	defer ln.Close()

	conf := *base
	conf.RedirectURL = fmt.Sprintf("http://%s/", ln.Addr().String())

	state, err := randomState()
	if err != nil {
		return nil, err
	}
	verifier := oauth2.GenerateVerifier()

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	srv := &http.Server{
		Handler:           callbackHandler(state, codeCh, errCh),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() { _ = srv.Serve(ln) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	authURL := conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.S256ChallengeOption(verifier),
	)

	_, _ = fmt.Fprintf(a.config.Out, "Please visit this URL to authorize this application:\n%s\n", authURL)
	if !a.config.NoBrowser {
		if err := a.openURL(authURL); err != nil {
			a.config.Logger.Warn("could not open browser, open the URL manually", "error", err.Error())
		}
	}

	select {
	case code := <-codeCh:
		tok, err := conf.Exchange(ctx, code, oauth2.VerifierOption(verifier))
		if err != nil {
			return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
		}
		if tok.RefreshToken == "" {
			a.config.Logger.Warn("no refresh token returned, the next expiry will require a new login")
		}
		return tok, nil
	case err := <-errCh:
		return nil, err
	case <-time.After(a.config.LoginTimeout):
		return nil, fmt.Errorf("%w after %s", ErrLoginTimeout, a.config.LoginTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func callbackHandler(state string, codeCh chan<- string, errCh chan<- error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		// Browsers also ask for /favicon.ico.
		if q.Get("state") == "" && q.Get("code") == "" && q.Get("error") == "" {
			http.NotFound(w, r)
			return
		}

		// A request without our state is not the consent redirect. Keep
		// waiting for the real one.
		if q.Get("state") != state {
			http.Error(w, ErrStateMismatch.Error(), http.StatusBadRequest)
			return
		}

		var err error
		switch {
		case q.Get("error") != "":
			err = fmt.Errorf("%w: %s", ErrConsentDenied, q.Get("error"))
		case q.Get("code") == "":
			err = fmt.Errorf("callback carried no authorization code")
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			select {
			case errCh <- err:
			default:
			}
			return
		}

		_, _ = io.WriteString(w, callbackPage)
		select {
		case codeCh <- q.Get("code"):
		default:
		}
	})
}

func randomState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func openBrowser(target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32.exe", "url.dll,FileProtocolHandler", target)
	case "darwin":
		cmd = exec.Command("open", target)
	default:
		cmd = exec.Command("xdg-open", target)
	}
	return cmd.Start()
}
