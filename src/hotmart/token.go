package hotmart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/username/vendasbanco/src/logger"
)

// defaultTokenLifetime is assumed when the token response omits expires_in.
const defaultTokenLifetime = 3600 * time.Second

// TokenManager caches the upstream bearer token and refreshes it on demand
// through the OAuth client-credentials flow. It is safe for concurrent use;
// the mutex keeps racing callers from issuing duplicate token requests.
type TokenManager struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time

	oauthCfg        clientcredentials.Config
	httpClient      *http.Client
	now             func() time.Time
	retryMaxElapsed time.Duration
}

func NewTokenManager(clientID, clientSecret, tokenURL string, httpClient *http.Client) *TokenManager {
	return &TokenManager{
		oauthCfg: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			Scopes:       []string{"read", "write"},
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		httpClient:      httpClient,
		now:             time.Now,
		retryMaxElapsed: 15 * time.Second,
	}
}

// GetValidToken returns the cached token, refreshing it first when absent or
// expired. On refresh failure the cache is cleared and the error returned;
// callers must treat that as a hard stop for the current sync cycle.
func (m *TokenManager) GetValidToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" && m.now().Before(m.expiresAt) {
		return m.token, nil
	}

	if err := m.refreshLocked(ctx); err != nil {
		m.token = ""
		m.expiresAt = time.Time{}
		return "", err
	}
	return m.token, nil
}

func (m *TokenManager) refreshLocked(ctx context.Context) error {
	logger.L.Debug("Requesting new Hotmart access token", "tokenURL", m.oauthCfg.TokenURL)

	if m.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
	}

	var tok *oauth2.Token
	operation := func() error {
		var err error
		tok, err = m.oauthCfg.Token(ctx)
		if err != nil {
			var retrieveErr *oauth2.RetrieveError
			if errors.As(err, &retrieveErr) && retrieveErr.Response != nil &&
				retrieveErr.Response.StatusCode >= 400 && retrieveErr.Response.StatusCode < 500 {
				// Bad credentials never get better on retry.
				return backoff.Permanent(err)
			}
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = m.retryMaxElapsed

	notify := func(err error, wait time.Duration) {
		logger.L.Warn("Token request failed, retrying", "error", err, "retryIn", wait.String())
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notify); err != nil {
		logger.L.Error("Failed to obtain Hotmart access token", "error", err)
		return fmt.Errorf("obtaining access token: %w", err)
	}

	m.token = tok.AccessToken
	if tok.Expiry.IsZero() {
		// The token endpoint did not report expires_in.
		m.expiresAt = m.now().Add(defaultTokenLifetime)
	} else {
		m.expiresAt = tok.Expiry
	}
	logger.L.Info("Hotmart access token obtained", "expiresAt", m.expiresAt.Format(time.RFC3339))
	return nil
}
