// Package gcal integrates with Google OAuth and the Calendar v3 REST API.
package gcal

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

// Sentinel errors for the two expected refresh failure modes. The caller
// decides how to react: a missing token is an expected state for users who
// never connected their calendar, a rejected token needs re-auth.
var (
	ErrNoRefreshToken = errors.New("no refresh token stored")
	ErrTokenRejected  = errors.New("refresh token rejected by provider")
)

// googleEndpoint avoids pulling the google subpackage for two URLs.
var googleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

// TokenRefresher exchanges a stored long-lived refresh token for a
// short-lived access token. It never retries on its own.
type TokenRefresher struct {
	conf *oauth2.Config
}

// NewTokenRefresher creates a refresher for the given OAuth client.
func NewTokenRefresher(clientID, clientSecret string) *TokenRefresher {
	return &TokenRefresher{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     googleEndpoint,
			Scopes:       []string{"https://www.googleapis.com/auth/calendar.events.readonly"},
		},
	}
}

// Refresh obtains a fresh access token. An empty refresh token
// short-circuits with ErrNoRefreshToken before any network call.
func (r *TokenRefresher) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", ErrNoRefreshToken
	}

	src := r.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			// invalid_grant covers expired and revoked refresh tokens
			return "", fmt.Errorf("%w: %s", ErrTokenRejected, retrieveErr.ErrorCode)
		}
		return "", fmt.Errorf("refreshing token: %w", err)
	}

	return tok.AccessToken, nil
}
