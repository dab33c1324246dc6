// internal/handlers/client_token.go
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/teamdraw/teamdraw-service/internal/auth"
)

// EnsureClientToken resolves the caller's stable client id. A valid
// client_token cookie yields the id it wraps; anything else (no cookie, bad
// token) mints a fresh id and sets a new cookie. The id is what room
// membership is keyed on, so keeping the cookie across page reloads lets a
// client reclaim its seat.
func EnsureClientToken(w http.ResponseWriter, r *http.Request) (uuid.UUID, error) {
	cookieHeader := r.Header.Get("Cookie")
	if strings.Contains(cookieHeader, "client_token=") {
		token := extractCookieToken(cookieHeader, "client_token")
		if sub, err := auth.AuthenticateJWT(token); err == nil {
			if id, parseErr := uuid.Parse(sub); parseErr == nil {
				return id, nil
			}
		}
		// Fall through and reissue on any validation failure.
	}

	id := uuid.New()
	token, err := auth.CreateJWT(id.String())
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create client token: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "client_token",
		Value:    token,
		HttpOnly: true,
		Path:     "/",
		MaxAge:   auth.TOKEN_EXPIRE_TIME_SEC,
	})
	return id, nil
}
