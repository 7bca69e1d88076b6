package auth

import (
	"net/http"
	"time"
)

// SessionRenewal re-issues the auth cookie when a valid session token is past
// half its lifetime, so active members never see their session lapse.
// Requests without a usable token pass through untouched; authorization is
// enforced per operation, not here.
func (h *AuthHandler) SessionRenewal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("auth_token")
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		userID, expires, err := h.parseToken(cookie.Value)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		if time.Until(expires) < TokenDuration/2 {
			if newToken, err := h.GenerateToken(userID); err == nil {
				http.SetCookie(w, &http.Cookie{
					Name:     "auth_token",
					Value:    newToken,
					Expires:  time.Now().Add(TokenDuration),
					HttpOnly: true,
					Path:     "/",
				})
			}
		}

		next.ServeHTTP(w, r)
	})
}
