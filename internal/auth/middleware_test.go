package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clubsite/club-api/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

func renewalRequest(t *testing.T, handler *AuthHandler, tokenString string) *httptest.ResponseRecorder {
	t.Helper()

	req, _ := http.NewRequest("GET", "/", nil)
	if tokenString != "" {
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: tokenString})
	}
	rr := httptest.NewRecorder()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler.SessionRenewal(next).ServeHTTP(rr, req)
	return rr
}

func signedToken(t *testing.T, cfg *config.Config, userID uint, expiresIn time.Duration) string {
	t.Helper()

	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(expiresIn).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return tokenString
}

func TestSessionRenewal(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret"}
	handler := NewAuthHandler(cfg, nil, nil)

	t.Run("TokenRenewed", func(t *testing.T) {
		// 11 hours left is under the 12-hour half-life.
		tokenString := signedToken(t, cfg, 1, 11*time.Hour)
		rr := renewalRequest(t, handler, tokenString)

		if rr.Code != http.StatusOK {
			t.Errorf("expected status OK, got %v", rr.Code)
		}

		found := false
		for _, c := range rr.Result().Cookies() {
			if c.Name == "auth_token" {
				found = true
				if c.Value == tokenString {
					t.Error("expected a fresh token value, got the old one")
				}
			}
		}
		if !found {
			t.Error("expected a new auth_token cookie to be set")
		}
	})

	t.Run("TokenNotRenewed", func(t *testing.T) {
		// 13 hours left is over the half-life; leave the cookie alone.
		tokenString := signedToken(t, cfg, 1, 13*time.Hour)
		rr := renewalRequest(t, handler, tokenString)

		if rr.Code != http.StatusOK {
			t.Errorf("expected status OK, got %v", rr.Code)
		}
		for _, c := range rr.Result().Cookies() {
			if c.Name == "auth_token" {
				t.Error("did not expect a new auth_token cookie")
			}
		}
	})

	t.Run("NoCookiePassesThrough", func(t *testing.T) {
		rr := renewalRequest(t, handler, "")
		if rr.Code != http.StatusOK {
			t.Errorf("renewal must not block unauthenticated requests, got %v", rr.Code)
		}
	})

	t.Run("InvalidTokenPassesThrough", func(t *testing.T) {
		rr := renewalRequest(t, handler, "not-a-token")
		if rr.Code != http.StatusOK {
			t.Errorf("renewal must not block requests with bad tokens, got %v", rr.Code)
		}
		for _, c := range rr.Result().Cookies() {
			if c.Name == "auth_token" {
				t.Error("must not re-issue a cookie for an invalid token")
			}
		}
	})
}
