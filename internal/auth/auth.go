// Package auth защищает management API: Bearer JWT (HS256, claim sub)
// или API-токен wgt_<keyid>_<secret>.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"wgnst/internal/audit"
	"wgnst/internal/logs"
	"wgnst/internal/middleware"
	"wgnst/internal/models"
	"wgnst/internal/secrets"
)

const anonymous = "anonymous"

var ErrUnauthorized = errors.New("unauthorized")

type Authenticator struct {
	jwtSecret []byte
	tokens    *secrets.Service
	disabled  bool
}

// New: disabled=true пропускает всех как "anonymous" (только локальная разработка).
func New(jwtSecret string, tokens *secrets.Service, disabled bool) *Authenticator {
	return &Authenticator{jwtSecret: []byte(jwtSecret), tokens: tokens, disabled: disabled}
}

// IssueJWT подписывает HS256-токен с sub и сроком ttl.
func IssueJWT(secret, subject string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret must not be empty")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Subject проверяет значение заголовка Authorization и возвращает субъект.
func (a *Authenticator) Subject(ctx context.Context, header string) (string, error) {
	if a.disabled {
		return anonymous, nil
	}
	scheme, raw, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("%w: expected Bearer token", ErrUnauthorized)
	}
	raw = strings.TrimSpace(raw)

	if secrets.IsToken(raw) {
		if a.tokens == nil {
			return "", fmt.Errorf("%w: api tokens are not enabled", ErrUnauthorized)
		}
		t, err := a.tokens.Authenticate(ctx, raw)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
		return t.Subject, nil
	}
	return a.parseJWT(raw)
}

func (a *Authenticator) parseJWT(raw string) (string, error) {
	if len(a.jwtSecret) == 0 {
		return "", fmt.Errorf("%w: jwt is not configured", ErrUnauthorized)
	}
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		return a.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	sub, err := tok.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("%w: missing sub claim", ErrUnauthorized)
	}
	return sub, nil
}

// Middleware кладёт субъект в контекст (audit.WithSubject) или отвечает 401.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub, err := a.Subject(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			logs.Logger.WithFields(logrus.Fields{
				"reqid": middleware.GetRequestID(r),
				"ip":    middleware.ClientIP(r),
				"err":   err,
			}).Warn("auth: rejected")
			w.Header().Set("WWW-Authenticate", `Bearer realm="wgnst"`)
			models.WriteProblem(w, http.StatusUnauthorized, "Unauthorized", "valid bearer token required", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(audit.WithSubject(r.Context(), sub)))
	})
}
