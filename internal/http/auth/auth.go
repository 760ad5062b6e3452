// Package auth issues and verifies budget-scoped bearer tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "budgeteer"

var (
	ErrMissingSecret = errors.New("auth secret is not configured")
	ErrInvalidToken  = errors.New("invalid token")
)

type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) (*Tokens, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}

	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a token whose subject is the budget id.
func (t *Tokens) Issue(budgetID uuid.UUID) (string, error) {
	now := t.now().UTC()

	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   budgetID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	return signed, nil
}

// Verify parses a signed token and returns the budget id it grants access to.
func (t *Tokens) Verify(token string) (uuid.UUID, error) {
	var claims jwt.RegisteredClaims

	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	budgetID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: subject: %w", ErrInvalidToken, err)
	}

	return budgetID, nil
}

type ctxKey struct{}

// Middleware rejects requests without a valid bearer token and stores the budget id
// in the request context.
func (t *Tokens) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}

		budgetID, err := t.Verify(raw)
		if err != nil {
			slog.Debug("rejected token", "error", err)
			http.Error(w, "invalid token", http.StatusUnauthorized)

			return
		}

		next.ServeHTTP(w, r.WithContext(WithBudgetID(r.Context(), budgetID)))
	})
}

func WithBudgetID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// BudgetID returns the budget the request was authorized for.
func BudgetID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ctxKey{}).(uuid.UUID)
	return id, ok
}

// MustBudgetID reads the request budget id, answering 401 when it is absent.
func MustBudgetID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := BudgetID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}

	return id, ok
}
