package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenTTL = 24 * time.Hour

var errEmptyToken = errors.New("empty token")

type ctxKey struct{}

// identity returns the email the request was authenticated as.
func identity(ctx context.Context) string {
	email, _ := ctx.Value(ctxKey{}).(string)
	return email
}

func generateToken(secret []byte, email string, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func validateJWT(secret []byte, token string, now time.Time) (string, error) {
	if token == "" {
		return "", errEmptyToken
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// requireAuth отвечает так же, как flask-jwt-extended: 401 без заголовка или
// с истекшим токеном, 422 для испорченного токена. Тело - {"msg": ...}.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Missing Authorization Header"})
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"msg": "Bad Authorization header. Expected 'Authorization: Bearer <JWT>'"})
			return
		}

		email, err := validateJWT(s.secret, strings.TrimSpace(token), s.now())
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Token has expired"})
			return
		case err != nil:
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"msg": "Signature verification failed"})
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, email)))
	}
}
