package devserver

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"notesync/pkg/logger"
)

type contextKey string

const userIDKey contextKey = "userID"

// AuthMiddleware validates the bearer token on protected routes and puts
// the user id from the 'sub' claim on the request context.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")

			if tokenString == "" || tokenString == authHeader {
				writeError(w, http.StatusUnauthorized, "No token provided")
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				logger.Sugar.Infof("Invalid token: %v", err)
				writeError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				writeError(w, http.StatusUnauthorized, "Could not parse token claims")
				return
			}
			userID, ok := claims["sub"].(string)
			if !ok || userID == "" {
				writeError(w, http.StatusUnauthorized, "User ID claim is missing")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// userID returns the authenticated user id placed on the context by
// AuthMiddleware.
func userID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}
