package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/amellin794/delish/internal/ctxkeys"
	"github.com/amellin794/delish/internal/model"
	"github.com/amellin794/delish/internal/repository"
)

// AuthMiddleware verifies the creator's JWT and adds the user to the request
// context. Tokens come from the identity provider, signed with the shared
// secret; the first authenticated request provisions the local user row.
// Requests without a valid token continue unauthenticated.
func AuthMiddleware(jwtSecret string, users repository.UserRepository) func(http.Handler) http.Handler {
	secret := []byte(jwtSecret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				// No token, continue without auth
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifyJWT(tokenString, secret)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			userID, _ := claims["user_id"].(string)
			email, _ := claims["email"].(string)
			if userID == "" || email == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.ByID(userID)
			if errors.Is(err, repository.ErrUserNotFound) {
				name, _ := claims["name"].(string)
				user = &model.User{ID: userID, Email: email, Name: name}
				if err := users.Create(user); err != nil {
					slog.Error("failed to provision user", "error", err, "user_id", userID)
					next.ServeHTTP(w, r)
					return
				}
				slog.Info("user provisioned", "user_id", userID)
			} else if err != nil {
				slog.Error("failed to load user", "error", err, "user_id", userID)
				next.ServeHTTP(w, r)
				return
			}

			ctx := ctxkeys.WithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth ensures the request carries a valid authenticated user
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := ctxkeys.User(r.Context())
		if user == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}

	// Fallback to cookie for browser clients
	cookie, err := r.Cookie("auth_token")
	if err != nil {
		return ""
	}
	return cookie.Value
}

func verifyJWT(tokenString string, secret []byte) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
