package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aicrypto/predictor/internal/ctxkeys"
	"github.com/aicrypto/predictor/internal/service"
)

// RequireAuth accepts a bearer session token and puts the account email and id
// into the request context. Requests without a valid token get 401.
func RequireAuth(authService *service.AuthService) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, "missing bearer token")
				return
			}

			claims, err := authService.VerifyJWT(token)
			if err != nil {
				unauthorized(w, "invalid or expired token")
				return
			}

			ctx := ctxkeys.WithAccountEmail(r.Context(), claims.Email)
			ctx = ctxkeys.WithAccountID(ctx, claims.AccountID)
			next(w, r.WithContext(ctx))
		}
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
