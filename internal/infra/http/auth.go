package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"complaints-service/internal/domain"
)

type contextKey string

const identityKey contextKey = "identity"

var (
	// ErrNoIdentity возвращается, когда в контексте нет пользователя.
	ErrNoIdentity = errors.New("identity отсутствует в контексте")
)

// identityClaims описывает полезную нагрузку токена внешнего
// auth-коллаборатора. Сервис только читает токен, выпуск — не его забота.
type identityClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware проверяет Bearer-токен и кладёт Identity в контекст.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, found := strings.CutPrefix(header, "Bearer ")
			if !found || strings.TrimSpace(raw) == "" {
				WriteError(w, http.StatusUnauthorized, errors.New("требуется токен авторизации"))
				return
			}
			claims := &identityClaims{}
			token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("неожиданный метод подписи")
				}
				return key, nil
			})
			if err != nil || !token.Valid || claims.Subject == "" {
				WriteError(w, http.StatusUnauthorized, errors.New("токен недействителен"))
				return
			}
			identity := domain.Identity{
				ID:       claims.Subject,
				Username: claims.Username,
				Role:     domain.Role(claims.Role),
			}
			if identity.Role != domain.RoleAdmin {
				identity.Role = domain.RoleUser
			}
			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin пропускает только административную роль.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := IdentityFromContext(r.Context())
		if err != nil || !identity.IsAdmin() {
			WriteError(w, http.StatusForbidden, errors.New("требуется роль администратора"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// IdentityFromContext возвращает аутентифицированного пользователя.
func IdentityFromContext(ctx context.Context) (domain.Identity, error) {
	identity, ok := ctx.Value(identityKey).(domain.Identity)
	if !ok {
		return domain.Identity{}, ErrNoIdentity
	}
	return identity, nil
}

// WithIdentity кладёт Identity в контекст; используется в тестах хендлеров.
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// ErrorResponse описывает ошибку.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteError отправляет JSON с ошибкой.
func WriteError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: err.Error()})
}
