// Package middlewarectx содержит HTTP middleware для проверки JWT токенов,
// ограничения частоты запросов и доступа к премиум-функциям.
//
// JWTMiddleware проверяет наличие и валидность JWT токена в заголовке Authorization
// и в случае успеха добавляет в контекст идентификатор и email пользователя
// для дальнейшего использования в обработчиках.
package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/resume-builder/internal/http/response"
	"github.com/magabrotheeeer/resume-builder/internal/lib/sl"
	"github.com/magabrotheeeer/resume-builder/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// UserID ключ для идентификатора пользователя в контексте
	UserID Key = "user_id"
	// Email ключ для email пользователя в контексте
	Email Key = "email"
)

var errNoUser = errors.New("token carries no user")

// TokenValidator описывает сервис валидации JWT токена.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*models.User, error)
}

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в заголовке Authorization.
//
// Если токен валиден, добавляет идентификатор и email пользователя в контекст запроса,
// иначе возвращает ошибку с HTTP статусом 401 Unauthorized.
func JWTMiddleware(validator TokenValidator, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Warn("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			user, err := validator.ValidateToken(r.Context(), tokenStr)
			if err == nil && user == nil {
				err = errNoUser
			}
			if err != nil {
				log.Warn("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}
			ctx := context.WithValue(r.Context(), UserID, user.ID)
			ctx = context.WithValue(ctx, Email, user.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalJWTMiddleware как JWTMiddleware, но без токена или с невалидным
// токеном пропускает запрос анонимно.
func OptionalJWTMiddleware(validator TokenValidator, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !found {
				next.ServeHTTP(w, r)
				return
			}
			user, err := validator.ValidateToken(r.Context(), tokenStr)
			if err == nil && user == nil {
				err = errNoUser
			}
			if err != nil {
				log.Debug("ignoring invalid token on public route", sl.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), UserID, user.ID)
			ctx = context.WithValue(ctx, Email, user.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFrom возвращает идентификатор пользователя, положенный JWTMiddleware.
func UserIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserID).(string)
	return id, ok && id != ""
}
