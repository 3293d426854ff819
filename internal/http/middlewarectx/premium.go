package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/resume-builder/internal/http/response"
	"github.com/magabrotheeeer/resume-builder/internal/lib/sl"
)

// PremiumChecker отвечает, есть ли у пользователя активная подписка.
type PremiumChecker interface {
	IsPremium(ctx context.Context, userID string) (bool, error)
}

// PremiumOnly пропускает запрос только пользователям с активной подпиской.
// Должен стоять после JWTMiddleware.
func PremiumOnly(checker PremiumChecker, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.PremiumOnly"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			userID, ok := UserIDFrom(r.Context())
			if !ok {
				log.Error("user identification missing")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("user identification missing"))
				return
			}

			premium, err := checker.IsPremium(r.Context(), userID)
			if err != nil {
				log.Error("failed to get premium status", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal service error"))
				return
			}
			if !premium {
				log.Info("premium required", slog.String("user_id", userID))
				render.Status(r, http.StatusPaymentRequired)
				render.JSON(w, r, response.Error("premium subscription required"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
