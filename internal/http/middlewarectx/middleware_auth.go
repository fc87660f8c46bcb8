// Package middlewarectx содержит HTTP middleware приложения: проверку
// сессионного JWT токена и ограничение частоты запросов.
//
// SessionMiddleware проверяет токен из cookie сессии или заголовка
// Authorization и в случае успеха добавляет в контекст uid и email
// пользователя для дальнейшего использования в обработчиках.
//
// В случае ошибки проверки возвращает HTTP 401 Unauthorized с сообщением об ошибке.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/pantrypilot/pantry-tracker/internal/http/response"
	"github.com/pantrypilot/pantry-tracker/internal/lib/jwt"
	"github.com/pantrypilot/pantry-tracker/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// User — ключ для uid пользователя в контексте
	User Key = "user_uid"
	// Email — ключ для электронной почты пользователя в контексте
	Email Key = "email"
)

// SessionCookie — имя cookie с токеном сессии.
const SessionCookie = "session"

// TokenParser описывает интерфейс проверки токена сессии.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.CustomClaims, error)
}

// SessionMiddleware возвращает HTTP middleware, который проверяет токен
// сессии из cookie или заголовка Authorization.
//
// Если токен валиден, добавляет uid и email пользователя в контекст запроса,
// иначе возвращает ошибку с HTTP статусом 401 Unauthorized.
func SessionMiddleware(parser TokenParser, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.SessionMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			tokenStr := tokenFromRequest(r)
			if tokenStr == "" {
				log.Error("missing session token")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing session token"))
				return
			}

			claims, err := parser.ParseToken(tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), User, claims.UserUID)
			ctx = context.WithValue(ctx, Email, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// tokenFromRequest извлекает токен сессии: сначала из cookie, затем из
// заголовка Authorization. Cookie достаточно и для апгрейда веб-сокета —
// отдельный handshake-пейлоад каналу не нужен.
func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
