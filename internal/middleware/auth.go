package middleware

import (
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// AuthorizedKey is the context key holding whether the sender is authorized
const AuthorizedKey = "authorized"

const (
	errorText    = "Something went wrong. Please try again later."
	passwordText = "👋 Hi! This bot is private. Send the password to continue:"
)

// Authorizer is the part of the auth service the middleware needs
type Authorizer interface {
	EnsureUserExists(userID int64) error
	IsAuthorized(userID int64) (bool, error)
}

// AuthMiddleware creates authentication middleware. Unauthorized users may only
// use /start and send plain text, which handlers treat as a password attempt.
func AuthMiddleware(auth Authorizer, logger *zap.Logger) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return nil
			}
			userID := sender.ID

			if err := auth.EnsureUserExists(userID); err != nil {
				logger.Error("Failed to ensure user exists in middleware", zap.Error(err))
				return c.Send(errorText)
			}

			authorized, err := auth.IsAuthorized(userID)
			if err != nil {
				logger.Error("Failed to check authorization in middleware", zap.Error(err))
				return c.Send(errorText)
			}
			c.Set(AuthorizedKey, authorized)

			if authorized {
				return next(c)
			}

			if c.Callback() != nil {
				return c.Respond(&tele.CallbackResponse{Text: "Send the password first", ShowAlert: true})
			}
			if text := c.Text(); text != "/start" && len(text) > 0 && text[0] == '/' {
				return c.Send(passwordText)
			}
			return next(c)
		}
	}
}
