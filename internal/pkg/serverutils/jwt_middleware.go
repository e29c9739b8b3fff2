package serverutils

import (
	"time"

	"document-hub-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionIDKey is the ctx.Locals key holding the authenticated session id.
const SessionIDKey = "session_id"

func IssueSessionToken(secret string, sessionID uuid.UUID, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"session_id": sessionID.String(),
		"iat":        now.Unix(),
		"exp":        expiresAt.Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, apperror.Wrap(apperror.KindInternal, "IssueSessionToken", err)
	}
	return signed, expiresAt, nil
}

func ParseSessionToken(secret, tokenStr string) (uuid.UUID, error) {
	const op = "ParseSessionToken"

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return uuid.Nil, apperror.Unauthorized(op, "Invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, apperror.Unauthorized(op, "Invalid claims")
	}
	raw, ok := claims["session_id"].(string)
	if !ok {
		return uuid.Nil, apperror.Unauthorized(op, "Token missing session_id")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.Unauthorized(op, "Invalid session id in token")
	}
	return id, nil
}

// TokenFromRequest reads the token from the Authorization header, falling
// back to the "token" query parameter used by browser websocket clients.
func TokenFromRequest(ctx *fiber.Ctx) string {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return ctx.Query("token")
}

func JwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		tokenStr := TokenFromRequest(ctx)
		if tokenStr == "" {
			return apperror.Unauthorized("JwtMiddleware", "Missing token")
		}

		sessionID, err := ParseSessionToken(secret, tokenStr)
		if err != nil {
			return err
		}

		ctx.Locals(SessionIDKey, sessionID)
		return ctx.Next()
	}
}

// SessionID returns the session id stored by JwtMiddleware.
func SessionID(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, ok := ctx.Locals(SessionIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, apperror.Unauthorized("SessionID", "Unauthorized")
	}
	return id, nil
}
