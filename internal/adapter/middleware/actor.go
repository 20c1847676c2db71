package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	HeaderActorID   = "Ax-Actor-Id"
	HeaderRequestID = "Ax-Request-Id"
	HeaderRequestAt = "Ax-Request-At"

	actorKey = "actor"
)

var reActor = regexp.MustCompile(`^[A-Za-z0-9_.:@-]{1,64}$`)

// ValidActor reports whether s is an acceptable actor identifier.
func ValidActor(s string) bool { return reActor.MatchString(s) }

// RequireActor rejects requests without a well-formed Ax-Actor-Id and makes
// the actor available through Actor.
func RequireActor() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor := strings.TrimSpace(c.Request().Header.Get(HeaderActorID))
			if actor == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing " + HeaderActorID})
			}
			if !ValidActor(actor) {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid " + HeaderActorID})
			}
			c.Set(actorKey, actor)
			return next(c)
		}
	}
}

// Actor returns the caller identity set by RequireActor, falling back to the raw header.
func Actor(c echo.Context) string {
	if v, ok := c.Get(actorKey).(string); ok {
		return v
	}
	return strings.TrimSpace(c.Request().Header.Get(HeaderActorID))
}
