package middleware

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// internalErrorKey holds an error a handler answered with a masked 500.
const internalErrorKey = "internal_error"

// SetInternalError attaches err to the request's log line.
func SetInternalError(c echo.Context, err error) { c.Set(internalErrorKey, err) }

// RequestLogger writes one structured line per request.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogRoutePath: true,
		LogStatus:    true,
		LogLatency:   true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("path", v.URIPath),
				zap.String("route", v.RoutePath),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("actor", Actor(c)),
				zap.String("request_id", c.Request().Header.Get(HeaderRequestID)),
			}
			if err, ok := c.Get(internalErrorKey).(error); ok && v.Error == nil {
				v.Error = err
			}
			switch {
			case v.Error != nil:
				log.Error("http request", append(fields, zap.Error(v.Error))...)
			case v.Status >= 500:
				log.Error("http request", fields...)
			case v.Status >= 400:
				log.Warn("http request", fields...)
			default:
				log.Info("http request", fields...)
			}
			return nil
		},
	})
}
