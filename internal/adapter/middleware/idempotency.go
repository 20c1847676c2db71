package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// HeaderReplay marks a response served from the replay store.
const HeaderReplay = "Ax-Idempotent-Replay"

const (
	// lifetime of the marker if the handler never finishes
	pendingTTL = 60 * time.Second
	// allowed client/server skew for Ax-Request-At
	maxClockSkew = 10 * time.Minute
	storeTimeout = 2 * time.Second
)

// teeWriter copies everything the handler writes.
type teeWriter struct {
	http.ResponseWriter
	body bytes.Buffer
	code int
}

func (w *teeWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *teeWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func reject(c echo.Context, code int, msg string) error {
	return c.JSON(code, echo.Map{"error": msg})
}

// Idempotency replays the stored response of a mutating request repeated
// with the same Ax-Request-Id by the same actor on the same resource path. Every
// final response is stored, errors included, for ttl.
//
// Ax-Request-At must lie within maxClockSkew of the server clock. Reusing an
// id with a different body is a 409; so is a repeat while the first call is
// still running.
func Idempotency(rdb redis.Cmdable, ttl time.Duration, log *zap.Logger) echo.MiddlewareFunc {
	if log == nil {
		log = zap.NewNop()
	}
	store := replayStore{rdb: rdb, lockTTL: pendingTTL}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method == http.MethodGet || req.Method == http.MethodHead || req.Method == http.MethodOptions {
				return next(c)
			}

			reqID := strings.TrimSpace(req.Header.Get(HeaderRequestID))
			switch {
			case reqID == "":
				return reject(c, http.StatusBadRequest, "missing "+HeaderRequestID)
			case !validRequestID(reqID):
				return reject(c, http.StatusBadRequest, "invalid "+HeaderRequestID+" format")
			}
			at, err := parseRequestAt(req.Header.Get(HeaderRequestAt))
			if err != nil {
				return reject(c, http.StatusBadRequest, err.Error())
			}
			now := clock()
			if skew := now.Sub(at); skew > maxClockSkew || skew < -maxClockSkew {
				return reject(c, http.StatusBadRequest, HeaderRequestAt+" too skewed")
			}
			actor := Actor(c)
			if !ValidActor(actor) {
				return reject(c, http.StatusBadRequest, "invalid "+HeaderActorID)
			}

			var body []byte
			if req.Body != nil {
				body, _ = io.ReadAll(req.Body)
			}
			req.Body = io.NopCloser(bytes.NewReader(body))

			key := replayKey(req.Method, req.URL.Path, actor, reqID)
			rec := replayRecord{
				Pending:    true,
				BodyDigest: digest(body),
				RequestID:  reqID,
				RequestAt:  at,
				StoredAt:   now,
			}

			ctx, cancel := context.WithTimeout(req.Context(), storeTimeout)
			defer cancel()
			first, err := store.reserve(ctx, key, rec)
			if err != nil {
				log.Error("replay store unavailable", zap.String("key", key), zap.Error(err))
				return reject(c, http.StatusServiceUnavailable, "idempotency store unavailable")
			}
			if !first {
				prev, err := store.load(ctx, key)
				if err != nil && !isMiss(err) {
					log.Warn("load replay record", zap.String("key", key), zap.Error(err))
				}
				switch {
				case prev.BodyDigest != "" && prev.BodyDigest != rec.BodyDigest:
					return reject(c, http.StatusConflict, HeaderRequestID+" reused with different body")
				case prev.done():
					c.Response().Header().Set(HeaderReplay, "true")
					return c.Blob(prev.Code, echo.MIMEApplicationJSON, prev.Body)
				}
				return reject(c, http.StatusConflict, "request is already in progress")
			}

			tee := &teeWriter{ResponseWriter: c.Response().Writer, code: http.StatusOK}
			c.Response().Writer = tee
			if err := next(c); err != nil {
				c.Error(err)
			}

			rec.Code, rec.Body, rec.StoredAt = tee.code, tee.body.Bytes(), clock()
			sctx, scancel := context.WithTimeout(context.Background(), storeTimeout)
			defer scancel()
			if err := store.complete(sctx, key, rec, ttl); err != nil {
				log.Warn("save replay record", zap.String("key", key), zap.Error(err))
			}
			return nil
		}
	}
}
