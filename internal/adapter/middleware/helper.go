package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces replay records in the shared Redis.
const keyPrefix = "approval:idem:"

var (
	reUUID  = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[1-5][a-f0-9]{3}-[89ab][a-f0-9]{3}-[a-f0-9]{12}$`)
	reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)
)

var clock = func() time.Time { return time.Now().UTC() }

func digest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// replayKey scopes a request id to one actor on one concrete path, so
// /requests/r1/votes and /requests/r2/votes never share a record.
func replayKey(method, path, actor, requestID string) string {
	return keyPrefix + strings.Join([]string{strings.ToLower(method), path, actor, requestID}, ":")
}

// validRequestID accepts a lowercase UUID (v1-v5) or 32 lowercase hex characters.
func validRequestID(id string) bool {
	return reUUID.MatchString(id) || reHex32.MatchString(id)
}

// parseRequestAt reads Ax-Request-At as epoch seconds, epoch milliseconds, or
// RFC3339 with an explicit zone. Zone-less timestamps are refused.
func parseRequestAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("missing %s", HeaderRequestAt)
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	// RFC3339Nano also accepts plain RFC3339
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be epoch (s/ms) or RFC3339 with timezone", HeaderRequestAt)
	}
	return t.UTC(), nil
}

// replayRecord is what Redis holds per key: a marker while the first call
// runs, then the final response.
type replayRecord struct {
	Pending    bool      `json:"pending"`
	Code       int       `json:"code"`
	Body       []byte    `json:"body"`
	BodyDigest string    `json:"body_digest"`
	RequestID  string    `json:"request_id"`
	RequestAt  time.Time `json:"request_at"`
	StoredAt   time.Time `json:"stored_at"`
}

func (r replayRecord) done() bool { return !r.Pending && r.Code != 0 && len(r.Body) > 0 }

type replayStore struct {
	rdb     redis.Cmdable
	lockTTL time.Duration
}

// reserve claims key for the first caller; false means someone holds it.
func (s replayStore) reserve(ctx context.Context, key string, rec replayRecord) (bool, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return false, err
	}
	return s.rdb.SetNX(ctx, key, payload, s.lockTTL).Result()
}

// load returns redis.Nil when nothing is stored under key.
func (s replayStore) load(ctx context.Context, key string) (replayRecord, error) {
	var rec replayRecord
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, fmt.Errorf("decode replay record %s: %w", key, err)
	}
	return rec, nil
}

func (s replayStore) complete(ctx context.Context, key string, rec replayRecord, ttl time.Duration) error {
	rec.Pending = false
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, payload, ttl).Err()
}

func isMiss(err error) bool { return errors.Is(err, redis.Nil) }
