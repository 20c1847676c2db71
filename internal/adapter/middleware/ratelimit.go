package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type actorLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// ActorLimiterStore keeps one token bucket per actor. Buckets idle for
// limiterIdleTTL are dropped on the next Allow.
type ActorLimiterStore struct {
	mu      sync.Mutex
	rate    rate.Limit
	burst   int
	actors  map[string]*actorLimiter
	lastGC  time.Time
	nowFunc func() time.Time
}

var _ echomw.RateLimiterStore = (*ActorLimiterStore)(nil)

func NewActorLimiterStore(perSecond float64, burst int) *ActorLimiterStore {
	if burst < 1 {
		burst = 1
	}
	return &ActorLimiterStore{
		rate:    rate.Limit(perSecond),
		burst:   burst,
		actors:  map[string]*actorLimiter{},
		nowFunc: time.Now,
	}
}

func (s *ActorLimiterStore) Allow(actor string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	if now.Sub(s.lastGC) > limiterIdleTTL {
		for k, v := range s.actors {
			if now.Sub(v.lastSeen) > limiterIdleTTL {
				delete(s.actors, k)
			}
		}
		s.lastGC = now
	}
	a, ok := s.actors[actor]
	if !ok {
		a = &actorLimiter{lim: rate.NewLimiter(s.rate, s.burst)}
		s.actors[actor] = a
	}
	a.lastSeen = now
	return a.lim.AllowN(now, 1), nil
}

// VoteRateLimit throttles callers by Ax-Actor-Id and answers 429 once their
// bucket is empty.
func VoteRateLimit(store echomw.RateLimiterStore) echo.MiddlewareFunc {
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return Actor(c), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "cannot identify caller"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "vote rate limit exceeded"})
		},
	})
}
