package http

import (
	"time"

	"credential-approval/internal/adapter/middleware"
	ucApproval "credential-approval/internal/usecase/approval"
	ucPolicy "credential-approval/internal/usecase/policy"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RouterDeps struct {
	Approval       *ucApproval.Usecase
	Policy         *ucPolicy.Usecase
	Health         *Handler
	Redis          redis.Cmdable
	IdempotencyTTL time.Duration
	VoteLimiter    echomw.RateLimiterStore
	Logger         *zap.Logger
}

func NewRouter(d RouterDeps) *echo.Echo {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Health == nil {
		d.Health = NewHandler()
	}
	if d.VoteLimiter == nil {
		d.VoteLimiter = middleware.NewActorLimiterStore(10, 20)
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.Use(echomw.Recover(), middleware.RequestLogger(d.Logger))

	ph := NewPolicyHandler(d.Policy)
	rh := NewRequestHandler(d.Approval)
	actor := middleware.RequireActor()
	idem := middleware.Idempotency(d.Redis, d.IdempotencyTTL, d.Logger)

	// routes
	e.GET("/health", d.Health.Health)

	e.GET("/policies/:scope", ph.GetPolicy)
	e.PUT("/policies/:scope", ph.PutPolicy, actor, idem)

	e.POST("/requests", rh.Create, actor, idem)
	e.GET("/requests/:id", rh.Get)
	e.POST("/requests/:id/votes", rh.Vote, actor, middleware.VoteRateLimit(d.VoteLimiter), idem)
	e.POST("/requests/:id/execute", rh.Execute, actor, idem)
	e.GET("/requests/:id/audit", rh.AuditTrail)

	e.GET("/approvers/:actor/pending", rh.PendingFor)
	return e
}
