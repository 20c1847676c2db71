package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	eventadp "credential-approval/internal/adapter/event"
	httpadp "credential-approval/internal/adapter/http"
	"credential-approval/internal/adapter/middleware"
	"credential-approval/internal/adapter/repository/mysql"
	"credential-approval/internal/config"
	"credential-approval/internal/domain/authz"
	"credential-approval/internal/domain/policy"
	"credential-approval/internal/infrastructure/cache"
	"credential-approval/internal/infrastructure/db"
	"credential-approval/internal/infrastructure/logger"
	"credential-approval/internal/infrastructure/scheduler"
	"credential-approval/internal/infrastructure/tracing"
	ucApproval "credential-approval/internal/usecase/approval"
	ucPolicy "credential-approval/internal/usecase/policy"
)

const serviceName = "credential-approval"

var version = "dev"

func main() {
	// a missing .env is fine; the environment wins either way
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(cfg.TraceEnabled, serviceName, version, os.Stdout)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	dbOpts := db.DefaultOptions
	dbOpts.Logger = log
	gdb, err := db.OpenGorm(cfg.MySQLDSN(), dbOpts)
	if err != nil {
		return fmt.Errorf("mysql: %w", err)
	}
	if cfg.AutoMigrate {
		if err := mysql.AutoMigrate(gdb); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	grants := mysql.NewGrantRepository(gdb)
	if err := seedGrants(ctx, cfg, grants, log); err != nil {
		return err
	}

	rdb, err := cache.OpenRedis(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPass, DB: cfg.RedisDB})
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer func() { _ = rdb.Close() }()

	sink := eventadp.Fanout{
		eventadp.NewRedisSink(rdb, cfg.EventChannel),
		eventadp.NewLogSink(log),
	}
	unit := mysql.NewGormUoW(gdb)

	approvals := ucApproval.NewUsecase(ucApproval.Deps{
		Requests: mysql.NewRequestRepository(gdb),
		Pending:  mysql.NewPendingRepository(gdb),
		Audit:    mysql.NewAuditRepository(gdb),
		UoW:      unit,
		Oracle:   grants,
		Sink:     sink,
		Logger:   log.Named("approval"),
	})
	policies := ucPolicy.NewUsecase(ucPolicy.Deps{
		Policies: mysql.NewPolicyRepository(gdb),
		UoW:      unit,
		Oracle:   grants,
		Sink:     sink,
		Logger:   log.Named("policy"),
		Bounds:   policy.Bounds{MinTimeout: cfg.PolicyMinTimeout, MaxTimeout: cfg.PolicyMaxTimeout},
	})

	var sweeper *scheduler.Sweeper
	if cfg.SweepEnabled() {
		if sweeper, err = scheduler.NewSweeper(cfg.ExpirySweepSpec, approvals, log.Named("sweeper")); err != nil {
			return err
		}
		sweeper.Start()
	}

	e := httpadp.NewRouter(httpadp.RouterDeps{
		Approval: approvals,
		Policy:   policies,
		Health: httpadp.NewHandler().
			WithCheck("mysql", db.Ping(gdb)).
			WithCheck("redis", cache.Ping(rdb)),
		Redis:          rdb,
		IdempotencyTTL: cfg.IdempotencyTTL(),
		VoteLimiter:    middleware.NewActorLimiterStore(cfg.VoteRatePerSecond, cfg.VoteRateBurst),
		Logger:         log.Named("http"),
	})

	errc := make(chan error, 1)
	go func() {
		addr := ":" + cfg.AppPort
		log.Info("listening", zap.String("addr", addr), zap.String("version", version))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	if sweeper != nil {
		if err := sweeper.Stop(sctx); err != nil {
			log.Warn("sweeper shutdown", zap.Error(err))
		}
	}
	return nil
}

func seedGrants(ctx context.Context, cfg *config.Config, g *mysql.GrantRepository, log *zap.Logger) error {
	grants, err := cfg.Grants()
	if err != nil {
		return err
	}
	for _, gr := range grants {
		c := authz.Capability(gr.Capability)
		if !c.Valid() {
			return fmt.Errorf("bootstrap grant %s: unknown capability %q", gr.Actor, gr.Capability)
		}
		if err := g.Grant(ctx, gr.Actor, c); err != nil {
			return fmt.Errorf("bootstrap grant %s:%s: %w", gr.Actor, gr.Capability, err)
		}
	}
	if len(grants) > 0 {
		log.Info("bootstrap grants applied", zap.Int("count", len(grants)))
	}
	return nil
}
