package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Expirer persists overdue request expiries; see approval.Usecase.ExpireOverdue.
type Expirer interface {
	ExpireOverdue(ctx context.Context) (int, error)
}

// Sweeper runs the expiry sweep on a cron schedule. A run still in progress
// when the next tick fires makes that tick a no-op.
type Sweeper struct {
	cron    *cron.Cron
	expirer Expirer
	log     *zap.Logger
	timeout time.Duration
}

// NewSweeper parses spec ("@every 1m", or a standard 5-field expression).
func NewSweeper(spec string, e Expirer, log *zap.Logger) (*Sweeper, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Sweeper{expirer: e, log: log, timeout: time.Minute}
	s.cron = cron.New(cron.WithChain(
		cron.Recover(cronLogger{log}),
		cron.SkipIfStillRunning(cronLogger{log}),
	))
	if _, err := s.cron.AddFunc(spec, s.RunOnce); err != nil {
		return nil, fmt.Errorf("expiry sweep spec %q: %w", spec, err)
	}
	return s, nil
}

func (s *Sweeper) Start() { s.cron.Start() }

// Stop waits for a running sweep to finish or ctx to end.
func (s *Sweeper) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sweeper) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	n, err := s.expirer.ExpireOverdue(ctx)
	if err != nil {
		s.log.Error("expiry sweep", zap.Int("expired", n), zap.Error(err))
		return
	}
	s.log.Debug("expiry sweep", zap.Int("expired", n))
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct{ log *zap.Logger }

func (l cronLogger) Info(msg string, kv ...any) { l.log.Sugar().Debugw(msg, kv...) }

func (l cronLogger) Error(err error, msg string, kv ...any) {
	l.log.Sugar().Errorw(msg, append(kv, "error", err)...)
}
