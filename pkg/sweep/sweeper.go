package sweep

import (
	"context"
	"errors"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Handler supplies the work for one sweep: Due lists the identities eligible
// right now, Process handles exactly one of them. Process failures are
// isolated per item; the sweeper never retries within a tick, an item still
// eligible is simply picked up again on the next tick.
type Handler interface {
	Name() string
	Due(ctx context.Context, limit int) ([]uuid.UUID, error)
	Process(ctx context.Context, id uuid.UUID) error
}

type Sweeper struct {
	pool    *pgxpool.Pool
	handler Handler
	opts    Options

	lockKey int64

	m     *metrics
	label string
}

func New(pool *pgxpool.Pool, handler Handler, opts Options) (*Sweeper, error) {
	if handler == nil {
		return nil, invalidConfig("handler is required")
	}
	if opts.SingleActive && pool == nil {
		return nil, invalidConfig("pool is required for single-active mode")
	}

	opts.setDefaults()

	s := &Sweeper{
		pool:    pool,
		handler: handler,
		opts:    opts,
		m:       getMetrics(),
		label:   handler.Name(),
		lockKey: advisoryLockKey("sweep:" + handler.Name()),
	}
	if s.opts.Logger == nil {
		s.opts.Logger = logrusNop()
	}
	return s, nil
}

func (s *Sweeper) Run(ctx context.Context) error {
	if ctx == nil {
		return invalidConfig("ctx is required")
	}

	if s.opts.SingleActive {
		return s.runSingleActive(ctx)
	}

	s.m.leader.WithLabelValues(s.label).Set(1)
	return s.runLoop(ctx)
}

// runSingleActive competes for a pg advisory lock so that only one instance
// in a deployment runs the sweep loop.
func (s *Sweeper) runSingleActive(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		conn, err := s.pool.Acquire(ctx)
		if err != nil {
			s.opts.Logger.WithError(err).Warn("sweep: failed to acquire connection for single-active mode")
			if err := s.sleep(ctx); err != nil {
				return err
			}
			continue
		}

		leader, err := s.tryAcquireLeader(ctx, conn)
		if err != nil {
			conn.Release()
			s.opts.Logger.WithError(err).Warn("sweep: failed to attempt advisory lock")
			if err := s.sleep(ctx); err != nil {
				return err
			}
			continue
		}

		if !leader {
			s.m.leader.WithLabelValues(s.label).Set(0)
			conn.Release()
			if err := s.sleep(ctx); err != nil {
				return err
			}
			continue
		}

		s.m.leader.WithLabelValues(s.label).Set(1)
		s.opts.Logger.WithField("sweep", s.label).Info("sweep: became leader")

		err = s.runLoop(ctx)
		_ = s.releaseLeader(context.Background(), conn)
		conn.Release()
		return err
	}
}

func (s *Sweeper) runLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if err := s.Tick(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			s.opts.Logger.WithError(err).Warn("sweep: tick failed")
		}
	}
}

// Tick runs one batch. Exported so callers (and tests) can drive the sweep
// without the ticker.
func (s *Sweeper) Tick(ctx context.Context) error {
	start := time.Now()
	due, err := s.handler.Due(ctx, s.opts.BatchSize)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}

	for _, id := range due {
		itemCtx := ctx
		var cancel func()
		if s.opts.ProcessTimeout > 0 {
			itemCtx, cancel = context.WithTimeout(ctx, s.opts.ProcessTimeout)
		}
		err := s.handler.Process(itemCtx, id)
		if cancel != nil {
			cancel()
		}

		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			s.m.processedTotal.WithLabelValues(s.label, "failure").Inc()
			s.opts.Logger.WithError(err).WithField("id", id).Warn("sweep: item failed")
			continue
		}
		s.m.processedTotal.WithLabelValues(s.label, "success").Inc()
	}

	s.m.batchSeconds.WithLabelValues(s.label).Observe(time.Since(start).Seconds())
	return nil
}

func (s *Sweeper) sleep(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.opts.PollInterval):
		return nil
	}
}

func (s *Sweeper) tryAcquireLeader(ctx context.Context, conn *pgxpool.Conn) (bool, error) {
	var ok bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1::bigint)`, s.lockKey).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (s *Sweeper) releaseLeader(ctx context.Context, conn *pgxpool.Conn) error {
	var ok bool
	return conn.QueryRow(ctx, `SELECT pg_advisory_unlock($1::bigint)`, s.lockKey).Scan(&ok)
}

func advisoryLockKey(s string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return int64(h.Sum64())
}
