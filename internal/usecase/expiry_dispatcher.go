package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/fantadynasty/transfer-market/internal/domain/auction"
	"github.com/fantadynasty/transfer-market/internal/domain/market"
)

// ExpiryDispatcher sweeps expired active auctions on an interval and
// submits their closes to a worker pool. Closes are idempotent, so a sweep
// racing a manual close, or two sweeps racing each other, is harmless.
type ExpiryDispatcher struct {
	auctionRepo auction.Repository
	sessionRepo market.Repository
	auctions    *AuctionService
	rubata      *RubataService
	pool        *ants.Pool
	interval    time.Duration
	logger      *slog.Logger
	now         func() time.Time
	stop        chan struct{}
	done        chan struct{}
}

func NewExpiryDispatcher(
	auctionRepo auction.Repository,
	sessionRepo market.Repository,
	auctions *AuctionService,
	rubataSvc *RubataService,
	poolSize int,
	interval time.Duration,
	logger *slog.Logger,
) (*ExpiryDispatcher, error) {
	if poolSize <= 0 {
		poolSize = 4
	}
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := ants.NewPool(poolSize, ants.WithNonblocking(false))
	if err != nil {
		return nil, err
	}

	return &ExpiryDispatcher{
		auctionRepo: auctionRepo,
		sessionRepo: sessionRepo,
		auctions:    auctions,
		rubata:      rubataSvc,
		pool:        pool,
		interval:    interval,
		logger:      logger,
		now:         time.Now,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}, nil
}

// Start runs the sweep loop until Stop is called or the context ends.
func (d *ExpiryDispatcher) Start(ctx context.Context) {
	go func() {
		defer close(d.done)
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-d.stop:
				return
			case <-ticker.C:
				d.Sweep(ctx)
			}
		}
	}()
}

// Stop halts the loop, waits for in-flight closes and releases the pool.
func (d *ExpiryDispatcher) Stop() {
	close(d.stop)
	<-d.done
	d.pool.Release()
}

// Sweep closes every auction whose timer ran out. Failures are logged and
// picked up again on the next tick.
func (d *ExpiryDispatcher) Sweep(ctx context.Context) {
	expired, err := d.auctionRepo.ListExpiredActive(ctx, d.now().UTC())
	if err != nil {
		d.logger.ErrorContext(ctx, "list expired auctions", slog.Any("error", err))
		return
	}
	if len(expired) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, a := range expired {
		a := a
		wg.Add(1)
		err := d.pool.Submit(func() {
			defer wg.Done()
			d.closeOne(ctx, a)
		})
		if err != nil {
			wg.Done()
			d.logger.ErrorContext(ctx, "submit auction close",
				slog.String("auction_id", a.ID), slog.Any("error", err))
		}
	}
	wg.Wait()
}

func (d *ExpiryDispatcher) closeOne(ctx context.Context, a auction.Auction) {
	if _, err := d.auctions.Close(ctx, a.ID); err != nil {
		// A lost race against another closer already settled the auction.
		if errors.Is(err, ErrConflict) {
			return
		}
		d.logger.ErrorContext(ctx, "close expired auction",
			slog.String("auction_id", a.ID), slog.Any("error", err))
		return
	}

	sess, exists, err := d.sessionRepo.GetByID(ctx, a.SessionID)
	if err != nil || !exists {
		d.logger.ErrorContext(ctx, "load session after close",
			slog.String("session_id", a.SessionID), slog.Any("error", err))
		return
	}
	// A settled claim auction resolves the turn that opened it.
	if sess.Phase == market.PhaseRubata {
		if _, err := d.rubata.ResolveCurrent(ctx, sess.ID); err != nil {
			d.logger.ErrorContext(ctx, "resolve claim turn",
				slog.String("session_id", sess.ID), slog.Any("error", err))
		}
	}
}
