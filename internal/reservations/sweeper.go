package reservations

import (
	"context"
	"errors"
	"time"

	"ticketly/internal/seats"
	"ticketly/pkg/logger"
)

// Sweeper is the background safety net behind lazy expiry. It periodically
// walks reserved tokens and releases any whose ledger entry is missing or past
// its expiry, so seats never stay stuck if nobody touches a dead hold again.
type Sweeper struct {
	store    seats.Store
	ledger   Ledger
	interval time.Duration
	log      *logger.Logger
	now      func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

func NewSweeper(store seats.Store, ledger Ledger, interval time.Duration) *Sweeper {
	return &Sweeper{
		store:    store,
		ledger:   ledger,
		interval: interval,
		log:      logger.GetDefault(),
		now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop is called or ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	go func() {
		defer close(s.doneCh)

		s.log.InfoWithContext(ctx, "reservation sweeper started",
			map[string]interface{}{"interval": s.interval.String()})

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.Sweep(ctx)
			case <-s.stopCh:
				s.log.InfoWithContext(ctx, "reservation sweeper stopped", nil)
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop signals the loop and waits for the in-flight sweep to finish.
func (s *Sweeper) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

// Sweep runs one pass. Exported so tests and operators can trigger it directly.
func (s *Sweeper) Sweep(ctx context.Context) {
	tokens, err := s.store.FindReservedTokens(ctx)
	if err != nil {
		s.log.ErrorWithContext(ctx, "sweep failed to list reserved tokens", err, nil)
		return
	}

	for _, token := range tokens {
		s.sweepToken(ctx, token)
	}
}

func (s *Sweeper) sweepToken(ctx context.Context, token string) {
	hold, err := s.ledger.Get(ctx, token)
	if err != nil {
		if !errors.Is(err, ErrReservationNotFound) {
			s.log.ErrorWithContext(ctx, "sweep failed to read hold", err,
				map[string]interface{}{"token": token})
			return
		}
		// Ledger entry gone but seats still RESERVED: orphaned claim
	} else if !hold.ExpiredAt(s.now()) {
		return
	}

	// Release only touches RESERVED rows, so a confirm that won the race and
	// flipped them to BOOKED is untouched.
	released, err := s.store.ReleaseSeats(ctx, token)
	if err != nil {
		s.log.ErrorWithContext(ctx, "sweep failed to release seats", err,
			map[string]interface{}{"token": token})
		return
	}

	if hold != nil {
		if err := s.ledger.Delete(ctx, token); err != nil {
			s.log.ErrorWithContext(ctx, "sweep failed to delete hold", err,
				map[string]interface{}{"token": token})
		}
	}

	if released > 0 {
		s.log.LogReservationReleased(ctx, token, "swept")
	}
}
