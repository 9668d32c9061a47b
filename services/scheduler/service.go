package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"coachportal/services/portal"
)

// DefaultInterval is how often the cleanup sweep runs when not configured.
const DefaultInterval = 1 * time.Hour

// Service runs the periodic portal token cleanup in the background. The same
// sweep is also reachable through the HTTP cleanup endpoint for external cron.
type Service struct {
	portalSvc *portal.Service
	interval  time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewService creates a scheduler service.
func NewService(portalSvc *portal.Service, interval time.Duration) *Service {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Service{portalSvc: portalSvc, interval: interval}
}

// Start begins the background cleanup loop. Calling Start on a running
// scheduler is a no-op.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true

	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.loop(ctx)
}

// Stop halts the loop and waits for an in-flight sweep to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Service) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.portalSvc.Cleanup(ctx); err != nil {
				log.Error().Err(err).Msg("scheduled portal token cleanup failed")
			}
		}
	}
}
