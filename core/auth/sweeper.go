package auth

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"incidesk/config"
	"incidesk/core/store"
	"incidesk/core/utils"
)

// Sweeper deletes expired sessions on a cron schedule.
type Sweeper struct {
	cron     *cron.Cron
	sessions store.SessionStore
	cfg      config.SchedulerConfig
	logger   *utils.Logger
}

func NewSweeper(sessions store.SessionStore, cfg config.SchedulerConfig, logger *utils.Logger) *Sweeper {
	return &Sweeper{cron: cron.New(), sessions: sessions, cfg: cfg, logger: logger}
}

func (s *Sweeper) Start() {
	if s == nil || !s.cfg.Enabled {
		return
	}
	spec := s.cfg.SweepSpec
	if spec == "" {
		spec = "@every 5m"
	}
	_, err := s.cron.AddFunc(spec, s.sweep)
	if err != nil {
		if s.logger != nil {
			s.logger.Errorf("session sweeper schedule %q: %v", spec, err)
		}
		return
	}
	s.cron.Start()
}

func (s *Sweeper) Stop() {
	if s == nil || !s.cfg.Enabled {
		return
	}
	<-s.cron.Stop().Done()
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	n, err := s.sessions.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		if s.logger != nil {
			s.logger.Errorf("session sweep: %v", err)
		}
		return
	}
	if n > 0 && s.logger != nil {
		s.logger.Printf("session sweep removed %d expired sessions", n)
	}
}
