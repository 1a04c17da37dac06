package scheduler

import (
	"github.com/marbelle/marbelle-backend/internal/app/service"
	"github.com/marbelle/marbelle-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// SessionScheduler runs the daily sweep of expired guest sessions and the
// carts they left behind.
type SessionScheduler struct {
	cron           *cron.Cron
	sessionService service.SessionService
}

func NewSessionScheduler(sessionService service.SessionService) *SessionScheduler {
	return &SessionScheduler{
		cron:           cron.New(),
		sessionService: sessionService,
	}
}

func (s *SessionScheduler) Start() error {
	// Daily at 03:00, when guest traffic is lowest.
	_, err := s.cron.AddFunc("0 3 * * *", func() {
		logger.Info("Starting scheduled session cleanup", nil)

		sessions, carts, err := s.sessionService.PurgeExpired()
		if err != nil {
			logger.Error("Failed to purge expired sessions from scheduler", err)
			return
		}

		logger.Info("Scheduled session cleanup finished", map[string]interface{}{
			"sessions_deleted": sessions,
			"carts_deleted":    carts,
		})
	})

	if err != nil {
		logger.Error("Failed to add cron job for session cleanup", err)
		return err
	}

	s.cron.Start()
	logger.Info("Session cleanup scheduler started (daily at 3:00 AM)", nil)

	return nil
}

func (s *SessionScheduler) Stop() {
	logger.Info("Stopping session cleanup scheduler...", nil)
	s.cron.Stop()
	logger.Info("Session cleanup scheduler stopped", nil)
}
