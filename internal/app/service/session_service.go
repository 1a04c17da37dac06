package service

import (
	"errors"
	"time"

	"github.com/marbelle/marbelle-backend/internal/app/model"
	"github.com/marbelle/marbelle-backend/internal/app/repository"
	"github.com/marbelle/marbelle-backend/pkg/logger"
	"github.com/marbelle/marbelle-backend/pkg/util"
	"gorm.io/gorm"
)

// SessionService resolves the guest half of the request identity. The
// precedence is header > cookie > create-new: the X-Session-ID header exists
// for clients whose cookies are blocked, so it wins when both are present.
//
// An expired or unknown key is never an error; it silently falls through to
// creating a fresh session, which means the caller loses continuity with any
// cart that existed under the old key.
type SessionService interface {
	// ResolveGuestKey returns the live session key for the request, creating
	// a new session record when neither candidate names one. created reports
	// whether a new record was minted.
	ResolveGuestKey(headerKey, cookieKey string) (key string, created bool, err error)

	// PurgeExpired deletes expired session rows and the guest carts they
	// stranded. Returns counts of sessions and carts removed.
	PurgeExpired() (sessions int64, carts int64, err error)
}

type sessionService struct {
	db          *gorm.DB
	sessionRepo repository.SessionRepository
	cartRepo    repository.CartRepository
	ttl         time.Duration
}

func NewSessionService(
	db *gorm.DB,
	sessionRepo repository.SessionRepository,
	cartRepo repository.CartRepository,
	ttl time.Duration,
) SessionService {
	return &sessionService{
		db:          db,
		sessionRepo: sessionRepo,
		cartRepo:    cartRepo,
		ttl:         ttl,
	}
}

func (s *sessionService) ResolveGuestKey(headerKey, cookieKey string) (string, bool, error) {
	for _, candidate := range []string{headerKey, cookieKey} {
		if candidate == "" {
			continue
		}
		session, err := s.sessionRepo.FindValid(candidate)
		if err == nil {
			return session.SessionKey, false, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, err
		}
		// Expired or unknown: fall through, never an error.
	}

	key, err := util.GenerateSessionKey()
	if err != nil {
		return "", false, err
	}

	now := time.Now()
	session := &model.Session{
		SessionKey: key,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}
	if err := s.sessionRepo.Create(session); err != nil {
		return "", false, err
	}

	logger.Debug("New guest session created", map[string]interface{}{
		"expires_at": session.ExpiresAt,
	})
	return key, true, nil
}

func (s *sessionService) PurgeExpired() (int64, int64, error) {
	var sessionsPurged, cartsPurged int64

	// Sessions go first so the stranded carts are visible to the orphan
	// sweep inside the same transaction.
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		sessionsPurged, err = s.sessionRepo.WithTx(tx).DeleteExpired()
		if err != nil {
			return err
		}
		cartsPurged, err = s.cartRepo.WithTx(tx).DeleteOrphanedGuestCarts()
		return err
	})
	if err != nil {
		logger.Error("Failed to purge expired sessions", err)
		return 0, 0, err
	}

	if sessionsPurged > 0 || cartsPurged > 0 {
		logger.Info("Purged expired guest sessions", map[string]interface{}{
			"sessions_deleted": sessionsPurged,
			"carts_deleted":    cartsPurged,
		})
	}
	return sessionsPurged, cartsPurged, nil
}
