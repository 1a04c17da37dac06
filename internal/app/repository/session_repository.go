package repository

import (
	"time"

	"github.com/marbelle/marbelle-backend/internal/app/model"
	"github.com/marbelle/marbelle-backend/pkg/logger"
	"gorm.io/gorm"
)

// SessionRepository stores guest session records. An expired key is reported
// exactly like an unknown one: gorm.ErrRecordNotFound, never a distinct
// error.
type SessionRepository interface {
	WithTx(tx *gorm.DB) SessionRepository

	Create(session *model.Session) error
	FindValid(key string) (*model.Session, error)
	Delete(key string) error
	DeleteExpired() (int64, error)
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) WithTx(tx *gorm.DB) SessionRepository {
	return &sessionRepository{db: tx}
}

func (r *sessionRepository) Create(session *model.Session) error {
	if err := r.db.Create(session).Error; err != nil {
		logger.Error("Failed to create session in database", err, nil)
		return err
	}

	logger.Debug("Session created in database", map[string]interface{}{
		"expires_at": session.ExpiresAt,
	})
	return nil
}

func (r *sessionRepository) FindValid(key string) (*model.Session, error) {
	var session model.Session
	err := r.db.
		Where("session_key = ? AND expires_at > ?", key, time.Now()).
		First(&session).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find session in database", err, nil)
		}
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) Delete(key string) error {
	if err := r.db.Where("session_key = ?", key).Delete(&model.Session{}).Error; err != nil {
		logger.Error("Failed to delete session from database", err, nil)
		return err
	}
	return nil
}

func (r *sessionRepository) DeleteExpired() (int64, error) {
	result := r.db.Where("expires_at <= ?", time.Now()).Delete(&model.Session{})
	if result.Error != nil {
		logger.Error("Failed to delete expired sessions from database", result.Error, nil)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
