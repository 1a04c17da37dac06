package service

import (
	"testing"
	"time"

	"github.com/marbelle/marbelle-backend/internal/app/model"
	"github.com/marbelle/marbelle-backend/internal/app/repository"
	"github.com/marbelle/marbelle-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupSessionServiceTest(t *testing.T) (SessionService, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	sessionRepo := repository.NewSessionRepository(testDB)
	cartRepo := repository.NewCartRepository(testDB)
	sessionService := NewSessionService(testDB, sessionRepo, cartRepo, 4*7*24*time.Hour)

	return sessionService, testDB
}

func createSession(t *testing.T, testDB *gorm.DB, key string, expiresAt time.Time) {
	t.Helper()
	require.NoError(t, testDB.Create(&model.Session{
		SessionKey: key,
		ExpiresAt:  expiresAt,
	}).Error)
}

func TestSessionService_ResolveGuestKey_CreatesWhenEmpty(t *testing.T) {
	sessionService, testDB := setupSessionServiceTest(t)

	key, created, err := sessionService.ResolveGuestKey("", "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Len(t, key, 64)

	var session model.Session
	require.NoError(t, testDB.First(&session, "session_key = ?", key).Error)
	assert.True(t, session.ExpiresAt.After(time.Now()))
}

func TestSessionService_ResolveGuestKey_ReusesValidCookie(t *testing.T) {
	sessionService, testDB := setupSessionServiceTest(t)

	cookieKey := "aa00000000000000000000000000000000000000000000000000000000000011"
	createSession(t, testDB, cookieKey, time.Now().Add(time.Hour))

	key, created, err := sessionService.ResolveGuestKey("", cookieKey)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, cookieKey, key)
}

func TestSessionService_ResolveGuestKey_HeaderWinsOverCookie(t *testing.T) {
	sessionService, testDB := setupSessionServiceTest(t)

	headerKey := "bb00000000000000000000000000000000000000000000000000000000000022"
	cookieKey := "cc00000000000000000000000000000000000000000000000000000000000033"
	createSession(t, testDB, headerKey, time.Now().Add(time.Hour))
	createSession(t, testDB, cookieKey, time.Now().Add(time.Hour))

	key, created, err := sessionService.ResolveGuestKey(headerKey, cookieKey)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, headerKey, key)
}

func TestSessionService_ResolveGuestKey_InvalidHeaderFallsBackToCookie(t *testing.T) {
	sessionService, testDB := setupSessionServiceTest(t)

	cookieKey := "dd00000000000000000000000000000000000000000000000000000000000044"
	createSession(t, testDB, cookieKey, time.Now().Add(time.Hour))

	key, created, err := sessionService.ResolveGuestKey("not-a-known-key", cookieKey)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, cookieKey, key)
}

func TestSessionService_ResolveGuestKey_ExpiredKeyGetsFreshSession(t *testing.T) {
	sessionService, testDB := setupSessionServiceTest(t)

	expiredKey := "ee00000000000000000000000000000000000000000000000000000000000055"
	createSession(t, testDB, expiredKey, time.Now().Add(-time.Minute))

	key, created, err := sessionService.ResolveGuestKey(expiredKey, "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, expiredKey, key)
}

func TestSessionService_PurgeExpired(t *testing.T) {
	sessionService, testDB := setupSessionServiceTest(t)

	liveKey := "1100000000000000000000000000000000000000000000000000000000000066"
	deadKey := "2200000000000000000000000000000000000000000000000000000000000077"
	createSession(t, testDB, liveKey, time.Now().Add(time.Hour))
	createSession(t, testDB, deadKey, time.Now().Add(-time.Hour))

	// Each session has a guest cart.
	liveCart := &model.Cart{SessionKey: &liveKey}
	require.NoError(t, testDB.Create(liveCart).Error)
	deadCart := &model.Cart{SessionKey: &deadKey}
	require.NoError(t, testDB.Create(deadCart).Error)

	sessions, carts, err := sessionService.PurgeExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), sessions)
	assert.Equal(t, int64(1), carts)

	var sessionCount, cartCount int64
	testDB.Model(&model.Session{}).Count(&sessionCount)
	testDB.Model(&model.Cart{}).Count(&cartCount)
	assert.Equal(t, int64(1), sessionCount)
	assert.Equal(t, int64(1), cartCount)

	// The surviving rows belong to the live session
	var cart model.Cart
	require.NoError(t, testDB.First(&cart).Error)
	require.NotNil(t, cart.SessionKey)
	assert.Equal(t, liveKey, *cart.SessionKey)
}

func TestSessionService_PurgeExpired_KeepsUserCarts(t *testing.T) {
	sessionService, testDB := setupSessionServiceTest(t)

	user := &model.User{
		Email:        "keep@example.com",
		PasswordHash: "hash",
		Name:         "Keeper",
		Role:         model.RoleUser,
	}
	require.NoError(t, testDB.Create(user).Error)

	userCart := &model.Cart{UserID: &user.ID}
	require.NoError(t, testDB.Create(userCart).Error)

	_, carts, err := sessionService.PurgeExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(0), carts)

	var cartCount int64
	testDB.Model(&model.Cart{}).Count(&cartCount)
	assert.Equal(t, int64(1), cartCount)
}
