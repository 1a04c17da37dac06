package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/marbelle/marbelle-backend/config"
	"github.com/marbelle/marbelle-backend/internal/app/model"
	"github.com/marbelle/marbelle-backend/internal/app/repository"
	"github.com/marbelle/marbelle-backend/internal/app/service"
	"github.com/marbelle/marbelle-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupSessionMiddlewareTest(t *testing.T) (*gin.Engine, *gorm.DB, *config.SessionConfig) {
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	sessionRepo := repository.NewSessionRepository(testDB)
	cartRepo := repository.NewCartRepository(testDB)
	sessionService := service.NewSessionService(testDB, sessionRepo, cartRepo, time.Hour)

	cfg := &config.SessionConfig{
		CookieName: "marbelle_sessionid",
		TTL:        time.Hour,
		Secure:     false,
	}

	router := gin.New()
	router.GET("/identity", SessionMiddleware(sessionService, cfg), func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{
			"is_guest":    identity.IsGuest(),
			"session_key": identity.SessionKey,
			"user_id":     identity.UserID,
		})
	})

	return router, testDB, cfg
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func TestSessionMiddleware_NewGuestGetsBothChannels(t *testing.T) {
	router, testDB, cfg := setupSessionMiddlewareTest(t)

	req := httptest.NewRequest("GET", "/identity", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	headerKey := w.Header().Get(SessionHeaderName)
	assert.Len(t, headerKey, 64)

	cookie := sessionCookie(t, w, cfg.CookieName)
	require.NotNil(t, cookie)
	assert.Equal(t, headerKey, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, int(cfg.TTL.Seconds()), cookie.MaxAge)

	var count int64
	testDB.Model(&model.Session{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSessionMiddleware_ReusesCookieKey(t *testing.T) {
	router, testDB, cfg := setupSessionMiddlewareTest(t)

	key := "aa11223344556677889900aabbccddeeff00112233445566778899aabbccddee"
	require.NoError(t, testDB.Create(&model.Session{
		SessionKey: key,
		ExpiresAt:  time.Now().Add(time.Hour),
	}).Error)

	req := httptest.NewRequest("GET", "/identity", nil)
	req.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: key})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, key, w.Header().Get(SessionHeaderName))

	var count int64
	testDB.Model(&model.Session{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSessionMiddleware_HeaderBeatsCookie(t *testing.T) {
	router, testDB, cfg := setupSessionMiddlewareTest(t)

	headerKey := "bb11223344556677889900aabbccddeeff00112233445566778899aabbccddee"
	cookieKey := "cc11223344556677889900aabbccddeeff00112233445566778899aabbccddee"
	for _, key := range []string{headerKey, cookieKey} {
		require.NoError(t, testDB.Create(&model.Session{
			SessionKey: key,
			ExpiresAt:  time.Now().Add(time.Hour),
		}).Error)
	}

	req := httptest.NewRequest("GET", "/identity", nil)
	req.Header.Set(SessionHeaderName, headerKey)
	req.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: cookieKey})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, headerKey, w.Header().Get(SessionHeaderName))
}

func TestSessionMiddleware_ExpiredKeyReplaced(t *testing.T) {
	router, testDB, cfg := setupSessionMiddlewareTest(t)

	expired := "dd11223344556677889900aabbccddeeff00112233445566778899aabbccddee"
	require.NoError(t, testDB.Create(&model.Session{
		SessionKey: expired,
		ExpiresAt:  time.Now().Add(-time.Minute),
	}).Error)

	req := httptest.NewRequest("GET", "/identity", nil)
	req.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: expired})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	newKey := w.Header().Get(SessionHeaderName)
	assert.Len(t, newKey, 64)
	assert.NotEqual(t, expired, newKey)
}

func TestSessionMiddleware_AuthenticatedSkipsSession(t *testing.T) {
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	sessionRepo := repository.NewSessionRepository(testDB)
	cartRepo := repository.NewCartRepository(testDB)
	sessionService := service.NewSessionService(testDB, sessionRepo, cartRepo, time.Hour)
	cfg := &config.SessionConfig{CookieName: "marbelle_sessionid", TTL: time.Hour}

	router := gin.New()
	// Simulate OptionalAuthenticate having placed the user in context
	router.GET("/identity",
		func(c *gin.Context) { c.Set(UserIDKey, uint(42)) },
		SessionMiddleware(sessionService, cfg),
		func(c *gin.Context) {
			identity, ok := GetIdentity(c)
			require.True(t, ok)
			assert.True(t, identity.IsAuthenticated())
			assert.Equal(t, uint(42), identity.UserID)
			c.Status(http.StatusOK)
		},
	)

	req := httptest.NewRequest("GET", "/identity", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get(SessionHeaderName))

	var count int64
	testDB.Model(&model.Session{}).Count(&count)
	assert.Equal(t, int64(0), count)
}
