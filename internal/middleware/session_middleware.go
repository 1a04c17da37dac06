package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/marbelle/marbelle-backend/config"
	"github.com/marbelle/marbelle-backend/internal/app/model"
	"github.com/marbelle/marbelle-backend/internal/app/service"
	"github.com/marbelle/marbelle-backend/internal/response"
)

const (
	// SessionHeaderName is the cookie-free channel of the dual session
	// protocol: clients whose cookies are blocked persist the key
	// themselves and send it back in this header.
	SessionHeaderName = "X-Session-ID"

	IdentityKey = "identity"
)

// SessionMiddleware resolves the request identity. Run it after
// OptionalAuthenticate: a valid bearer wins and guest signals are ignored
// for ownership, while for guests the precedence is header > cookie >
// create-new. Guests always get the active key echoed on both channels, so
// a client that dropped the cookie can still resume via the header.
func SessionMiddleware(sessionService service.SessionService, cfg *config.SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		if userID, ok := GetUserID(c); ok {
			c.Set(IdentityKey, model.AuthenticatedIdentity(userID))
			c.Next()
			return
		}

		headerKey := c.GetHeader(SessionHeaderName)
		cookieKey, _ := c.Cookie(cfg.CookieName)

		key, created, err := sessionService.ResolveGuestKey(headerKey, cookieKey)
		if err != nil {
			log.Error("Failed to resolve guest session", err, map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			response.InternalError(c, "")
			c.Abort()
			return
		}

		if created {
			log.Debug("Issued new guest session", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
		}

		c.Set(IdentityKey, model.GuestIdentity(key))

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cfg.CookieName, key, int(cfg.TTL.Seconds()), "/", "", cfg.Secure, true)
		c.Header(SessionHeaderName, key)

		c.Next()
	}
}

// GetIdentity extracts the resolved identity from context
func GetIdentity(c *gin.Context) (model.Identity, bool) {
	value, exists := c.Get(IdentityKey)
	if !exists {
		return model.Identity{}, false
	}
	identity, ok := value.(model.Identity)
	return identity, ok
}
