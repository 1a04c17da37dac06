package router

import (
	"github.com/gin-gonic/gin"
	"github.com/marbelle/marbelle-backend/config"
	"github.com/marbelle/marbelle-backend/internal/app/controller"
	"github.com/marbelle/marbelle-backend/internal/app/service"
	"github.com/marbelle/marbelle-backend/internal/middleware"
)

type Router struct {
	authController *controller.AuthController
	cartController *controller.CartController
	authMiddleware *middleware.AuthMiddleware
	sessionService service.SessionService
	config         *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	cartController *controller.CartController,
	authMiddleware *middleware.AuthMiddleware,
	sessionService service.SessionService,
	cfg *config.Config,
) *Router {
	return &Router{
		authController: authController,
		cartController: cartController,
		authMiddleware: authMiddleware,
		sessionService: sessionService,
		config:         cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "MARBELLE API is running",
		})
	})

	// Guest identity resolution: optional auth first so authenticated
	// requests skip session creation, then the session middleware.
	session := []gin.HandlerFunc{
		r.authMiddleware.OptionalAuthenticate(),
		middleware.SessionMiddleware(r.sessionService, &r.config.Session),
	}

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register/", r.authController.Register)
			auth.POST("/login/", append(session, r.authController.Login)...)
			auth.POST("/logout/", r.authMiddleware.Authenticate(), r.authController.Logout)
			auth.GET("/me/", r.authMiddleware.Authenticate(), r.authController.GetMe)
		}

		cart := v1.Group("/cart")
		cart.Use(session...)
		{
			cart.GET("/", r.cartController.GetCart)
			cart.POST("/items/", r.cartController.AddItem)
			cart.PUT("/items/:id/", r.cartController.UpdateItem)
			cart.DELETE("/items/:id/remove/", r.cartController.RemoveItem)
			cart.DELETE("/clear/", r.cartController.ClearCart)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Session-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Session-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
