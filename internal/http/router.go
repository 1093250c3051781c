package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pygmalion/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	jwtServ *service.JWTService,
	userH *UserHandler,
	characterH *CharacterHandler,
	chatH *ChatHandler,
	streamH *StreamHandler,
	healthH *HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging y recovery.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery())

	r.GET("/health", healthH.Live)
	r.GET("/health/ready", healthH.Ready)

	auth := r.Group("/api/auth")
	auth.POST("/register", userH.Register)
	auth.POST("/login", userH.Login)
	auth.POST("/refresh", userH.Refresh)
	auth.POST("/logout", userH.Logout)
	auth.GET("/me", JWTAuthMiddleware(jwtServ), userH.Me)

	characters := r.Group("/api/characters")
	characters.GET("", characterH.List)
	characters.GET("/presets", characterH.Presets)
	characters.GET("/:id", characterH.Get)
	characters.GET("/:id/similar", characterH.Similar)

	protected := characters.Group("", JWTAuthMiddleware(jwtServ))
	protected.POST("", characterH.Create)
	protected.PUT("/:id", characterH.Update)
	protected.DELETE("/:id", characterH.Delete)
	protected.POST("/:id/star", characterH.ToggleStar)
	protected.GET("/:id/star", characterH.IsStarred)

	chats := r.Group("/api/chats", JWTAuthMiddleware(jwtServ))
	chats.POST("", chatH.Create)
	chats.GET("", chatH.List)
	chats.GET("/:id", chatH.Get)
	chats.GET("/:id/messages", chatH.Messages)
	chats.DELETE("/:id", chatH.Delete)

	// El endpoint de streaming no pasa por el middleware JWT: valida el
	// body antes de resolver la sesion.
	r.POST("/api/chat/stream", streamH.StreamChat)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
