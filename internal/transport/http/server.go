package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mkazmin/chatcast-server/internal/auth"
	"github.com/mkazmin/chatcast-server/internal/config"
	"github.com/mkazmin/chatcast-server/internal/core"
)

// Deps groups what the HTTP layer needs from the application.
type Deps struct {
	Store       core.ChatStore
	Verifier    core.Verifier
	Presence    *core.Presence
	Broadcaster *core.Broadcaster
	Colors      *core.ColorAssigner
	AuthService *auth.Service
}

// NewServer builds the HTTP server: the chat WebSocket endpoint, a health
// check and the token-issuing REST API.
func NewServer(deps Deps, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	// One logical connection per client, mounted at a fixed path.
	router.GET("/chat", gin.WrapH(NewWSHandler(deps, logger)))

	apiHandlers := NewAPIHandlers(deps.AuthService, logger)
	api := router.Group("/api")
	{
		api.POST("/register", apiHandlers.Register)
		api.POST("/login", apiHandlers.Login)
		api.POST("/guest", apiHandlers.GuestLogin)
	}

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
