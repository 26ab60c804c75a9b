package router

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/suryansh863/ZKBridge.app-sub000/internal/config"
	"github.com/suryansh863/ZKBridge.app-sub000/internal/handlers"
	"github.com/suryansh863/ZKBridge.app-sub000/internal/middleware"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Bridge    *handlers.BridgeHandler
	Relay     *handlers.RelayHandler
	Registry  *handlers.RegistryHandler
	WebSocket *handlers.WebSocketHandler
	Health    *handlers.HealthHandler
}

// New assembles the gin engine with CORS, metrics and all API routes.
func New(cfg *config.Config, auth *middleware.AuthMiddleware, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(cfg.CORS))

	r.GET("/health", h.Health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", h.WebSocket.Subscribe)

	api := r.Group("/api")
	{
		bridge := api.Group("/bridge")
		{
			bridge.POST("/transfers", h.Bridge.InitiateTransfer)
			bridge.GET("/transfers", h.Bridge.ListTransfers)
			bridge.GET("/transfers/:id", h.Bridge.GetTransfer)
			bridge.GET("/transfers/:id/events", h.Bridge.GetTransferEvents)
			bridge.POST("/transfers/:id/cancel", h.Bridge.CancelTransfer)
		}

		relay := api.Group("/relay")
		{
			relay.GET("/tip", h.Relay.GetTip)
			relay.GET("/status", h.Relay.GetStatus)
			relay.GET("/headers/:height", h.Relay.GetHeader)
			relay.GET("/headers/:height/confirmations", h.Relay.GetConfirmations)
			relay.POST("/headers", auth.RequireRole(middleware.RoleRelayer), h.Relay.AppendHeader)
		}

		reg := api.Group("/registry")
		{
			reg.POST("/proofs", h.Registry.SubmitProof)
			reg.GET("/proofs/:hash", h.Registry.GetProof)
			reg.POST("/proofs/:hash/verify", h.Registry.VerifyProof)
			reg.POST("/proofs/verify-batch", h.Registry.BatchVerify)
			reg.GET("/stats", h.Registry.GetStats)
			reg.GET("/circuits/:id", h.Registry.GetCircuit)
		}

		admin := api.Group("/admin", auth.RequireRole(middleware.RoleAdmin))
		{
			admin.POST("/relay/pause", h.Relay.Pause)
			admin.POST("/relay/resume", h.Relay.Resume)
			admin.POST("/registry/circuits", h.Registry.RegisterCircuit)
			admin.PATCH("/registry/circuits/:id", h.Registry.SetCircuitActive)
		}
	}

	return r
}

func corsMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	maxAge := cfg.MaxAgeSeconds
	if maxAge <= 0 {
		maxAge = 3600
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		if len(cfg.AllowedOrigins) == 0 {
			c.Header("Access-Control-Allow-Origin", "*")
		} else if origin != "" && originAllowed(cfg.AllowedOrigins, origin) {
			c.Header("Access-Control-Allow-Origin", origin)
			if cfg.AllowCredentials {
				c.Header("Access-Control-Allow-Credentials", "true")
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
			c.Header("Access-Control-Max-Age", strconv.Itoa(maxAge))
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func originAllowed(allowed []string, origin string) bool {
	for _, a := range allowed {
		if strings.TrimSpace(a) == origin {
			return true
		}
	}
	return false
}
