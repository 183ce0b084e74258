package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mvolkova/stashbot/app/cfg"
)

// NewServer creates the HTTP server with all routes configured.
func NewServer(handler *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	// CORS for dashboard access
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-API-Key, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler) {
	appCfg := cfg.Get()

	// Messaging webhook: the provider does not send an API key, so this
	// stays outside the authenticated group.
	r.POST("/webhook", handler.Webhook)

	r.GET("/health", handler.GetHealth)
	r.GET("/stats", handler.GetStats)

	if appCfg.APIAccessKey != "" {
		api := r.Group("/api")
		api.Use(authMiddleware(appCfg.APIAccessKey))
		{
			api.GET("/content", handler.APIListContent)
			api.GET("/content/:id", handler.APIGetContent)
			api.PUT("/content/:id", handler.APIUpdateContent)
			api.DELETE("/content/:id", handler.APIDeleteContent)
			api.POST("/content/:id/regenerate", handler.APIRegenerateContent)
			api.POST("/content/:id/collection", handler.APIAssignCollection)

			api.GET("/search", handler.APISearchContent)
			api.GET("/random", handler.APIGetRandomContent)
			api.GET("/categories", handler.APIListCategories)
			api.GET("/platforms", handler.APIListPlatforms)
			api.GET("/export/csv", handler.APIExportCSV)

			api.GET("/collections", handler.APIListCollections)
			api.POST("/collections", handler.APICreateCollection)
			api.DELETE("/collections/:name", handler.APIDeleteCollection)

			api.POST("/digests/daily", handler.APITriggerDailyDose)
			api.POST("/digests/weekly", handler.APITriggerWeeklyDigest)
		}
		slog.Info("API endpoints enabled with authentication")
	} else {
		slog.Info("API endpoints disabled (API_ACCESS_KEY not set)")
	}

	r.GET("/", func(c *gin.Context) {
		endpoints := map[string]string{
			"webhook": "/webhook (POST)",
			"health":  "/health",
			"stats":   "/stats",
		}

		if appCfg.APIAccessKey != "" {
			endpoints["content"] = "/api/content (requires X-API-Key header)"
			endpoints["search"] = "/api/search?q=<query> (requires X-API-Key header)"
			endpoints["export"] = "/api/export/csv (requires X-API-Key header)"
		}

		c.JSON(200, gin.H{
			"service":     "Stashbot",
			"version":     appCfg.Version,
			"description": "URL-saving bot with metadata extraction, enrichment, and digests",
			"endpoints":   endpoints,
			"api_status": map[string]interface{}{
				"enabled":       appCfg.APIAccessKey != "",
				"auth_required": appCfg.APIAccessKey != "",
				"header":        "X-API-Key",
			},
		})
	})

	// Favicon handler (return 204 to avoid 404s)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}

// authMiddleware guards API endpoints with a shared key.
func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")

		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"message": "Provide API key in X-API-Key header or Authorization: Bearer <key>",
			})
			c.Abort()
			return
		}

		if providedKey != apiAccessKey {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid API key",
				"message": "The provided API key is not valid",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
