package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/smallbiznis/valora-connect/internal/config"
	"github.com/smallbiznis/valora-connect/internal/http/handler"
	httpmiddleware "github.com/smallbiznis/valora-connect/internal/http/middleware"
	"github.com/smallbiznis/valora-connect/internal/middleware"
)

// NewRouter wires Gin routes and middleware.
func NewRouter(cfg config.Config, integrationHandler *handler.IntegrationHandler, rateLimiter *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(nil))
	if rateLimiter != nil {
		r.Use(rateLimiter.Handler())
	}
	r.Use(middleware.CORS(cfg))
	r.Use(otelgin.Middleware(cfg.ServiceName))

	integrations := r.Group("/integrations/:provider")
	{
		integrations.GET("/authorize", integrationHandler.Authorize)
		integrations.GET("/oauth2callback", integrationHandler.Callback)
		integrations.POST("/credentials", integrationHandler.Credentials)
		integrations.POST("/items", integrationHandler.LoadItems)
	}

	return r
}
