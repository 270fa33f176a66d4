package router

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/escalation-service/api"
	"github.com/psds-microservice/escalation-service/internal/handler"
	"github.com/psds-microservice/helpy/paths"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Handlers struct {
	Chat     *handler.ChatHandler
	Ticket   *handler.TicketHandler
	LowScore *handler.LowScoreHandler
}

func New(h Handlers) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	// Фронтенд ходит с любого origin — CORS открыт полностью.
	r.Use(cors.Default())

	r.GET(paths.PathHealth, gin.WrapF(handler.Health))
	r.GET(paths.PathReady, gin.WrapF(handler.Ready))
	r.GET(paths.PathSwagger, func(c *gin.Context) { c.Redirect(http.StatusFound, paths.PathSwagger+"/") })
	r.GET(paths.PathSwagger+"/*any", func(c *gin.Context) {
		if strings.TrimPrefix(c.Param("any"), "/") == "openapi.json" {
			c.Data(http.StatusOK, "application/json", api.OpenAPISpec)
			return
		}
		if strings.TrimPrefix(c.Param("any"), "/") == "" {
			c.Request.URL.Path = paths.PathSwagger + "/index.html"
			c.Request.RequestURI = paths.PathSwagger + "/index.html"
		}
		ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/openapi.json"))(c)
	})

	r.POST("/chat", h.Chat.Chat)
	r.GET("/tickets", h.Ticket.List)
	r.GET("/tickets/:id", h.Ticket.Get)
	r.POST("/tickets/:id/resolve", h.Ticket.Resolve)
	r.POST("/tickets/:id/update-status", h.Ticket.UpdateStatus)
	r.POST("/tickets/:id/start-work", h.Ticket.StartWork)

	// Легаси-поток с логом низкой уверенности вместо тикета.
	r.POST("/ask", h.LowScore.Ask)
	r.POST("/log_low_score_query", h.LowScore.LogQuery)
	r.GET("/logs", h.LowScore.List)
	r.DELETE("/log", h.LowScore.Delete)

	return r
}
