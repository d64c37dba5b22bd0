package routes

import (
	"log/slog"
	"time"

	_ "safespace-chat/docs"
	"safespace-chat/internal/api/handlers"
	"safespace-chat/internal/api/middleware"
	"safespace-chat/internal/chat"
	"safespace-chat/internal/websocket"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Options carries the router's collaborators. Limiter, Incidents and the
// health checks are optional.
type Options struct {
	Hub               *websocket.Hub
	Rooms             *chat.RoomRegistry
	Incidents         handlers.IncidentStore
	Limiter           middleware.RateLimiter
	HealthChecks      map[string]handlers.Pinger
	AllowedOrigins    []string
	ConnectRateLimit  int
	ConnectRateWindow time.Duration
	Logger            *slog.Logger
}

type Router struct {
	engine          *gin.Engine
	wsHandler       *handlers.WSHandler
	roomHandler     *handlers.RoomHandler
	healthHandler   *handlers.HealthHandler
	incidentHandler *handlers.IncidentHandler
	rateLimitMW     *middleware.RateLimitMiddleware
	opts            Options
}

func NewRouter(opts Options) *Router {
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(opts.AllowedOrigins))
	engine.Use(middleware.LogApi())

	r := &Router{
		engine:        engine,
		wsHandler:     handlers.NewWSHandler(opts.Hub, websocket.NewUpgrader(opts.AllowedOrigins)),
		roomHandler:   handlers.NewRoomHandler(opts.Rooms, opts.Hub),
		healthHandler: handlers.NewHealthHandler(opts.Hub, opts.Rooms, opts.HealthChecks),
		rateLimitMW:   middleware.NewRateLimitMiddleware(opts.Limiter, opts.Logger),
		opts:          opts,
	}
	if opts.Incidents != nil {
		r.incidentHandler = handlers.NewIncidentHandler(opts.Incidents)
	}
	return r
}

func (r *Router) SetupRoutes() {
	// Swagger documentation
	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.engine.GET("/health", r.healthHandler.Health)

	api := r.engine.Group("/api/v1")

	api.GET("/ws",
		r.rateLimitMW.WebSocketRateLimit(r.opts.ConnectRateLimit, r.opts.ConnectRateWindow),
		r.wsHandler.HandleWebSocket,
	)

	rooms := api.Group("/rooms")
	{
		rooms.GET("", r.roomHandler.ListRooms)
		rooms.GET("/:id", r.roomHandler.GetRoom)
	}

	api.GET("/metrics", r.roomHandler.GetMetrics)

	// incident history exists only when a database is configured
	if r.incidentHandler != nil {
		api.GET("/crisis/incidents", r.incidentHandler.ListIncidents)
	}
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
