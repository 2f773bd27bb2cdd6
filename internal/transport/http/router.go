package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// RouteRegistrar — общий контракт обработчиков REST-слоя.
type RouteRegistrar interface {
	RegisterRoutes(router *gin.RouterGroup)
}

// Router собирает gin-движок: цепочку middleware, открытые маршруты
// аутентификации и защищённые маршруты за Bearer-токеном.
type Router struct {
	engine *gin.Engine
}

// NewRouter создаёт маршрутизатор с проверкой токена для всех
// маршрутов, кроме /auth.
func NewRouter(logger *log.Entry, parser TokenParser, authHandler RouteRegistrar, protected ...RouteRegistrar) *Router {
	if logger == nil {
		logger = log.WithField("component", "http")
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(RequestIDMiddleware())
	engine.Use(RecoveryMiddleware(logger))
	engine.Use(LoggingMiddleware(logger))

	open := engine.Group("/api/v1")
	authHandler.RegisterRoutes(open)

	secured := engine.Group("/api/v1")
	secured.Use(AuthMiddleware(parser))
	for _, registrar := range protected {
		registrar.RegisterRoutes(secured)
	}

	return &Router{engine: engine}
}

// Handler возвращает http.Handler для запуска сервера.
func (r *Router) Handler() http.Handler {
	return r.engine
}

// ServeHTTP позволяет использовать Router напрямую в httptest.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.engine.ServeHTTP(w, req)
}
