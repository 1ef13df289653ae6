package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"order-matching/internal/engine"
)

// NewRouter wires the HTTP routes for the order API.
func NewRouter(eng *engine.Engine, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	handler := NewHandler(eng, log)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(RequestID(), RequestLogger(log), gin.Recovery())

	v1 := router.Group("/v1")
	{
		v1.POST("/orders", handler.PlaceOrder)
		v1.GET("/orders/:id", handler.GetOrder)

		v1.POST("/books", handler.CreateBook)
		v1.DELETE("/books/:asset", handler.DeleteBook)
		v1.GET("/books/:asset/orders", handler.ListLiveOrders)
	}

	return router
}
