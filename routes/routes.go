package routes

import (
	"github.com/gin-gonic/gin"

	"schikko/controllers"
	"schikko/middleware"
)

func InitializeRoutes(router *gin.Engine, h *controllers.Handler) {
	router.GET("/healthz", controllers.Healthz)

	api := router.Group("/")
	api.Use(middleware.Identity(h.Tokens))
	{
		api.POST("/auth/anon", h.Anon)

		api.GET("/schikko/status", h.SchikkoStatus)
		api.POST("/schikko/set", h.SchikkoSet)
		api.POST("/schikko/confirm", h.SchikkoConfirm)
		api.POST("/schikko/login", h.SchikkoLogin)
		api.POST("/schikko/action", h.Action)

		api.POST("/drink/request", h.DrinkRequest)

		api.GET("/ledger", h.GetLedger)
		api.GET("/rules", h.GetRules)
	}
}
