package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/controllers"
)

func RegisterRoutes(r *gin.Engine, dashboard *controllers.DashboardController, storefront *controllers.StorefrontController) {
	r.GET("/health", dashboard.Health)
	r.NoRoute(dashboard.NotFound)

	admin := r.Group("/admin")
	{
		admin.GET("", dashboard.Admin)
		admin.GET("/activity", dashboard.Activity)
	}

	shop := r.Group("/storefront")
	{
		shop.GET("", storefront.Get)
		shop.POST("/buy", storefront.Buy)
	}
}
