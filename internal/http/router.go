package api

import (
	stdhttp "net/http"

	intconfig "storefront/internal/config"
	"storefront/internal/domain"
	h "storefront/internal/http/handlers"
	"storefront/internal/http/middleware"
	"storefront/internal/services"
	"storefront/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func NewRouter(env intconfig.Env, deps *h.API) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		utils.L().Warn("failed to set trusted proxies", zap.Error(err))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	r.GET("/", func(c *gin.Context) {
		c.Redirect(stdhttp.StatusTemporaryRedirect, "/api/catalog/"+string(domain.DefaultCategory))
	})

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", h.DBCheck)
		api.GET("/routes", h.Routes)
		api.GET("/about", h.About)

		// Catalog sections
		catalog := api.Group("/catalog/:category")
		catalog.GET("", deps.BrowseCatalog)
		catalog.GET("/filters", deps.GetFilterConfig)
		catalog.GET("/slides", deps.GetSlides)

		// Products
		products := api.Group("/products")
		products.GET("/:id", deps.GetProduct)
		products.GET("/:id/sheet.pdf", deps.GetProductSheet)

		// Sessions
		sessions := api.Group("/sessions")
		sessions.POST("", deps.CreateSession)
		sessions.GET("/:id", deps.GetSession)
		sessions.DELETE("/:id", deps.DeleteSession)
		sessions.PATCH("/:id/filters", deps.PatchSessionFilters)
		sessions.POST("/:id/filters/clear", deps.ClearSessionFilters)
		sessions.POST("/:id/sort", deps.SetSessionSort)
		sessions.POST("/:id/category", deps.SetSessionCategory)
		sessions.POST("/:id/page", deps.SetSessionPage)
		sessions.POST("/:id/price/:action", deps.SessionPrice)
		sessions.POST("/:id/slider/:action", deps.SessionSlider)

		// Admin
		api.POST("/admin/login", deps.AdminLogin)
		admin := api.Group("/admin", middleware.Auth(deps.ParseToken), middleware.RequireRoles(services.RoleAdmin))
		admin.PUT("/products/:id", deps.PutProduct)
		admin.DELETE("/products/:id", deps.DeleteProduct)
		admin.PUT("/filters/:category", deps.PutFilterOptions)
		admin.GET("/cache/stats", deps.CacheStats)
		admin.DELETE("/cache", deps.FlushCache)
	}

	h.SetRouter(r)
	return r
}
