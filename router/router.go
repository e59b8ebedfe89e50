package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/larsjuhl/kantine-kiosk/controllers"
	"github.com/larsjuhl/kantine-kiosk/middlewares"
)

// SetupRouter builds the gin engine serving the kiosk UI.
func SetupRouter(kioskCtrl *controllers.KioskController, rateLimiter *middlewares.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.CORSMiddleware())
	if rateLimiter != nil {
		r.Use(rateLimiter.RateLimit())
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	kiosk := r.Group("/kiosk")
	{
		kiosk.GET("/catalog", kioskCtrl.GetCatalog)
		kiosk.GET("/availability", kioskCtrl.GetAvailability)
		kiosk.GET("/cart", kioskCtrl.GetCart)
		kiosk.POST("/cart/change", kioskCtrl.ChangeCart)
		kiosk.POST("/orders", kioskCtrl.SubmitOrder)
		kiosk.GET("/orders/status", kioskCtrl.GetOrderStatus)
		kiosk.POST("/reset", kioskCtrl.ResetStation)
		kiosk.GET("/session", kioskCtrl.GetSession)
		kiosk.GET("/journal", kioskCtrl.GetJournal)
	}

	return r
}
