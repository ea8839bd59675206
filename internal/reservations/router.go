package reservations

import "github.com/gin-gonic/gin"

// SetupReservationRoutes registers the seat hold lifecycle routes
func SetupReservationRoutes(rg *gin.RouterGroup, controller *Controller) {
	reservationRoutes := rg.Group("/reservations")
	{
		reservationRoutes.POST("", controller.Reserve)
		reservationRoutes.GET("/:token/verify", controller.Verify)
		reservationRoutes.DELETE("/:token", controller.Cancel)
	}
}
