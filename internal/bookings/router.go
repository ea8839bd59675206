package bookings

import "github.com/gin-gonic/gin"

// SetupBookingRoutes registers the booking confirmation and lookup routes
func SetupBookingRoutes(rg *gin.RouterGroup, controller *Controller) {
	bookingRoutes := rg.Group("/bookings")
	{
		bookingRoutes.POST("/confirm", controller.Confirm)
		bookingRoutes.GET("/:id", controller.GetBooking)
		bookingRoutes.GET("/ref/:ref", controller.GetBookingByRef)
	}
}
