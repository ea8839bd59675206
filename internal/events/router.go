package events

import "github.com/gin-gonic/gin"

// SetupEventRoutes registers the public event browsing routes
func SetupEventRoutes(rg *gin.RouterGroup, controller *Controller) {
	eventRoutes := rg.Group("/events")
	{
		eventRoutes.GET("", controller.ListEvents)
		eventRoutes.GET("/:id", controller.GetEvent)
		eventRoutes.GET("/:id/seats", controller.GetSeatMap)
	}
}
