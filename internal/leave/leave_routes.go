package leave

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the forwarding endpoint on api and the session
// dashboard under /v1/dashboard. decision middleware wraps only the
// approve and reject routes.
func RegisterRoutes(
	api *gin.RouterGroup,
	handler *Handler,
	session gin.HandlerFunc,
	decision ...gin.HandlerFunc,
) {
	api.GET("/leave-requests", handler.Forward)

	dashboard := api.Group("/v1/dashboard")
	dashboard.Use(session)
	{
		dashboard.GET("", handler.GetDashboard)
		dashboard.POST("/refresh", handler.Refresh)
		dashboard.PUT("/filter", handler.SetFilter)
		dashboard.PUT("/sort", handler.SetSort)
		dashboard.POST("/sort/toggle", handler.ToggleSort)
		dashboard.PUT("/page", handler.SetPage)
		dashboard.POST("/page/next", handler.NextPage)
		dashboard.POST("/page/prev", handler.PrevPage)

		approve := append(append([]gin.HandlerFunc{}, decision...), handler.Approve)
		reject := append(append([]gin.HandlerFunc{}, decision...), handler.Reject)
		dashboard.POST("/requests/:id/approve", approve...)
		dashboard.POST("/requests/:id/reject", reject...)
	}
}
