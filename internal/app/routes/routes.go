package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/knowledgemap/internal/app/controllers"
	"github.com/yigit/knowledgemap/internal/pkg/logger"
	"github.com/yigit/knowledgemap/internal/pkg/validation"
)

// APIPrefix is the base path of the versioned API
const APIPrefix = "/api/v1"

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	courseController *controllers.CourseController,
	healthController *controllers.HealthController,
) {
	if err := validation.RegisterWithGin(); err != nil {
		logger.Error().Err(err).Msg("Failed to register custom binding rules")
	}

	router.GET("/ping", healthController.Ping)
	router.GET("/health", healthController.Health)

	v1 := router.Group(APIPrefix)

	courses := v1.Group("/courses")
	{
		// both spellings are used by existing clients
		courses.POST("", courseController.CreateCourse)
		courses.POST("/", courseController.CreateCourse)
		courses.GET("", courseController.ListCourses)
		courses.GET("/", courseController.ListCourses)

		courses.GET("/:id", courseController.GetCourse)
		courses.PUT("/:id", courseController.UpdateCourse)
		courses.DELETE("/:id", courseController.DeleteCourse)

		courses.GET("/:id/dependencies", courseController.GetAncestors)
		courses.GET("/parent/:id", courseController.GetChildren)

		courses.GET("/:id/prerequisites", courseController.ListPrerequisites)
		courses.POST("/:id/prerequisites", courseController.AddPrerequisite)
		courses.DELETE("/:id/prerequisites/:prerequisiteId", courseController.RemovePrerequisite)
	}
}
