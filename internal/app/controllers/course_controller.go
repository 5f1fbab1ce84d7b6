package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/knowledgemap/internal/app/models/dto"
	"github.com/yigit/knowledgemap/internal/app/services"
	"github.com/yigit/knowledgemap/internal/middleware"
	"github.com/yigit/knowledgemap/internal/pkg/helpers"
)

// CourseController handles course-related operations
type CourseController struct {
	courseService services.CourseService
}

// NewCourseController creates a new CourseController
func NewCourseController(courseService services.CourseService) *CourseController {
	return &CourseController{
		courseService: courseService,
	}
}

// courseID parses the :id path parameter, writing a 400 response when it is invalid
func courseID(ctx *gin.Context, param string) (int64, bool) {
	id, ok := helpers.ParseIDParam(ctx, param)
	if !ok {
		middleware.RespondBadRequest(ctx, param, "Invalid course ID")
	}
	return id, ok
}

func toInput(req dto.CourseRequest) services.CourseInput {
	return services.CourseInput{Name: req.Name, ParentName: req.ParentName}
}

// CreateCourse handles course creation
// @Summary Create a new course
// @Description Creates a course, optionally nested under the parent with the given name
// @Tags courses
// @Accept json
// @Produce json
// @Param request body dto.CourseRequest true "Course information"
// @Success 200 {object} models.CourseView "Course created successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid data or duplicate name"
// @Failure 404 {object} dto.ErrorResponse "Parent course not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /courses/ [post]
func (c *CourseController) CreateCourse(ctx *gin.Context) {
	var req dto.CourseRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	course, err := c.courseService.CreateCourse(ctx.Request.Context(), toInput(req))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, course)
}

// ListCourses returns a page of courses
// @Summary List courses
// @Description Lists courses in creation order
// @Tags courses
// @Produce json
// @Param skip query int false "Number of courses to skip" default(0)
// @Param limit query int false "Maximum number of courses" default(100)
// @Success 200 {array} models.CourseView
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /courses/ [get]
func (c *CourseController) ListCourses(ctx *gin.Context) {
	skip, limit := helpers.ParseSkipLimit(ctx)

	courses, err := c.courseService.ListCourses(ctx.Request.Context(), skip, limit)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, courses)
}

// GetCourse retrieves a course by ID
// @Summary Get course by ID
// @Tags courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} models.CourseView
// @Failure 400 {object} dto.ErrorResponse "Invalid course ID"
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Router /courses/{id} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	id, ok := courseID(ctx, "id")
	if !ok {
		return
	}

	course, err := c.courseService.GetCourse(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	if course == nil {
		middleware.RespondNotFound(ctx)
		return
	}

	ctx.JSON(http.StatusOK, course)
}

// UpdateCourse updates the name and parent of a course
// @Summary Update course
// @Description Replaces name and parent; a null parent_name detaches the course
// @Tags courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param request body dto.CourseRequest true "Course information"
// @Success 200 {object} models.CourseView
// @Failure 400 {object} dto.ErrorResponse "Invalid data, duplicate name or cycle"
// @Failure 404 {object} dto.ErrorResponse "Course or parent not found"
// @Router /courses/{id} [put]
func (c *CourseController) UpdateCourse(ctx *gin.Context) {
	id, ok := courseID(ctx, "id")
	if !ok {
		return
	}

	var req dto.CourseRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	course, err := c.courseService.UpdateCourse(ctx.Request.Context(), id, toInput(req))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	if course == nil {
		middleware.RespondNotFound(ctx)
		return
	}

	ctx.JSON(http.StatusOK, course)
}

// DeleteCourse deletes a course
// @Summary Delete course
// @Description Deletes a course; its children become roots
// @Tags courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} models.CourseView "The deleted course"
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Router /courses/{id} [delete]
func (c *CourseController) DeleteCourse(ctx *gin.Context) {
	id, ok := courseID(ctx, "id")
	if !ok {
		return
	}

	course, err := c.courseService.DeleteCourse(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	if course == nil {
		middleware.RespondNotFound(ctx)
		return
	}

	ctx.JSON(http.StatusOK, course)
}

// GetAncestors returns the ancestor chain of a course
// @Summary Get course dependencies
// @Description Returns the parent chain of a course, nearest parent first
// @Tags courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {array} models.CourseView
// @Failure 400 {object} dto.ErrorResponse "Stored hierarchy is cyclic or too deep"
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Router /courses/{id}/dependencies [get]
func (c *CourseController) GetAncestors(ctx *gin.Context) {
	id, ok := courseID(ctx, "id")
	if !ok {
		return
	}

	ancestors, err := c.courseService.GetAncestors(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, ancestors)
}

// GetChildren returns the direct children of a course
// @Summary Get child courses
// @Tags courses
// @Produce json
// @Param id path int true "Parent course ID"
// @Success 200 {array} models.CourseView
// @Failure 404 {object} dto.ErrorResponse "Parent course not found"
// @Router /courses/parent/{id} [get]
func (c *CourseController) GetChildren(ctx *gin.Context) {
	id, ok := courseID(ctx, "id")
	if !ok {
		return
	}

	children, err := c.courseService.GetChildren(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, children)
}

// ListPrerequisites returns the prerequisites of a course
// @Summary List prerequisites
// @Tags prerequisites
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {array} models.CourseView
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Router /courses/{id}/prerequisites [get]
func (c *CourseController) ListPrerequisites(ctx *gin.Context) {
	id, ok := courseID(ctx, "id")
	if !ok {
		return
	}

	prerequisites, err := c.courseService.ListPrerequisites(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, prerequisites)
}

// AddPrerequisite links a prerequisite to a course
// @Summary Add prerequisite
// @Tags prerequisites
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param request body dto.PrerequisiteRequest true "Prerequisite course name"
// @Success 200 {array} models.CourseView "Updated prerequisite list"
// @Failure 400 {object} dto.ErrorResponse "Invalid data or self prerequisite"
// @Failure 404 {object} dto.ErrorResponse "Course or prerequisite not found"
// @Router /courses/{id}/prerequisites [post]
func (c *CourseController) AddPrerequisite(ctx *gin.Context) {
	id, ok := courseID(ctx, "id")
	if !ok {
		return
	}

	var req dto.PrerequisiteRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	prerequisites, err := c.courseService.AddPrerequisite(ctx.Request.Context(), id, req.PrerequisiteName)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, prerequisites)
}

// RemovePrerequisite unlinks a prerequisite from a course
// @Summary Remove prerequisite
// @Tags prerequisites
// @Produce json
// @Param id path int true "Course ID"
// @Param prerequisiteId path int true "Prerequisite course ID"
// @Success 200 {array} models.CourseView "Remaining prerequisites"
// @Failure 404 {object} dto.ErrorResponse "Course or prerequisite link not found"
// @Router /courses/{id}/prerequisites/{prerequisiteId} [delete]
func (c *CourseController) RemovePrerequisite(ctx *gin.Context) {
	id, ok := courseID(ctx, "id")
	if !ok {
		return
	}
	prerequisiteID, ok := courseID(ctx, "prerequisiteId")
	if !ok {
		return
	}

	prerequisites, err := c.courseService.RemovePrerequisite(ctx.Request.Context(), id, prerequisiteID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, prerequisites)
}
