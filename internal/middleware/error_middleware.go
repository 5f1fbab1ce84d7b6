package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/knowledgemap/internal/app/models/dto"
	"github.com/yigit/knowledgemap/internal/pkg/apperrors"
	"github.com/yigit/knowledgemap/internal/pkg/logger"
)

// apiError describes how a sentinel error is reported to clients
type apiError struct {
	target  error
	status  int
	code    dto.ErrorCode
	message string
}

// errorTable is checked in order; the first matching sentinel wins
var errorTable = []apiError{
	{apperrors.ErrDuplicateName, http.StatusBadRequest, dto.ErrorCodeResourceAlreadyExists, "Course with this name already exists"},
	{apperrors.ErrParentNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Parent course not found"},
	{apperrors.ErrPrerequisiteNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Prerequisite course not found"},
	{apperrors.ErrCourseNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Course not found"},
	{apperrors.ErrCycleDetected, http.StatusBadRequest, dto.ErrorCodeHierarchyCycle, "Parent assignment would create a cycle"},
	{apperrors.ErrHierarchyTooDeep, http.StatusBadRequest, dto.ErrorCodeHierarchyTooDeep, "Course hierarchy is too deep"},
	{apperrors.ErrSelfPrerequisite, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "A course cannot be its own prerequisite"},
	{apperrors.ErrValidationFailed, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed"},
}

// HandleAPIError handles common API errors and returns appropriate responses
func HandleAPIError(c *gin.Context, err error) {
	for _, e := range errorTable {
		if !errors.Is(err, e.target) {
			continue
		}

		detail := dto.NewErrorDetail(e.code, apperrors.Message(err, e.message))
		var customErr *apperrors.CustomError
		if errors.As(err, &customErr) && len(customErr.Details) > 0 {
			detail = detail.WithDetails(customErr.Details)
		}
		if e.status < http.StatusInternalServerError {
			detail = detail.WithSeverity(dto.ErrorSeverityWarning)
		}

		c.AbortWithStatusJSON(e.status, dto.NewErrorResponse(detail))
		return
	}

	logger.Error().Err(err).
		Str("requestID", GetRequestID(c)).
		Str("path", c.Request.URL.Path).
		Msg("Unhandled error")
	detail := dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")
	if gin.Mode() == gin.DebugMode {
		detail = detail.WithDebugInfo("%v", err)
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponse(detail))
}

// RespondNotFound writes the standard 404 body for an absent course
func RespondNotFound(c *gin.Context) {
	HandleAPIError(c, apperrors.ErrCourseNotFound)
}

// RespondBadRequest writes a 400 validation body with an optional field name
func RespondBadRequest(c *gin.Context, field, message string) {
	detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, message).WithSeverity(dto.ErrorSeverityWarning)
	if field != "" {
		detail = detail.WithField(field)
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
}
