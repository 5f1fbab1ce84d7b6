package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/yigit/knowledgemap/internal/app/models/dto"
)

// BindJSON binds the request body into obj and writes a 400 response on failure.
// It returns false when the handler should stop.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(ValidationErrorDetail(err)))
		return false
	}
	return true
}

// ValidationErrorDetail converts binding errors into an ErrorDetail listing each failed field
func ValidationErrorDetail(err error) *dto.ErrorDetail {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request format").
			WithSeverity(dto.ErrorSeverityWarning).
			WithDetails(err.Error())
	}

	fields := dto.NewValidationErrors()
	for _, fe := range validationErrs {
		fields.AddError(jsonFieldName(fe), formatValidationError(fe))
	}

	detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Validation failed").
		WithSeverity(dto.ErrorSeverityWarning).
		WithDetails(fields.Errors)
	if len(fields.Errors) == 1 {
		detail = detail.WithField(fields.Errors[0].Field)
	}
	return detail
}

// jsonFieldName maps struct field names of the request DTOs to their JSON keys
func jsonFieldName(e validator.FieldError) string {
	switch e.Field() {
	case "Name":
		return "name"
	case "ParentName":
		return "parent_name"
	case "PrerequisiteName":
		return "prerequisite_name"
	default:
		return e.Field()
	}
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(e validator.FieldError) string {
	field := jsonFieldName(e)
	switch e.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return field + " must be at least " + e.Param() + " characters"
	case "max":
		return field + " must be at most " + e.Param() + " characters"
	case "coursename":
		return field + " must be a non-blank name of at most 255 characters without control characters"
	case "parentname":
		return field + " must be blank or a name of at most 255 characters without control characters"
	case "oneof":
		return field + " must be one of: " + e.Param()
	default:
		return field + " validation failed: " + e.Tag()
	}
}
