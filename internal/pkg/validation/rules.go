package validation

import (
	"errors"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Struct tags applied during request binding
const (
	CourseNameTag = "coursename"
	// ParentNameTag accepts a blank value, which means "no parent"
	ParentNameTag = "parentname"
)

// NameMaxLength is the maximum course name length in characters
const NameMaxLength = 255

var (
	ErrNameBlank        = errors.New("must not be blank")
	ErrNameTooLong      = errors.New("must be at most 255 characters")
	ErrNameControlChars = errors.New("must not contain control characters")
)

// CourseName checks a course name after surrounding whitespace is trimmed
func CourseName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameBlank
	}
	if utf8.RuneCountInString(name) > NameMaxLength {
		return ErrNameTooLong
	}
	if strings.IndexFunc(name, unicode.IsControl) >= 0 {
		return ErrNameControlChars
	}
	return nil
}

// ParentName is CourseName except that a blank name is accepted
func ParentName(name string) error {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	return CourseName(name)
}

func validateCourseName(fl validator.FieldLevel) bool {
	return CourseName(fl.Field().String()) == nil
}

func validateParentName(fl validator.FieldLevel) bool {
	return ParentName(fl.Field().String()) == nil
}

// Register adds the custom rules to v
func Register(v *validator.Validate) error {
	if err := v.RegisterValidation(CourseNameTag, validateCourseName); err != nil {
		return err
	}
	return v.RegisterValidation(ParentNameTag, validateParentName)
}

var (
	ginOnce sync.Once
	ginErr  error
)

// RegisterWithGin adds the custom rules to gin's default binding validator.
// Safe to call more than once.
func RegisterWithGin() error {
	ginOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			ginErr = errors.New("gin binding validator is not go-playground/validator")
			return
		}
		ginErr = Register(v)
	})
	return ginErr
}
