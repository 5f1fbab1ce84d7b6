package seed

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/yigit/knowledgemap/internal/app/services"
	"github.com/yigit/knowledgemap/internal/pkg/apperrors"
)

// DefaultCourse describes one course of the default catalogue
type DefaultCourse struct {
	Name          string
	Parent        string
	Prerequisites []string
}

// DefaultCatalogue lists the starter courses, parents before children
var DefaultCatalogue = []DefaultCourse{
	{Name: "Introduction to Programming"},
	{Name: "Data Structures", Parent: "Introduction to Programming", Prerequisites: []string{"Introduction to Programming"}},
	{Name: "Algorithms", Parent: "Data Structures", Prerequisites: []string{"Data Structures"}},
	{Name: "Databases"},
	{Name: "Advanced Databases", Parent: "Databases", Prerequisites: []string{"Databases"}},
	{Name: "Machine Learning", Parent: "Algorithms", Prerequisites: []string{"Algorithms"}},
}

// CreateDefaultData creates the default catalogue. Courses that already exist
// are left untouched, so running it twice is harmless.
func CreateDefaultData(ctx context.Context, courseService services.CourseService, lgr zerolog.Logger) (int, error) {
	lgr.Info().Msg("Checking/Creating default courses...")

	var finalErr error
	created := 0

	for _, course := range DefaultCatalogue {
		input := services.CourseInput{Name: course.Name}
		if course.Parent != "" {
			parent := course.Parent
			input.ParentName = &parent
		}

		view, err := courseService.CreateCourse(ctx, input)
		switch {
		case errors.Is(err, apperrors.ErrDuplicateName):
			lgr.Debug().Str("course", course.Name).Msg("Default course already exists")
			continue
		case err != nil:
			lgr.Error().Err(err).Str("course", course.Name).Msg("Error creating default course")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		created++

		for _, prerequisite := range course.Prerequisites {
			if _, err := courseService.AddPrerequisite(ctx, view.ID, prerequisite); err != nil {
				lgr.Error().Err(err).Str("course", course.Name).Str("prerequisite", prerequisite).Msg("Error linking default prerequisite")
				finalErr = errors.Join(finalErr, err)
			}
		}
	}

	lgr.Info().Int("created", created).Int("total", len(DefaultCatalogue)).Msg("Default course check complete")
	return created, finalErr
}
